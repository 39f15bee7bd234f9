package daraja

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"nyumbani/internal/pkg/clock"
	"nyumbani/internal/pkg/config"
	"nyumbani/internal/pkg/errs"
)

const (
	oauthPath    = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushPath  = "/mpesa/stkpush/v1/processrequest"
	stkQueryPath = "/mpesa/stkpushquery/v1/query"

	timestampLayout = "20060102150405"

	// Tokens are valid for an hour; refresh a little early so an in-flight
	// request never carries one that expires mid-call.
	tokenLifetime    = time.Hour
	tokenRefreshSkew = time.Minute
)

var (
	ErrTokenFetch  = errs.New("failed to obtain gateway access token")
	ErrPushFailed  = errs.New("push payment initiation failed")
	ErrQueryFailed = errs.New("status query failed")
)

// Client talks to the daraja STK push API. It caches the short-lived oauth
// token and recomputes the request password (shortcode+passkey+timestamp,
// base64) per call, never caching it.
type Client struct {
	cfg        config.GatewayConfig
	httpClient *http.Client
	clock      clock.Clock

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(cfg config.GatewayConfig, clk clock.Clock) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		clock:      clk,
	}
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.token != "" && now.Before(c.tokenExpiry.Add(-tokenRefreshSkew)) {
		return c.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+oauthPath, nil)
	if err != nil {
		return "", errs.Mark(err, ErrTokenFetch)
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.ConsumerKey + ":" + c.cfg.ConsumerSecret))
	req.Header.Set("Authorization", "Basic "+basic)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errs.Mark(err, ErrTokenFetch)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", errs.Mark(errs.Newf("token endpoint returned %d: %s", resp.StatusCode, body), ErrTokenFetch)
	}

	var tokenResp accessTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", errs.Mark(err, ErrTokenFetch)
	}

	c.token = tokenResp.AccessToken
	c.tokenExpiry = now.Add(tokenLifetime)
	return c.token, nil
}

// password derives the merchant password for the given timestamp.
func (c *Client) password(timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(c.cfg.ShortCode + c.cfg.Passkey + timestamp))
}

// InitiatePush asks the gateway to prompt the payer's device and returns
// the CheckoutRequestID used to correlate the later status query.
func (c *Client) InitiatePush(ctx context.Context, phone string, amountCents int64, accountRef, desc string) (string, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}

	ts := c.clock.Now().UTC().Format(timestampLayout)
	payload := stkPushRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          c.password(ts),
		Timestamp:         ts,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            wholeUnits(amountCents),
		PartyA:            phone,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  accountRef,
		TransactionDesc:   desc,
	}

	var pushResp stkPushResponse
	if err := c.postJSON(ctx, stkPushPath, token, payload, &pushResp); err != nil {
		return "", errs.Mark(err, ErrPushFailed)
	}
	if pushResp.ResponseCode != responseCodeOK {
		return "", errs.Mark(errs.Newf("push rejected: %s", pushResp.ResponseDescription), ErrPushFailed)
	}
	return pushResp.CheckoutRequestID, nil
}

// QueryStatus asks the gateway for the outcome of an earlier push and maps
// the result codes onto domain outcomes:
//
//	response 0, result 0    -> completed (with receipt)
//	response 0, result 1032 -> cancelled by the payer
//	response 0, other       -> failed
//	response 1037           -> still processing
func (c *Client) QueryStatus(ctx context.Context, correlationID string) (QueryResult, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return QueryResult{}, err
	}

	ts := c.clock.Now().UTC().Format(timestampLayout)
	payload := stkQueryRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          c.password(ts),
		Timestamp:         ts,
		CheckoutRequestID: correlationID,
	}

	var queryResp stkQueryResponse
	if err := c.postJSON(ctx, stkQueryPath, token, payload, &queryResp); err != nil {
		return QueryResult{}, errs.Mark(err, ErrQueryFailed)
	}

	result := QueryResult{ResultDesc: queryResp.ResultDesc}
	switch queryResp.ResponseCode {
	case responseCodeOK:
		switch queryResp.ResultCode {
		case resultCodeOK:
			result.Outcome = OutcomeCompleted
			result.Receipt = queryResp.MpesaReceiptNumber
		case resultCodeCancelled:
			result.Outcome = OutcomeCancelled
		default:
			result.Outcome = OutcomeFailed
		}
	case responseCodeProcessing:
		result.Outcome = OutcomePending
	default:
		result.Outcome = OutcomeFailed
	}
	return result, nil
}

func (c *Client) postJSON(ctx context.Context, path, token string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errs.Newf("gateway returned %d: %s", resp.StatusCode, respBody)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// wholeUnits converts cents to the whole currency units the gateway takes,
// rounding half-up.
func wholeUnits(cents int64) int64 {
	return (cents + 50) / 100
}
