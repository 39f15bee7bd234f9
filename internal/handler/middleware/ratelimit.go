package middleware

import (
	"net/http"
	"strconv"
	"time"

	"nyumbani/internal/handler/httperr"
	"nyumbani/internal/pkg/errs"
	"nyumbani/internal/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

// RateLimit throttles requests per caller on a fixed window. The key is the
// authenticated user when available, falling back to the client IP for
// anonymous endpoints such as login.
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID, ok := GetUserID(c); ok {
			key = userID.String()
		}

		result, err := limiter.Check(c.Request.Context(), key)
		if err != nil {
			// Counter store failure must not take the endpoint down with it.
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if result.Limited {
			retryAfter := int(time.Until(result.ResetAt).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			httperr.AbortWithError(c, http.StatusTooManyRequests,
				errs.ErrRateLimited, "Too many requests", nil)
			return
		}

		c.Next()
	}
}
