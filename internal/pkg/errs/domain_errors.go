package errs

import "errors"

// Sentinel errors shared across usecase layers. Handlers translate these
// into HTTP statuses; nothing below the handler layer knows about HTTP.
var (
	// Input and lookup
	ErrValidation   = errors.New("validation error")
	ErrUnitNotFound = errors.New("unit not found")

	// Reservation lifecycle
	ErrBookingNotFound  = errors.New("booking not found")
	ErrBookingConflict  = errors.New("booking conflict")
	ErrAlreadyFinalized = errors.New("booking already finalized")
	ErrNotCancellable   = errors.New("booking can no longer be cancelled")

	// Payment reconciliation
	ErrAttemptNotFound    = errors.New("payment attempt not found")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// Auth
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Throttling
	ErrRateLimited = errors.New("rate limited")

	// Persistence
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)
