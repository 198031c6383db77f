package common

import "errors"

// Callers should use errors.Is to match these values; lower layers wrap them
// with fmt.Errorf("...: %w", err).
var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Missing credential or configuration. Never retried.
	ErrorPrecondition = errors.New("precondition failed")

	// Standard transfer exceeded its deadline.
	ErrorTimeout = errors.New("upload timed out")

	// Resumable transfer exhausted its retries or was rejected.
	ErrorTransferFailed = errors.New("transfer failed")

	// Metadata or object write rejected by the store.
	ErrorStoreWriteFailed = errors.New("store write failed")

	// Object already present at the target path (upsert disabled).
	ErrAlreadyExists = errors.New("already exists")

	// Signed-in session required.
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Kind names the error kind of err for notifications and log fields.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrorPrecondition):
		return "Precondition"
	case errors.Is(err, ErrorTimeout):
		return "Timeout"
	case errors.Is(err, ErrorTransferFailed):
		return "TransferFailed"
	case errors.Is(err, ErrorStoreWriteFailed):
		return "StoreWriteFailed"
	case errors.Is(err, ErrorNotFound):
		return "NotFound"
	case errors.Is(err, ErrorUnauthorized):
		return "Unauthorized"
	default:
		return "Internal"
	}
}
