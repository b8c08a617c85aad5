package paste

import "errors"

// The service surfaces a small closed set of error kinds so callers can
// branch with errors.Is / errors.As instead of matching message text.
var (
	// ErrNotLive covers absent, time-expired, view-exhausted and
	// corrupt pastes alike. Collapsing them is deliberate: a caller
	// must not be able to tell which condition applied.
	ErrNotLive = errors.New("paste not found or no longer available")

	// ErrStorageUnavailable signals an infrastructure failure talking
	// to the backing store. Not caller-fixable and not retried here.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// InvalidInputError rejects a create request with a caller-readable
// reason, always before any store write.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}
