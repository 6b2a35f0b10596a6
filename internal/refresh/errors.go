package refresh

import (
	"errors"
	"fmt"
)

var (
	// ErrNilListener is returned when a nil listener is passed to
	// AddListener or RemoveListener. This is the one condition treated
	// as a programming error rather than a recorded messaging failure.
	ErrNilListener = errors.New("nil listener")
)

// MessagingError is the single error kind reported by backend operations.
// Upstream classification (auth failure, network failure, and so on) is
// flattened into the human-readable reason; the coordinator treats it as an
// opaque string.
type MessagingError struct {
	// Reason is the human-readable description of the failure.
	Reason string
}

// NewMessagingError creates a MessagingError with a formatted reason.
func NewMessagingError(format string, args ...any) *MessagingError {
	return &MessagingError{
		Reason: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *MessagingError) Error() string {
	return e.Reason
}
