package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/danpilch/railpal/internal/api/railway"
)

// ErrCancelled is returned when the user declines a confirmation prompt.
var ErrCancelled = errors.New("cancelled by user")

// Kind classifies why a booking failed.
type Kind int

const (
	KindRemote Kind = iota
	KindAuthentication
	KindDiscovery
	KindShortfall
	KindOTP
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindDiscovery:
		return "discovery"
	case KindShortfall:
		return "shortfall"
	case KindOTP:
		return "otp"
	case KindCancelled:
		return "cancelled"
	default:
		return "remote"
	}
}

// Error is a failed booking step. State is the last state reached before the
// failure.
type Error struct {
	Kind    Kind
	State   State
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Detail returns the API response body behind the failure, if any.
func (e *Error) Detail() any {
	var apiErr *railway.APIError
	if errors.As(e.Err, &apiErr) {
		return apiErr.Detail()
	}
	return nil
}

func (t *Transaction) fail(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, State: t.state, Message: fmt.Sprintf(format, args...), Err: err}
}

func (t *Transaction) cancelled(format string, args ...any) *Error {
	return t.fail(KindCancelled, ErrCancelled, format, args...)
}

// promptFailed reports a prompt that returned err. A prompt abandoned because
// ctx ended is an interrupt, not closed input.
func (t *Transaction) promptFailed(ctx context.Context, err error, format string, args ...any) *Error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return t.fail(KindCancelled, ctxErr, "interrupted")
	}
	return t.fail(KindCancelled, err, format, args...)
}
