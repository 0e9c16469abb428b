package railway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrUnexpectedStatus is wrapped by APIError for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrRejected is wrapped by APIError when a 2xx response reports failure.
	ErrRejected = errors.New("rejected by server")
	// ErrMalformed is wrapped by APIError when a response body cannot be decoded.
	ErrMalformed = errors.New("malformed response")
	// ErrMissingData is wrapped by APIError when a required field is absent.
	ErrMissingData = errors.New("response missing data")
)

// APIError describes a failed call to the booking API, keeping the raw
// response body for diagnostics.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Detail returns the response body as decoded JSON, or as text when it is
// not JSON. It returns nil for an empty body.
func (e *APIError) Detail() any {
	if len(e.Body) == 0 {
		return nil
	}
	if json.Valid(e.Body) {
		return json.RawMessage(e.Body)
	}
	return string(e.Body)
}

// IsRejected reports whether err is the server refusing the request content
// (a 2xx application failure, or a 400/422 response) rather than a transport
// or server fault.
func IsRejected(err error) bool {
	if errors.Is(err, ErrRejected) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusUnprocessableEntity
	}
	return false
}

// IsTimeout reports whether err is a request that ran out of time.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
