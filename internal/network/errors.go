package network

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrRateBudget means the limiter could not grant a token before the
// caller's deadline.
var ErrRateBudget = errors.New("rate limit wait would exceed deadline")

// Error is a transport-level failure: timeout, DNS or refused connection.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline expiry.
func (e *Error) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// IsNetworkError reports whether err came from the transport.
func IsNetworkError(err error) bool {
	var netErr *Error
	return errors.As(err, &netErr)
}
