package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrBodyTooLarge is returned when a page exceeds the configured size limit.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("get %s: status %d: %s", e.URL, e.StatusCode, truncate(e.Message, 200))
}

// Retryable reports whether the status indicates a transient failure.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsRetryable checks if an error is worth retrying: throttling, server errors and
// network failures are; cancellation and client errors are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
