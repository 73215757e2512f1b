package resilience

import (
	"errors"
	"net"
	"net/http"
	"syscall"
)

// TransientError marks a failed sink call as safe to retry, carrying
// the HTTP status that produced it when one exists.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps a sink failure as retryable. StatusCode may
// be zero for non-HTTP failures.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// IsTransient reports whether a failed sink call is worth another
// attempt: an explicit TransientError, a network timeout, or a
// connection the peer dropped. Everything else (a rejected payload, a
// malformed response) fails fast so the mutation can proceed without
// the job id.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE)
}

// IsTransientHTTPStatus reports whether the sink endpoint's response
// status indicates a server-side condition that may clear on retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
