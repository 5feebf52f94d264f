package httputil

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single HTTP request.
const DefaultTimeout = 30 * time.Second

var (
	// ErrNotFound is returned for a 404 response.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for transport failures and unexpected status codes.
	ErrNetwork = errors.New("network error")
)

// StatusError reports an unexpected response code.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: status %d", ErrNetwork, e.Code)
}

func (e *StatusError) Unwrap() error { return ErrNetwork }

// CheckStatus classifies an HTTP status code. Server errors are wrapped in
// [RetryableError]; a 404 maps to [ErrNotFound].
func CheckStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500:
		return &RetryableError{Err: &StatusError{Code: code}}
	default:
		return &StatusError{Code: code}
	}
}

// NewClient creates an HTTP client with the given timeout.
// A non-positive timeout selects [DefaultTimeout].
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
