package notifier

import (
	"errors"
	"fmt"
)

var (
	// MissingCredentials - token or recipient not configured
	ErrMissingCredentials = errors.New("notifier: bot token and user id are required")

	// Transport - network failure or a response we could not read
	ErrTransport = errors.New("notifier: transport failure")

	// RemoteRejected - any non-success, non-429 status
	ErrRemoteRejected = errors.New("notifier: request rejected by remote")

	// InvalidRetryAfter - 429 without a delay we can parse
	ErrInvalidRetryAfter = errors.New("notifier: rate limited without a usable retry delay")

	// RateLimitExhausted - optional retry cap reached
	ErrRateLimitExhausted = errors.New("notifier: rate limit retries exhausted")
)

// RemoteError records the status Discord answered with.
type RemoteError struct {
	Phase      string
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s failed, status code: %d", e.Phase, e.StatusCode)
	}
	return fmt.Sprintf("%s failed, status code: %d: %s", e.Phase, e.StatusCode, e.Body)
}

func (e *RemoteError) Unwrap() error {
	return ErrRemoteRejected
}
