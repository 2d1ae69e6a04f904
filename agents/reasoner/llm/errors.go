// ABOUTME: ErrorKind classifies provider failures; RequestError is the single wrapping type, mirroring core's RoutingError shape.
package llm

import "fmt"

// ErrorKind classifies why a provider call failed, independent of which
// provider produced it.
type ErrorKind string

const (
	ErrAuthentication ErrorKind = "authentication"
	ErrRateLimited    ErrorKind = "rate_limited"
	ErrInvalidRequest ErrorKind = "invalid_request"
	ErrServer         ErrorKind = "server"
	ErrTimeout        ErrorKind = "timeout"
	ErrNetwork        ErrorKind = "network"
	ErrUnknown        ErrorKind = "unknown"
)

// RequestError wraps a provider failure with enough structure for Retry to
// decide whether another attempt is worthwhile. Rather than the one
// subtype-per-status-code hierarchy some SDKs use, Chorus keeps a single
// wrapping type with a Kind enum, consistent with core.RoutingError.
type RequestError struct {
	Kind       ErrorKind
	Provider   string
	StatusCode int
	RetryAfterSeconds float64
	Cause      error
}

func (e *RequestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("llm: %s (%s): %v", e.Kind, e.Provider, e.Cause)
	}
	return fmt.Sprintf("llm: %s (%s)", e.Kind, e.Provider)
}

func (e *RequestError) Unwrap() error { return e.Cause }

// Retryable reports whether the policy should consider another attempt.
func (e *RequestError) Retryable() bool {
	switch e.Kind {
	case ErrRateLimited, ErrServer, ErrTimeout, ErrNetwork:
		return true
	default:
		return false
	}
}
