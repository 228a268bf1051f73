package provider

import (
	"fmt"
	"time"
)

type ErrorKind string

const (
	ErrorKindInvalidRequest    ErrorKind = "invalid_request"
	ErrorKindRateLimitExceeded ErrorKind = "rate_limit_exceeded"
	ErrorKindOverloaded        ErrorKind = "overloaded"
	ErrorKindInternal          ErrorKind = "internal"
	ErrorKindTimeout           ErrorKind = "timeout"
	ErrorKindCanceled          ErrorKind = "canceled"
	ErrorKindUnauthenticated   ErrorKind = "unauthenticated"
	ErrorKindUnknown           ErrorKind = "unknown"
)

// Error is a transport or auth failure surfaced by a provider client.
type Error struct {
	Provider   string
	Kind       ErrorKind
	RetryAfter time.Duration
	Err        error
}

func NewError(provider string, kind ErrorKind, err error) *Error {
	return &Error{
		Provider: provider,
		Kind:     kind,
		Err:      err,
	}
}

func (e *Error) Message() string {
	switch e.Kind {
	case ErrorKindInvalidRequest:
		return "invalid request format or content"
	case ErrorKindRateLimitExceeded:
		if e.RetryAfter > 0 {
			return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
		}
		return "rate limit exceeded"
	case ErrorKindOverloaded:
		return "API temporarily overloaded"
	case ErrorKindInternal:
		return "internal server error"
	case ErrorKindTimeout:
		return "request timeout"
	case ErrorKindCanceled:
		return "request canceled"
	case ErrorKindUnauthenticated:
		return "not authenticated"
	default:
		return "unknown error"
	}
}

// Retryable reports whether a fresh attempt could succeed and the
// provider-suggested wait, if any.
func (e *Error) Retryable() (bool, time.Duration) {
	switch e.Kind {
	case ErrorKindRateLimitExceeded:
		return true, e.RetryAfter
	case ErrorKindOverloaded, ErrorKindInternal, ErrorKindTimeout:
		return true, 0
	default:
		return false, 0
	}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s", e.Provider, e.Message(), e.Err.Error())
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message())
}

func (e *Error) Unwrap() error {
	return e.Err
}
