package shared

import (
	"errors"
	"fmt"
)

type ErrorSource int

const (
	ErrorSourceParser ErrorSource = iota
	ErrorSourceProvider
	ErrorSourceTransform
	ErrorSourceAuth
	ErrorSourceSystem
	ErrorSourceUnknown
)

// RelayError classifies a failure by the subsystem that produced it so
// callers can decide how to surface it.
type RelayError struct {
	Source  ErrorSource
	Message string
	Err     error
}

func Errorf(source ErrorSource, format string, a ...any) *RelayError {
	return &RelayError{
		Source:  source,
		Message: fmt.Sprintf(format, a...),
	}
}

func Wrap(source ErrorSource, err error, format string, a ...any) *RelayError {
	return &RelayError{
		Source:  source,
		Message: fmt.Sprintf(format, a...),
		Err:     err,
	}
}

func (e *RelayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}
	return e.Message
}

func (e *RelayError) Unwrap() error {
	return e.Err
}

func (e *RelayError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func (e *RelayError) As(target interface{}) bool {
	return errors.As(e.Err, target)
}
