package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the small, stable taxonomy every external failure is mapped to.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindUserInput means a caller-supplied value was rejected by an external
	// system: unknown image, wrong credentials, unsupported region.
	KindUserInput
	// KindBackend is any other failure of the container runtime or the log
	// backend.
	KindBackend
)

func (k ErrorKind) String() string {
	switch k {
	case KindUserInput:
		return "UserInputError"
	case KindBackend:
		return "BackendError"
	default:
		return "UnknownError"
	}
}

// ClassifiedError is a transport failure translated at a gateway boundary.
// Message is what the operator sees; Err keeps the underlying cause.
type ClassifiedError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ClassifiedError) Error() string {
	return e.Message
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// Cause renders the message together with the underlying error, for debug logs.
func (e *ClassifiedError) Cause() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// UserInputError classifies err as caused by an invalid caller-supplied value.
func UserInputError(msg string, err error) error {
	return &ClassifiedError{Kind: KindUserInput, Message: msg, Err: err}
}

// BackendError classifies err as a failure on the remote side.
func BackendError(msg string, err error) error {
	return &ClassifiedError{Kind: KindBackend, Message: msg, Err: err}
}

// KindOf returns the kind of the first ClassifiedError in err's chain.
func KindOf(err error) ErrorKind {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

func IsUserInput(err error) bool {
	return KindOf(err) == KindUserInput
}

func IsBackend(err error) bool {
	return KindOf(err) == KindBackend
}
