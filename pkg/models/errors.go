package models

import "errors"

// ErrorKind classifies a failed operation so callers can decide how to
// surface it.
type ErrorKind string

const (
	KindNetwork      ErrorKind = "network"
	KindValidation   ErrorKind = "validation"
	KindUnauthorized ErrorKind = "unauthorized"
	KindNotFound     ErrorKind = "not_found"
	KindServer       ErrorKind = "server"
	KindUnknown      ErrorKind = "unknown"
)

// KindedError is implemented by errors that carry an ErrorKind.
type KindedError interface {
	error
	ErrorKind() ErrorKind
}

// KindOf returns the ErrorKind of the first KindedError in err's chain, or
// KindUnknown. A nil error has no kind and yields the empty string.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var ke KindedError
	if errors.As(err, &ke) {
		return ke.ErrorKind()
	}
	return KindUnknown
}

// ValidationError reports invalid task fields detected before a request is
// sent.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid task: " + e.Problems[0]
	}
	msg := "invalid task:"
	for _, p := range e.Problems {
		msg += "\n  - " + p
	}
	return msg
}

// ErrorKind implements KindedError.
func (e *ValidationError) ErrorKind() ErrorKind { return KindValidation }
