// Package errors defines the coded domain errors shared by the payment flow,
// the scanner and the HTTP layer.
package errors

import (
	stderrors "errors"
	"fmt"
)

// DomainError carries a stable code for clients plus an optional cause.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError with the same code, so wrapped copies still
// satisfy errors.Is against the package sentinels.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap returns a copy of e carrying err as its cause.
func (e *DomainError) Wrap(err error) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Err: err}
}

// WithMessage returns a copy of e with a more specific message.
func (e *DomainError) WithMessage(msg string) *DomainError {
	return &DomainError{Code: e.Code, Message: msg, Err: e.Err}
}

// CodeOf returns the code of the first DomainError in err's chain, or "".
func CodeOf(err error) string {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Code
	}
	return ""
}
