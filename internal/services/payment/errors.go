package payment

import (
	"errors"
	"fmt"
)

// Service errors
var (
	ErrInvalidTransition = errors.New("invalid payment state transition")
	ErrCancelled         = errors.New("payment attempt was cancelled")
	ErrSkeletonMismatch  = errors.New("settlement typed data does not match the quote")
	ErrMissingTxHash     = errors.New("settlement reported success without a transaction hash")
)

// StepError is returned when an attempt halts. Step is where it stopped and
// Err unwraps to the coded domain error.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("payment halted at %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
