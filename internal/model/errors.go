package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrUnknownState is returned when a backend state has no known mapping.
	ErrUnknownState = errors.New("unknown state")
	// ErrStepValidation is returned when a wizard step local input is not valid.
	ErrStepValidation = errors.New("step validation failed")
	// ErrStepNotReady is returned when a wizard step job has not finished yet.
	ErrStepNotReady = errors.New("step not ready")
	// ErrJobExecution is returned when a polled job reports an error state.
	ErrJobExecution = errors.New("job execution failed")
)
