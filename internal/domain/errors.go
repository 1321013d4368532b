package domain

import "fmt"

// ValidationError means a transition or commit precondition was not met.
// State is unchanged and the caller can re-prompt the user.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// GenerationError means an idea-generation call failed or returned an
// unusable result. State is unchanged and the action may be retried.
type GenerationError struct {
	Msg string
	Err error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *GenerationError) Unwrap() error { return e.Err }

// PersistError means the persistence gateway rejected a commit. In-memory
// pipeline state is retained so the founder can retry without losing work.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string { return "persist idea: " + e.Err.Error() }

func (e *PersistError) Unwrap() error { return e.Err }
