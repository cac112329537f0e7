package services

import (
	"fmt"
)

// ErrorKind tags pipeline failures for the caller. Each request fails
// independently; none of these are fatal to the process.
type ErrorKind string

const (
	// ValidationError - empty or unsafe input, rejected before any downstream call.
	ValidationError ErrorKind = "validation_error"
	// GenerationFailure - transport or backend failure during inference.
	GenerationFailure ErrorKind = "generation_failure"
	// RejectedQuery - the generator's output was a failure signal or failed
	// the safety gates rather than being an executable statement.
	RejectedQuery ErrorKind = "rejected_query"
	// ExecutionError - the store rejected or failed to run the statement.
	ExecutionError ErrorKind = "execution_error"
	// NoResult - the store produced no result set at all. An empty row set
	// is a valid success, not a NoResult.
	NoResult ErrorKind = "no_result"
)

// PipelineError is a tagged pipeline failure surfaced to the caller.
type PipelineError struct {
	Kind   ErrorKind
	Detail string
	Cause  error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

func newPipelineError(kind ErrorKind, detail string, cause error) *PipelineError {
	return &PipelineError{Kind: kind, Detail: detail, Cause: cause}
}
