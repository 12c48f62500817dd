package flow

import (
	"errors"
	"fmt"
)

// ValidationError represents a single flow definition defect.
type ValidationError struct {
	StepID string // Empty for document-level problems
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.StepID == "" {
		return fmt.Sprintf("flow field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("step %q field %q: %s", e.StepID, e.Field, e.Reason)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Unwrap exposes the individual failures to errors.Is / errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}

// IsValidationError reports whether err carries at least one ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
