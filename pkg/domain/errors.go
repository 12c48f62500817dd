package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrLeadNotFound is returned when a channel id cannot be found in the store.
var ErrLeadNotFound = errors.New("lead not found")

// InvalidStateError reports a lead positioned on a step the loaded flow does not define.
type InvalidStateError struct {
	LeadID string
	StepID string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("lead %s is on unknown step %q", e.LeadID, e.StepID)
}

// FlowCycleError is raised when a single turn revisits a step without consuming input.
type FlowCycleError struct {
	StepID string
	Path   []string
}

func (e *FlowCycleError) Error() string {
	return fmt.Sprintf("flow cycle detected at step %q (path: %s)", e.StepID, strings.Join(e.Path, " -> "))
}

// PersistenceError wraps a storage failure. The turn that produced it was not committed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
