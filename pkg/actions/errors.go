package actions

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAction is returned when no handler is registered for a name.
	ErrUnknownAction = errors.New("unknown action")
	// ErrInvalidParams is returned when step params cannot be decoded.
	ErrInvalidParams = errors.New("invalid action params")
)

// ActionError wraps any failure of a capability call.
type ActionError struct {
	Action string
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action %q failed: %v", e.Action, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}
