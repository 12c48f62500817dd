package flow

import (
	"errors"
	"strconv"
	"strings"

	"github.com/aretw0/leadflow/pkg/domain"
)

// InvalidReason explains why input did not satisfy a Choice step.
type InvalidReason string

const (
	ReasonNonNumeric InvalidReason = "non_numeric"
	ReasonOutOfRange InvalidReason = "out_of_range"
)

// Outcome is the result of resolving input against a step.
// It is either Advance or Invalid.
type Outcome interface {
	outcome()
}

// Advance moves the lead to Next, recording Value when the step collected one.
type Advance struct {
	Value string
	Label string
	Next  string
}

// Invalid keeps the lead on the current step.
type Invalid struct {
	Reason InvalidReason
}

func (Advance) outcome() {}
func (Invalid) outcome() {}

// Resolve maps raw input on step to an Outcome. It has no side effects.
//
// Choice steps accept a 1-based option number. Message and Action steps do not
// consume input and always advance to their successor.
func Resolve(step domain.Step, input string) Outcome {
	if step.Kind != domain.KindChoice {
		return Advance{Next: step.Next}
	}

	n, err := strconv.Atoi(strings.TrimSpace(input))
	if errors.Is(err, strconv.ErrRange) {
		// A well-formed integer that does not fit an int is past any option.
		return Invalid{Reason: ReasonOutOfRange}
	}
	if err != nil {
		return Invalid{Reason: ReasonNonNumeric}
	}
	idx := n - 1
	if idx < 0 || idx >= len(step.Options) {
		return Invalid{Reason: ReasonOutOfRange}
	}

	opt := step.Options[idx]
	return Advance{Value: opt.Value, Label: opt.Label, Next: step.SuccessorOf(opt)}
}
