package domain

import "fmt"

// StepKind is the closed set of step variants a flow may contain.
type StepKind int

const (
	// KindMessage shows its content and advances immediately.
	KindMessage StepKind = iota + 1
	// KindChoice shows a numbered question and waits for the participant.
	KindChoice
	// KindAction invokes an external capability, then advances.
	KindAction
)

const (
	// DefaultStartStepID is the step a new lead is placed on.
	DefaultStartStepID = "start"
	// DefaultTerminalID marks the end of the flow when the document does not name one.
	DefaultTerminalID = "done"
)

// ParseStepKind maps a document kind name to a StepKind.
// Portuguese names are accepted for flows authored against the legacy format.
func ParseStepKind(s string) (StepKind, error) {
	switch s {
	case "message", "mensagem":
		return KindMessage, nil
	case "choice", "escolha":
		return KindChoice, nil
	case "action", "executar":
		return KindAction, nil
	}
	return 0, fmt.Errorf("unknown step kind %q", s)
}

func (k StepKind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindChoice:
		return "choice"
	case KindAction:
		return "action"
	}
	return fmt.Sprintf("StepKind(%d)", int(k))
}

// Option is one numbered entry of a Choice step.
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
	// Next overrides the step successor when this option is picked.
	Next string `json:"next,omitempty" yaml:"next,omitempty"`
}

// Step is a node of the conversation script.
// Only the fields relevant to Kind are populated.
type Step struct {
	ID   string
	Kind StepKind
	Next string

	// Message and Action
	Content string

	// Choice
	Question string
	Options  []Option

	// Action
	Action   string
	Params   map[string]any
	Fallback string
}

// SuccessorOf returns where the flow continues after the given option.
func (s Step) SuccessorOf(opt Option) string {
	if opt.Next != "" {
		return opt.Next
	}
	return s.Next
}
