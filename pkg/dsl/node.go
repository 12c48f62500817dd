package dsl

import (
	"maps"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/flow"
)

// StepBuilder provides a fluent API for configuring a step.
type StepBuilder struct {
	doc flow.StepDoc
}

// Content sets the text of a message step, or the text an action step
// shows before it runs.
func (s *StepBuilder) Content(text string) *StepBuilder {
	s.doc.Content = text
	return s
}

// Question sets the text shown above the options of a choice step.
func (s *StepBuilder) Question(text string) *StepBuilder {
	s.doc.Question = text
	return s
}

// Option appends a numbered option that continues to the step successor.
func (s *StepBuilder) Option(label, value string) *StepBuilder {
	return s.OptionTo(label, value, "")
}

// OptionTo appends a numbered option that jumps to next.
func (s *StepBuilder) OptionTo(label, value, next string) *StepBuilder {
	s.doc.Options = append(s.doc.Options, domain.Option{Label: label, Value: value, Next: next})
	return s
}

// Param adds an action parameter.
func (s *StepBuilder) Param(key string, value any) *StepBuilder {
	if s.doc.Params == nil {
		s.doc.Params = make(map[string]any)
	}
	s.doc.Params[key] = value
	return s
}

// Fallback sets the message shown when the action fails.
func (s *StepBuilder) Fallback(text string) *StepBuilder {
	s.doc.Fallback = text
	return s
}

// Next sets the successor step.
func (s *StepBuilder) Next(id string) *StepBuilder {
	s.doc.Next = id
	return s
}

// Build returns a copy of the authored step.
func (s *StepBuilder) Build() flow.StepDoc {
	out := s.doc
	out.Options = append([]domain.Option(nil), s.doc.Options...)
	out.Params = maps.Clone(s.doc.Params)
	return out
}
