package dsl

import (
	"fmt"

	"github.com/aretw0/leadflow/pkg/flow"
)

// Builder manages the flow construction.
type Builder struct {
	doc   flow.Document
	steps map[string]*StepBuilder
	order []string
}

// New creates a new flow builder whose leads start on start.
func New(start string) *Builder {
	return &Builder{
		doc:   flow.Document{Start: start},
		steps: make(map[string]*StepBuilder),
	}
}

// Version sets the flow version reported by the health check.
func (b *Builder) Version(v string) *Builder {
	b.doc.Version = v
	return b
}

// Terminal renames the end-of-flow marker.
func (b *Builder) Terminal(id string) *Builder {
	b.doc.Terminal = id
	return b
}

// Prompts overrides the system texts.
func (b *Builder) Prompts(p flow.Prompts) *Builder {
	b.doc.Prompts = p
	return b
}

// Message adds a step that shows its content and advances.
func (b *Builder) Message(id string) *StepBuilder {
	return b.add(id, "message")
}

// Choice adds a numbered question that waits for the participant.
func (b *Builder) Choice(id string) *StepBuilder {
	return b.add(id, "choice")
}

// Action adds a step that invokes the named capability.
func (b *Builder) Action(id, action string) *StepBuilder {
	s := b.add(id, "action")
	s.doc.Action = action
	return s
}

// add returns the existing builder when id was added before, switching its kind.
func (b *Builder) add(id, kind string) *StepBuilder {
	if s, ok := b.steps[id]; ok {
		s.doc.Kind = kind
		return s
	}
	s := &StepBuilder{}
	s.doc.ID = id
	s.doc.Kind = kind
	b.steps[id] = s
	b.order = append(b.order, id)
	return s
}

// Document returns the authored form of the flow.
func (b *Builder) Document() flow.Document {
	doc := b.doc
	doc.Steps = make([]flow.StepDoc, 0, len(b.order))
	for _, id := range b.order {
		doc.Steps = append(doc.Steps, b.steps[id].Build())
	}
	return doc
}

// Build validates the flow.
func (b *Builder) Build() (*flow.Definition, error) {
	def, err := flow.New(b.Document())
	if err != nil {
		return nil, fmt.Errorf("failed to build flow: %w", err)
	}
	return def, nil
}
