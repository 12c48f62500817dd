package flow

import (
	"slices"

	"github.com/aretw0/leadflow/pkg/domain"
)

// Prompts holds the system texts a flow may customize.
type Prompts struct {
	InvalidOption string `yaml:"invalid_option" json:"invalid_option"`
	NonNumeric    string `yaml:"non_numeric" json:"non_numeric"`
	Completed     string `yaml:"completed" json:"completed"`
	Fallback      string `yaml:"fallback" json:"fallback"`
}

// DefaultPrompts are used for every prompt the document leaves empty.
var DefaultPrompts = Prompts{
	InvalidOption: "⚠️ Invalid option. Choose a number from the list.",
	NonNumeric:    "⚠️ Type the option number (e.g. 1, 2, 3).",
}

// Document is the declarative source of a flow, as authored in YAML or JSON.
type Document struct {
	Version  string    `yaml:"version" json:"version"`
	Start    string    `yaml:"start" json:"start"`
	Terminal string    `yaml:"terminal" json:"terminal"`
	Prompts  Prompts   `yaml:"prompts" json:"prompts"`
	Steps    []StepDoc `yaml:"steps" json:"steps"`
}

// StepDoc is the authored form of a step. Kind is resolved into domain.StepKind on load.
type StepDoc struct {
	ID       string          `yaml:"id" json:"id"`
	Kind     string          `yaml:"kind" json:"kind"`
	Next     string          `yaml:"next" json:"next"`
	Content  string          `yaml:"content" json:"content"`
	Question string          `yaml:"question" json:"question"`
	Options  []domain.Option `yaml:"options" json:"options"`
	Action   string          `yaml:"action" json:"action"`
	Params   map[string]any  `yaml:"params" json:"params"`
	Fallback string          `yaml:"fallback" json:"fallback"`
}

// Definition is the validated, read-only representation of a conversation script.
type Definition struct {
	version  string
	start    string
	terminal string
	prompts  Prompts
	steps    []domain.Step
	index    map[string]int
	warnings []string
}

// New validates doc and builds a Definition.
// It returns an *AggregateError listing every defect found.
func New(doc Document) (*Definition, error) {
	def := &Definition{
		version:  doc.Version,
		start:    doc.Start,
		terminal: doc.Terminal,
		prompts:  doc.Prompts,
		index:    make(map[string]int, len(doc.Steps)),
	}
	if def.start == "" {
		def.start = domain.DefaultStartStepID
	}
	if def.terminal == "" {
		def.terminal = domain.DefaultTerminalID
	}
	if def.prompts.InvalidOption == "" {
		def.prompts.InvalidOption = DefaultPrompts.InvalidOption
	}
	if def.prompts.NonNumeric == "" {
		def.prompts.NonNumeric = DefaultPrompts.NonNumeric
	}

	if err := def.build(doc.Steps); err != nil {
		return nil, err
	}
	return def, nil
}

// Start returns the id a new lead is placed on.
func (d *Definition) Start() string { return d.start }

// Terminal returns the sentinel marking the end of the flow.
func (d *Definition) Terminal() string { return d.terminal }

// IsTerminal reports whether id is the terminal sentinel.
func (d *Definition) IsTerminal(id string) bool { return id == d.terminal }

// Version returns the document version label, if any.
func (d *Definition) Version() string { return d.version }

// Prompts returns the effective system texts.
func (d *Definition) Prompts() Prompts { return d.prompts }

// Warnings lists non-fatal findings such as unreachable steps.
func (d *Definition) Warnings() []string { return slices.Clone(d.warnings) }

// Step looks up a step by id.
func (d *Definition) Step(id string) (domain.Step, bool) {
	i, ok := d.index[id]
	if !ok {
		return domain.Step{}, false
	}
	return d.steps[i], true
}

// Steps returns the steps in document order.
func (d *Definition) Steps() []domain.Step {
	return slices.Clone(d.steps)
}
