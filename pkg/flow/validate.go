package flow

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/leadflow/pkg/domain"
)

// build converts authored steps into domain steps, collecting every defect.
func (d *Definition) build(docs []StepDoc) error {
	var errs []error
	fail := func(stepID, field, reason string) {
		errs = append(errs, &ValidationError{StepID: stepID, Field: field, Reason: reason})
	}

	if len(docs) == 0 {
		fail("", "steps", "flow has no steps")
	}

	for i, sd := range docs {
		if sd.ID == "" {
			fail("", fmt.Sprintf("steps[%d].id", i), "id is required")
			continue
		}
		if _, dup := d.index[sd.ID]; dup {
			fail(sd.ID, "id", "duplicate step id")
			continue
		}
		if sd.ID == d.terminal {
			fail(sd.ID, "id", fmt.Sprintf("collides with terminal sentinel %q", d.terminal))
		}

		kind, err := domain.ParseStepKind(sd.Kind)
		if err != nil {
			fail(sd.ID, "kind", err.Error())
		}

		step := domain.Step{
			ID:       sd.ID,
			Kind:     kind,
			Next:     sd.Next,
			Content:  sd.Content,
			Question: sd.Question,
			Options:  sd.Options,
			Action:   sd.Action,
			Params:   sd.Params,
			Fallback: sd.Fallback,
		}
		if step.Next == "" {
			step.Next = d.terminal
		}

		switch kind {
		case domain.KindChoice:
			if len(step.Options) == 0 {
				fail(sd.ID, "options", "choice step must have at least one option")
			}
			seen := make(map[string]bool, len(step.Options))
			for j, opt := range step.Options {
				if opt.Value == "" {
					fail(sd.ID, fmt.Sprintf("options[%d].value", j), "value is required")
					continue
				}
				if seen[opt.Value] {
					fail(sd.ID, fmt.Sprintf("options[%d].value", j), fmt.Sprintf("duplicate option value %q", opt.Value))
				}
				seen[opt.Value] = true
			}
		case domain.KindAction:
			if step.Action == "" {
				fail(sd.ID, "action", "action step must name a capability")
			}
		}

		d.index[sd.ID] = len(d.steps)
		d.steps = append(d.steps, step)
	}

	// References can only be checked once every id is indexed.
	for _, step := range d.steps {
		if !d.resolvable(step.Next) {
			fail(step.ID, "next", fmt.Sprintf("unknown step %q", step.Next))
		}
		for j, opt := range step.Options {
			if opt.Next != "" && !d.resolvable(opt.Next) {
				fail(step.ID, fmt.Sprintf("options[%d].next", j), fmt.Sprintf("unknown step %q", opt.Next))
			}
		}
	}

	if _, ok := d.index[d.start]; !ok && len(d.steps) > 0 {
		fail("", "start", fmt.Sprintf("start step %q not found", d.start))
	}

	for _, cycle := range d.inputFreeCycles() {
		fail(cycle[0], "next", "cycle without input: "+strings.Join(cycle, " -> "))
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}

	d.warnings = d.unreachable()
	return nil
}

func (d *Definition) resolvable(id string) bool {
	if id == d.terminal {
		return true
	}
	_, ok := d.index[id]
	return ok
}

// unreachable crawls the flow from start and reports steps it never reaches.
func (d *Definition) unreachable() []string {
	visited := make(map[string]bool, len(d.steps))
	queue := []string{d.start}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] || d.IsTerminal(id) {
			continue
		}
		visited[id] = true

		step, ok := d.Step(id)
		if !ok {
			continue
		}
		queue = append(queue, step.Next)
		for _, opt := range step.Options {
			if opt.Next != "" {
				queue = append(queue, opt.Next)
			}
		}
	}

	var warnings []string
	for _, step := range d.steps {
		if !visited[step.ID] {
			warnings = append(warnings, fmt.Sprintf("step %q is unreachable from %q", step.ID, d.start))
		}
	}
	return warnings
}

// inputFreeCycles follows next links through message and action steps and
// returns every loop closed without passing a choice step. Such a loop would
// run forever since nothing on it waits for the lead.
func (d *Definition) inputFreeCycles() [][]string {
	const (
		unseen = iota
		onPath
		done
	)
	state := make(map[string]int, len(d.steps))
	var cycles [][]string

	for _, origin := range d.steps {
		var path []string
		id := origin.ID
		for {
			step, ok := d.Step(id)
			if !ok || step.Kind == domain.KindChoice || state[id] == done {
				break
			}
			if state[id] == onPath {
				from := slices.Index(path, id)
				cycles = append(cycles, append(slices.Clone(path[from:]), id))
				break
			}
			state[id] = onPath
			path = append(path, id)
			id = step.Next
		}
		for _, p := range path {
			state[p] = done
		}
	}
	return cycles
}
