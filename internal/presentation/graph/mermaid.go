package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/flow"
)

// GraphOverlay contains lead state to visualize on the graph.
type GraphOverlay struct {
	VisitedSteps []string
	CurrentStep  string
}

// GenerateMermaid produces a Mermaid flowchart from a flow definition.
// Shapes follow the step kind:
// - Start: ((Circle))
// - Action: [[Subroutine]]
// - Choice: [/Parallelogram/]
// - Message: [Rectangle]
// The terminal sentinel is drawn as a stadium.
func GenerateMermaid(def *flow.Definition, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	terminalUsed := false
	for _, step := range def.Steps() {
		safeID := sanitizeMermaidID(step.ID)

		opener, closer := "[", "]"
		switch {
		case step.ID == def.Start():
			opener, closer = "((", "))"
		case step.Kind == domain.KindAction:
			opener, closer = "[[", "]]"
		case step.Kind == domain.KindChoice:
			opener, closer = "[/", "/]"
		}

		label := step.ID
		if step.Kind == domain.KindAction {
			label = fmt.Sprintf("%s <br/> ⚙️ %s", step.ID, step.Action)
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))

		if step.Kind == domain.KindChoice {
			for _, opt := range step.Options {
				to := step.SuccessorOf(opt)
				terminalUsed = terminalUsed || def.IsTerminal(to)
				safeLabel := strings.ReplaceAll(opt.Label, "\"", "'")
				sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", safeID, safeLabel, sanitizeMermaidID(to)))
			}
			continue
		}

		terminalUsed = terminalUsed || def.IsTerminal(step.Next)
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", safeID, sanitizeMermaidID(step.Next)))
	}

	if terminalUsed {
		sb.WriteString(fmt.Sprintf("    %s([\"%s\"])\n", sanitizeMermaidID(def.Terminal()), def.Terminal()))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedSteps {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.CurrentStep != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentStep)))
		}
	}

	return sb.String()
}

// OverlayFor derives the overlay of a lead from its recorded answers and position.
func OverlayFor(def *flow.Definition, lead *domain.Lead) *GraphOverlay {
	overlay := &GraphOverlay{CurrentStep: lead.CurrentStepID}
	seen := make(map[string]bool)
	for _, entry := range lead.History {
		if entry.StepID != "" && !seen[entry.StepID] {
			seen[entry.StepID] = true
			overlay.VisitedSteps = append(overlay.VisitedSteps, entry.StepID)
		}
	}
	for _, step := range def.Steps() {
		if _, answered := lead.Answers[step.ID]; answered && !seen[step.ID] {
			seen[step.ID] = true
			overlay.VisitedSteps = append(overlay.VisitedSteps, step.ID)
		}
	}
	return overlay
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
