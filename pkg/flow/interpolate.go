package flow

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/leadflow/pkg/domain"
)

var placeholder = regexp.MustCompile(`\{\{\s*([^}]+?)\s*\}\}`)

// Interpolate replaces {{key}} placeholders with values from vars.
// Unknown keys are left untouched so authoring mistakes stay visible.
func Interpolate(text string, vars map[string]string) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	return placeholder.ReplaceAllStringFunc(text, func(match string) string {
		key := placeholder.FindStringSubmatch(match)[1]
		if v, ok := vars[key]; ok {
			return v
		}
		return match
	})
}

// Vars builds the interpolation scope of a lead: its name, every answer by step
// id, and any extra entries (e.g. presenter fields) supplied by the caller.
func Vars(lead *domain.Lead, extra map[string]string) map[string]string {
	vars := make(map[string]string, len(lead.Answers)+len(extra)+2)
	for k, v := range extra {
		vars[k] = v
	}
	vars["name"] = lead.DisplayName
	vars["lead.name"] = lead.DisplayName
	for stepID, value := range lead.Answers {
		vars[stepID] = value
		vars["answers."+stepID] = value
	}
	return vars
}

// RenderChoice formats a Choice step as its question followed by numbered options.
func RenderChoice(step domain.Step, vars map[string]string) string {
	var sb strings.Builder
	sb.WriteString(Interpolate(step.Question, vars))
	for i, opt := range step.Options {
		sb.WriteString(fmt.Sprintf("\n%d. %s", i+1, Interpolate(opt.Label, vars)))
	}
	return sb.String()
}
