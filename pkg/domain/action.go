package domain

// Capability names understood by the default dispatcher.
const (
	// ActionGenerateRecommendation asks a text generator for a plan recommendation
	// based on the lead answers.
	ActionGenerateRecommendation = "generate_recommendation"

	// ActionRenderComparison composes an image comparing two plans.
	// Params: plan_a, plan_b ({name, advantages}).
	ActionRenderComparison = "render_comparison"

	// ActionScoreLead computes a 0-100 qualification score from the answers.
	// Params: rules (map of step id -> bonus points).
	ActionScoreLead = "score_lead"
)

// ActionRequest represents a side-effect the engine asks the host to perform.
type ActionRequest struct {
	Name   string
	StepID string
	// Lead is a snapshot; capabilities must not mutate it.
	Lead   *Lead
	Params map[string]any
}

// ActionResponse is the outcome of a successful capability call.
type ActionResponse struct {
	// Text is appended to the lead history as an outgoing message.
	Text string
	// Value, when set, is recorded as the answer of the action step.
	Value string
	// Artifact references generated binary content.
	Artifact string
}
