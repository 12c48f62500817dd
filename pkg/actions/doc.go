// Package actions implements the capabilities a flow can trigger from Action steps.
//
// A Dispatcher routes domain.ActionRequest values by name to registered handlers.
// The built-in capabilities are:
//
//   - generate_recommendation: an LLM-written plan recommendation, filtered for compliance
//   - render_comparison: an 800x600 PNG comparing two plans, stored as an artifact
//   - score_lead: a 0-100 qualification score computed from the collected answers
//
// Handlers never mutate the lead they receive. Failures are returned as *ActionError
// and the engine decides on fallback text.
package actions
