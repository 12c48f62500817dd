/*
Package dsl builds leadflow conversation flows in Go instead of YAML or JSON.

Steps are kept in the order they are added, and Build validates the result
with the same rules flow.Load applies to a file.

Example usage:

	b := dsl.New("start")

	b.Message("start").
		Content("Olá {{name}}!").
		Next("ask_profile")

	b.Choice("ask_profile").
		Question("Para quem é o plano?").
		Option("Só para mim", "individual").
		OptionTo("Empresa", "empresa", "handoff").
		Next("score")

	b.Action("score", "score_lead").
		Fallback("{{presenter.name}} entrará em contato em breve!").
		Next("done")

	def, err := b.Build()
*/
package dsl
