package actions

import "regexp"

var (
	pricingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)R\$\s*\d+[.,]?\d*`),
		regexp.MustCompile(`(?i)\d+\s*reais`),
		regexp.MustCompile(`(?i)\bmensalidade\b.*\d`),
	}

	illegalClaimPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)zero\s+car[êe]ncia`),
		regexp.MustCompile(`(?i)sem\s+car[êe]ncia`),
		regexp.MustCompile(`(?i)cobertura\s+imediata`),
		regexp.MustCompile(`(?i)aprova[cç][aã]o\s+garantida`),
	}

	sensitiveDataPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bcpf\b`),
		regexp.MustCompile(`(?i)\brg\b`),
		regexp.MustCompile(`(?i)hist[oó]rico\s+m[eé]dico`),
		regexp.MustCompile(`(?i)doen[cç]as\s+pr[eé]-existentes`),
		regexp.MustCompile(`(?i)cart[aã]o\s+de\s+cr[eé]dito`),
		regexp.MustCompile(`(?i)\bsenha\b`),
	}
)

// Violations lists the compliance rules text breaks: exact pricing,
// regulated claims and requests for sensitive personal data.
func Violations(text string) []string {
	var out []string
	for _, p := range pricingPatterns {
		if p.MatchString(text) {
			out = append(out, "contains exact pricing")
			break
		}
	}
	for _, p := range illegalClaimPatterns {
		if p.MatchString(text) {
			out = append(out, "illegal claim: "+p.String())
		}
	}
	for _, p := range sensitiveDataPatterns {
		if p.MatchString(text) {
			out = append(out, "requests sensitive data: "+p.String())
		}
	}
	return out
}

// IsCompliant reports whether text breaks no rule.
func IsCompliant(text string) bool {
	return len(Violations(text)) == 0
}
