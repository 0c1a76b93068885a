package scraper

import "strings"

// StatusRule classifies text as Retired when it contains any of its tokens
// (case-insensitive) and Active otherwise.
//
// This is a heuristic: a bio that mentions a "former teammate" reads as Retired.
type StatusRule struct {
	Tokens []string
}

// DefaultStatusRule is the token set used when a page has no usable status label.
var DefaultStatusRule = StatusRule{Tokens: []string{"retired", "former", "inactive"}}

func (r StatusRule) Classify(text string) Status {
	lower := strings.ToLower(text)
	for _, token := range r.Tokens {
		if strings.Contains(lower, strings.ToLower(token)) {
			return StatusRetired
		}
	}
	return StatusActive
}
