package services

import "strings"

// forbiddenKeywords are phrases the agent refuses to engage with:
// attempts to extract credentials or override the agent's instructions.
// Matching is case-insensitive substring over the whole query.
var forbiddenKeywords = []string{
	"ignore previous instructions",
	"ignore all instructions",
	"system prompt",
	"api key",
	"secret key",
	"password",
	"credit card",
	"social security",
}

// QueryGuard classifies incoming chat queries before they reach
// retrieval or the LLM.
type QueryGuard struct {
	keywords []string
}

func NewQueryGuard() *QueryGuard {
	return &QueryGuard{keywords: forbiddenKeywords}
}

// Check returns the matched keyword and false if the query is blocked.
func (g *QueryGuard) Check(query string) (string, bool) {
	q := strings.ToLower(query)
	for _, kw := range g.keywords {
		if strings.Contains(q, kw) {
			return kw, false
		}
	}
	return "", true
}
