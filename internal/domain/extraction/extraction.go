// Package extraction models the outcome of turning a free-text query into filters.
package extraction

import "github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/filter"

// ProviderFallback names the keyword matcher in result metadata.
const ProviderFallback = "fallback"

// Tokens is provider token usage.
type Tokens struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

// Total returns input plus output tokens.
func (t Tokens) Total() int { return t.Input + t.Output }

// Metadata records which provider produced a result.
type Metadata struct {
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
	Tokens   Tokens `json:"tokens"`
}

// Result is a per-request extraction outcome.
type Result struct {
	OriginalQuery string         `json:"originalQuery"`
	Filters       filter.Filters `json:"filters"`
	Explanation   string         `json:"explanation"`
	Confidence    float64        `json:"confidence"`
	Metadata      Metadata       `json:"metadata"`
}

// QueryContext is optional caller context sent alongside a query.
type QueryContext struct {
	CurrentLocation *filter.Coordinates `json:"current_location,omitempty"`
	UserType        string              `json:"user_type,omitempty"`
}

// ClampConfidence bounds c to [0, 1].
func ClampConfidence(c float64) float64 {
	switch {
	case c != c, c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}
