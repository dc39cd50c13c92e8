// Package llm provides AI completion providers and a fallback chain over
// them. Callers treat the chain as best-effort: every consumer has a
// deterministic rule-based fallback for when no provider responds.
package llm

import "context"

// Provider is a single AI completion backend.
type Provider interface {
	// Name identifies the provider in logs, metrics, and completions.
	Name() string

	// Complete sends a system and user prompt and returns the raw text
	// response. Implementations honor ctx cancellation.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Completion is a successful chain result.
type Completion struct {
	Text     string
	Provider string
}

// AIGenerated reports whether a real model produced the text, as opposed to
// the static terminal fallback.
func (c Completion) AIGenerated() bool {
	return c.Provider != "" && c.Provider != StaticName
}

// Usage counts tokens consumed by one request.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
