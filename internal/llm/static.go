package llm

import "context"

// StaticName is the provider name recorded when the static fallback answered.
// Consumers treat a completion from it as not AI-generated.
const StaticName = "static"

// StaticProvider returns a fixed response and never fails. Appended as the
// last link of the chain so Complete always yields text even when every real
// provider is down or none are configured.
type StaticProvider struct {
	Response string
}

// NewStaticProvider creates the terminal fallback provider.
func NewStaticProvider(response string) *StaticProvider {
	if response == "" {
		response = "AI analysis is temporarily unavailable. Results reflect rule-based checks only."
	}
	return &StaticProvider{Response: response}
}

func (p *StaticProvider) Name() string { return StaticName }

func (p *StaticProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return p.Response, nil
}
