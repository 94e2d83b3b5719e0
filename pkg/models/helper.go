package models

import (
	"context"
	"fmt"
)

// NewProvider returns a concrete Agent for a chain entry. The API key is the
// one the customer saved through the configuration endpoint; Ollama runs
// locally and needs none.
func NewProvider(ctx context.Context, provider, model, apiKey string) (Agent, error) {
	switch provider {
	case "gemini", "google":
		return NewGeminiLLM(ctx, apiKey, model)
	case "openai":
		return NewOpenAILLM(apiKey, model), nil
	case "anthropic", "claude":
		return NewAnthropicLLM(apiKey, model), nil
	case "ollama":
		return NewOllamaLLM(model)
	case "dummy":
		return NewDummyLLM(""), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

// Text coerces a provider result to a plain string. Providers in this package
// return strings already; the fallback covers foreign Agent implementations.
func Text(out any) string {
	switch v := out.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
