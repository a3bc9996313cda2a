package answering

import (
	"context"
	"fmt"
)

// Provider turns (question, document text) into an answer. Implementations
// may fail; the Gateway wrapper below is what the orchestrator consumes.
type Provider interface {
	Answer(ctx context.Context, question, documentText string) (string, error)
}

// NewProvider selects the concrete provider from config.
func NewProvider(provider, geminiAPIKey, remoteAskURL string) (Provider, error) {
	switch provider {
	case "gemini":
		return NewGeminiProvider(geminiAPIKey), nil
	case "remote":
		return NewRemoteProvider(remoteAskURL), nil
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown answering provider: %s", provider)
	}
}

// Gateway is the boundary the store talks to. It never fails: a provider
// error is degraded into the answer text itself, prefixed with "Error: ",
// and treated as a normal resolution downstream.
type Gateway struct {
	provider Provider
}

func NewGateway(provider Provider) *Gateway {
	return &Gateway{
		provider: provider,
	}
}

// Ask never fails from the caller's point of view. The second return
// reports whether the answer is a real resolution; degraded error strings
// come back false so callers do not treat them as durable results.
func (g *Gateway) Ask(ctx context.Context, question, documentText string) (string, bool) {
	answer, err := g.provider.Answer(ctx, question, documentText)
	if err != nil {
		return fmt.Sprintf("Error: %s", err.Error()), false
	}
	return answer, true
}
