package llm

import (
	"context"
	"fmt"
)

// ClientConfig is the subset of config.LLMClientConfig the factory needs,
// mirrored here to avoid an import cycle (internal/config imports nothing
// from internal/llm, but keeping the factory decoupled from the concrete
// config struct keeps this package importable standalone).
type ClientConfig struct {
	Provider string

	AnthropicAPIKey, AnthropicModel, AnthropicBaseURL string
	OpenAIAPIKey, OpenAIModel, OpenAIBaseURL          string
	GoogleAPIKey, GoogleModel, GoogleBaseURL          string
}

// Build constructs the configured Provider, matching the teacher's
// internal/llm/providers.Build factory.
func Build(ctx context.Context, cfg ClientConfig) (Provider, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AnthropicBaseURL), nil
	case "openai":
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil
	case "google":
		return NewGoogleProvider(ctx, cfg.GoogleAPIKey, cfg.GoogleModel, cfg.GoogleBaseURL)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
