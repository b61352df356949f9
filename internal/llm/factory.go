package llm

import (
	"fmt"

	"github.com/modelmux/modelmux/internal/config"
	. "github.com/modelmux/modelmux/internal/logging"
)

// BuildRegistry constructs providers for every configured back-end and
// registers them. Configuration errors (bad registry file, duplicate
// aliases) abort startup; a provider with no credentials is simply not
// registered.
func BuildRegistry(cfg *config.Config) (*Registry, error) {
	SetRestrictions(NewRestrictionService(cfg))

	registryModels, err := LoadModelsFile(cfg.CustomModelsFile)
	if err != nil {
		return nil, err
	}

	r := NewRegistry()

	if cfg.GeminiAPIKey != "" {
		p, err := NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiBaseURL)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		r.Register(p)
	}
	if cfg.OpenAIAPIKey != "" {
		p, err := NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
		if err != nil {
			return nil, fmt.Errorf("openai: %w", err)
		}
		r.Register(p)
	}
	if cfg.AnthropicAPIKey != "" {
		p, err := NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL)
		if err != nil {
			return nil, fmt.Errorf("anthropic: %w", err)
		}
		r.Register(p)
	}
	if cfg.XAIAPIKey != "" {
		p, err := NewXAIProvider(cfg.XAIAPIKey)
		if err != nil {
			return nil, fmt.Errorf("xai: %w", err)
		}
		r.Register(p)
	}
	if cfg.OpenRouterAPIKey != "" {
		p, err := NewOpenRouterProvider(cfg.OpenRouterAPIKey, cfg.OpenRouterBaseURL, registryModels)
		if err != nil {
			return nil, fmt.Errorf("openrouter: %w", err)
		}
		r.Register(p)
	}
	if cfg.CustomAPIURL != "" {
		p, err := NewCustomProvider(cfg.CustomAPIURL, cfg.CustomAPIKey, registryModels)
		if err != nil {
			return nil, fmt.Errorf("custom: %w", err)
		}
		r.Register(p)
	}
	if cfg.AzureAPIKey != "" && cfg.AzureEndpoint != "" {
		p, err := NewAzureProvider(cfg.AzureAPIKey, cfg.AzureEndpoint, registryModels)
		if err != nil {
			return nil, fmt.Errorf("azure: %w", err)
		}
		r.Register(p)
	}

	kinds := r.AvailableProviders()
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no provider configured: set at least one API key")
	}
	L_info("providers registered", "kinds", kinds, "models", len(r.AvailableModels()))

	Restrictions().ValidateAgainstKnown(r.Providers())
	return r, nil
}
