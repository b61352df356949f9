package llm

import (
	"context"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	. "github.com/modelmux/modelmux/internal/logging"
)

const openRouterDefaultBaseURL = "https://openrouter.ai/api/v1"

// openRouterTransport adds the attribution headers OpenRouter uses for
// ranking and abuse control.
type openRouterTransport struct {
	base http.RoundTripper
}

func (t *openRouterTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("HTTP-Referer", "https://github.com/modelmux/modelmux")
	req.Header.Set("X-Title", "modelmux")
	return t.base.RoundTrip(req)
}

// OpenRouterProvider serves any model the aggregator carries through its
// OpenAI-compatible API. Models declared in the registry file get full
// capability records; everything else gets a conservative generic record
// so an unknown-but-valid name still works.
type OpenRouterProvider struct {
	baseProvider

	client *openai.Client
}

// NewOpenRouterProvider builds the provider. registryModels comes from
// the custom-models file and may be empty.
func NewOpenRouterProvider(apiKey, baseURL string, registryModels []ModelCapabilities) (*OpenRouterProvider, error) {
	models := make([]ModelCapabilities, 0, len(registryModels))
	for _, m := range registryModels {
		if m.Provider != KindOpenRouter {
			continue
		}
		models = append(models, m)
	}

	base, err := newBaseProvider(KindOpenRouter, models)
	if err != nil {
		return nil, err
	}

	if baseURL == "" {
		baseURL = openRouterDefaultBaseURL
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = normalizeOpenAIBaseURL(baseURL)
	cfg.HTTPClient = &http.Client{Transport: &openRouterTransport{base: http.DefaultTransport}}
	L_debug("openrouter provider created", "baseURL", cfg.BaseURL, "registryModels", len(models))

	return &OpenRouterProvider{
		baseProvider: base,
		client:       openai.NewClientWithConfig(cfg),
	}, nil
}

// Validate accepts anything shaped like a model name: the aggregator's
// catalog is far larger than any static table.
func (p *OpenRouterProvider) Validate(nameOrAlias string) bool {
	return strings.TrimSpace(nameOrAlias) != ""
}

// Capabilities returns the registry record when one exists, otherwise a
// generic record for the given name.
func (p *OpenRouterProvider) Capabilities(nameOrAlias string) (*ModelCapabilities, error) {
	if caps, ok := p.table.lookup(nameOrAlias); ok {
		if !Restrictions().IsAllowed(KindOpenRouter, caps.Name, nameOrAlias) {
			return nil, ErrModelRestricted{Provider: KindOpenRouter, Model: nameOrAlias}
		}
		return caps, nil
	}
	name := strings.TrimSpace(nameOrAlias)
	if name == "" {
		return nil, ErrModelNotSupported{Provider: KindOpenRouter, Model: nameOrAlias}
	}
	if !Restrictions().IsAllowed(KindOpenRouter, name, "") {
		return nil, ErrModelRestricted{Provider: KindOpenRouter, Model: name}
	}
	return genericCapabilities(KindOpenRouter, name), nil
}

// genericCapabilities is the conservative placeholder used when the
// aggregator accepts a model the registry does not describe. Parameter
// validation against it is advisory only.
func genericCapabilities(kind ProviderKind, name string) *ModelCapabilities {
	return &ModelCapabilities{
		Provider:             kind,
		Name:                 name,
		FriendlyName:         name,
		ContextWindow:        32768,
		SupportsSystemPrompt: true,
		SupportsStreaming:    true,
		SupportsTemperature:  true,
		Temperature:          RangeTemperature{Min: 0, Max: 2, Def: 0.7},
		IsGeneric:            true,
	}
}

// Generate performs one completion call through the aggregator.
func (p *OpenRouterProvider) Generate(ctx context.Context, req GenerateRequest) (*ModelResponse, error) {
	caps, err := p.Capabilities(req.Model)
	if err != nil {
		return nil, err
	}
	model := caps.Name

	chatReq := baseChatRequest(model, req, p.EffectiveTemperature)

	return withRetries(ctx, KindOpenRouter, model, func() (*ModelResponse, error) {
		resp, err := p.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			return nil, upstreamFromOpenAIError(KindOpenRouter, model, err)
		}
		return chatResponseToModelResponse(KindOpenRouter, caps, &resp), nil
	})
}

// EffectiveTemperature extends the table-backed version to generic
// models, which always accept a temperature.
func (p *OpenRouterProvider) EffectiveTemperature(nameOrAlias string, requested float64) (float64, bool) {
	if _, ok := p.table.lookup(nameOrAlias); ok {
		return p.baseProvider.EffectiveTemperature(nameOrAlias, requested)
	}
	caps := genericCapabilities(KindOpenRouter, nameOrAlias)
	if caps.Temperature.Validate(requested) {
		return requested, true
	}
	return caps.Temperature.Clamp(requested), true
}

// Close releases the client.
func (p *OpenRouterProvider) Close() error {
	p.client = nil
	return nil
}
