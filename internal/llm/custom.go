package llm

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	. "github.com/modelmux/modelmux/internal/logging"
)

// localModelMarkers identify names that declare themselves locally
// hosted. A name containing one is claimed even when it carries a
// vendor prefix.
var localModelMarkers = []string{
	"local", "ollama", "vllm", "lmstudio",
}

// cloudModelPrefixes are names the local endpoint must never claim, so
// that registry priority falls through to the real provider instead of
// sending a cloud model to localhost.
var cloudModelPrefixes = []string{
	"gpt-", "o3", "o4", "gemini", "claude", "grok",
}

// CustomProvider serves models on a user-run OpenAI-compatible endpoint
// (ollama, vllm, lmstudio). Registry entries flagged is_custom get full
// capability records; names carrying a local marker get generic ones.
type CustomProvider struct {
	baseProvider

	client *openai.Client
}

// NewCustomProvider builds the provider. apiURL is required; the key is
// optional because most local servers ignore auth.
func NewCustomProvider(apiURL, apiKey string, registryModels []ModelCapabilities) (*CustomProvider, error) {
	models := make([]ModelCapabilities, 0, len(registryModels))
	for _, m := range registryModels {
		if m.Provider != KindCustom {
			continue
		}
		models = append(models, m)
	}

	base, err := newBaseProvider(KindCustom, models)
	if err != nil {
		return nil, err
	}

	if apiKey == "" {
		apiKey = "not-needed" // local servers accept any value
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = normalizeOpenAIBaseURL(apiURL)
	L_debug("custom provider created", "baseURL", cfg.BaseURL, "registryModels", len(models))

	return &CustomProvider{
		baseProvider: base,
		client:       openai.NewClientWithConfig(cfg),
	}, nil
}

// stripTag removes an ollama-style ":tag" suffix for marker matching.
// The wire call keeps the tag; only recognition ignores it.
func stripTag(name string) string {
	if i := strings.LastIndex(name, ":"); i > 0 {
		return name[:i]
	}
	return name
}

func looksLocal(name string) bool {
	base := strings.ToLower(stripTag(strings.TrimSpace(name)))
	if base == "" {
		return false
	}
	for _, prefix := range cloudModelPrefixes {
		if strings.HasPrefix(base, prefix) {
			return false
		}
	}
	for _, marker := range localModelMarkers {
		if strings.Contains(base, marker) {
			return true
		}
	}
	// Vendor-prefixed names without a local marker belong to the
	// aggregator, everything else is assumed to be served locally.
	return !strings.Contains(base, "/")
}

// Validate claims registry models and local-looking names, and refuses
// cloud model names outright.
func (p *CustomProvider) Validate(nameOrAlias string) bool {
	if _, ok := p.table.lookup(nameOrAlias); ok {
		return true
	}
	return looksLocal(nameOrAlias)
}

// Capabilities returns the registry record when one exists, otherwise a
// generic record for local-looking names.
func (p *CustomProvider) Capabilities(nameOrAlias string) (*ModelCapabilities, error) {
	if caps, ok := p.table.lookup(nameOrAlias); ok {
		if !Restrictions().IsAllowed(KindCustom, caps.Name, nameOrAlias) {
			return nil, ErrModelRestricted{Provider: KindCustom, Model: nameOrAlias}
		}
		return caps, nil
	}
	if !looksLocal(nameOrAlias) {
		return nil, ErrModelNotSupported{Provider: KindCustom, Model: nameOrAlias}
	}
	if !Restrictions().IsAllowed(KindCustom, nameOrAlias, "") {
		return nil, ErrModelRestricted{Provider: KindCustom, Model: nameOrAlias}
	}
	caps := genericCapabilities(KindCustom, nameOrAlias)
	caps.IsCustom = true
	return caps, nil
}

// Generate performs one completion call against the local endpoint.
func (p *CustomProvider) Generate(ctx context.Context, req GenerateRequest) (*ModelResponse, error) {
	caps, err := p.Capabilities(req.Model)
	if err != nil {
		return nil, err
	}
	model := caps.Name

	chatReq := baseChatRequest(model, req, p.EffectiveTemperature)

	return withRetries(ctx, KindCustom, model, func() (*ModelResponse, error) {
		resp, err := p.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			return nil, upstreamFromOpenAIError(KindCustom, model, err)
		}
		return chatResponseToModelResponse(KindCustom, caps, &resp), nil
	})
}

// EffectiveTemperature extends the table-backed version to generic
// local models.
func (p *CustomProvider) EffectiveTemperature(nameOrAlias string, requested float64) (float64, bool) {
	if _, ok := p.table.lookup(nameOrAlias); ok {
		return p.baseProvider.EffectiveTemperature(nameOrAlias, requested)
	}
	caps := genericCapabilities(KindCustom, nameOrAlias)
	if caps.Temperature.Validate(requested) {
		return requested, true
	}
	return caps.Temperature.Clamp(requested), true
}

// Close releases the client.
func (p *CustomProvider) Close() error {
	p.client = nil
	return nil
}
