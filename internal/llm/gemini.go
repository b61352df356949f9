package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	. "github.com/modelmux/modelmux/internal/logging"
)

// geminiModels are the natively supported Gemini models.
func geminiModels() []ModelCapabilities {
	return []ModelCapabilities{
		{
			Provider:                 KindGemini,
			Name:                     "gemini-2.5-pro",
			FriendlyName:             "Gemini 2.5 Pro",
			Aliases:                  []string{"pro", "gemini-pro", "gemini pro"},
			ContextWindow:            1048576,
			MaxOutputTokens:          65536,
			SupportsSystemPrompt:     true,
			SupportsStreaming:        true,
			SupportsImages:           true,
			SupportsFunctionCalling:  true,
			SupportsTemperature:      true,
			SupportsExtendedThinking: true,
			MaxImageSizeMB:           20,
			MaxThinkingTokens:        32768,
			Temperature:              RangeTemperature{Min: 0, Max: 2, Def: 0.7},
			BalancedVariant:          true,
		},
		{
			Provider:                 KindGemini,
			Name:                     "gemini-2.5-flash",
			FriendlyName:             "Gemini 2.5 Flash",
			Aliases:                  []string{"flash", "gemini-flash"},
			ContextWindow:            1048576,
			MaxOutputTokens:          65536,
			SupportsSystemPrompt:     true,
			SupportsStreaming:        true,
			SupportsImages:           true,
			SupportsFunctionCalling:  true,
			SupportsTemperature:      true,
			SupportsExtendedThinking: true,
			MaxImageSizeMB:           20,
			MaxThinkingTokens:        24576,
			Temperature:              RangeTemperature{Min: 0, Max: 2, Def: 0.7},
			FastVariant:              true,
		},
		{
			Provider:                KindGemini,
			Name:                    "gemini-2.0-flash-lite",
			FriendlyName:            "Gemini 2.0 Flash Lite",
			Aliases:                 []string{"flashlite", "lite"},
			ContextWindow:           1048576,
			MaxOutputTokens:         8192,
			SupportsSystemPrompt:    true,
			SupportsStreaming:       true,
			SupportsImages:          true,
			SupportsFunctionCalling: true,
			SupportsTemperature:     true,
			MaxImageSizeMB:          20,
			Temperature:             RangeTemperature{Min: 0, Max: 2, Def: 0.7},
		},
	}
}

// GeminiProvider serves Google's Gemini models through the genai SDK.
type GeminiProvider struct {
	baseProvider

	apiKey  string
	baseURL string

	client   *genai.Client
	clientMu sync.Mutex
}

// NewGeminiProvider builds the provider. The SDK client is created
// lazily on first generation so that startup never touches the network.
func NewGeminiProvider(apiKey, baseURL string) (*GeminiProvider, error) {
	base, err := newBaseProvider(KindGemini, geminiModels())
	if err != nil {
		return nil, err
	}
	L_debug("gemini provider created", "baseURL", baseURL)
	return &GeminiProvider{baseProvider: base, apiKey: apiKey, baseURL: baseURL}, nil
}

func (p *GeminiProvider) getClient(ctx context.Context) (*genai.Client, error) {
	p.clientMu.Lock()
	defer p.clientMu.Unlock()
	if p.client != nil {
		return p.client, nil
	}

	cfg := &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if p.baseURL != "" {
		cfg.HTTPOptions.BaseURL = p.baseURL
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	p.client = client
	return client, nil
}

// Generate performs one completion call against the Gemini API.
func (p *GeminiProvider) Generate(ctx context.Context, req GenerateRequest) (*ModelResponse, error) {
	caps, err := p.Capabilities(req.Model)
	if err != nil {
		return nil, err
	}
	model := caps.Name

	client, err := p.getClient(ctx)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: p.buildParts(req),
	}}
	config := p.buildConfig(caps, req)

	return withRetries(ctx, KindGemini, model, func() (*ModelResponse, error) {
		resp, err := client.Models.GenerateContent(ctx, model, contents, config)
		if err != nil {
			return nil, &UpstreamError{Provider: KindGemini, Model: model, Err: err}
		}
		return p.toModelResponse(caps, resp), nil
	})
}

func (p *GeminiProvider) buildParts(req GenerateRequest) []*genai.Part {
	parts := []*genai.Part{{Text: req.Prompt}}
	for _, img := range req.Images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				Data:     img.Data,
				MIMEType: img.MimeType,
			},
		})
	}
	return parts
}

func (p *GeminiProvider) buildConfig(caps *ModelCapabilities, req GenerateRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if req.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}

	if temp, ok := p.EffectiveTemperature(caps.Name, req.Temperature); ok {
		t := float32(temp)
		config.Temperature = &t
	}

	if req.MaxOutputTokens > 0 {
		config.MaxOutputTokens = safeInt32(req.MaxOutputTokens)
	}

	if budget := p.thinkingBudget(caps.Name, req.ThinkingMode); budget > 0 {
		b := safeInt32(budget)
		config.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: &b}
	}

	if len(req.Stop) > 0 {
		config.StopSequences = req.Stop
	}

	return config
}

func (p *GeminiProvider) toModelResponse(caps *ModelCapabilities, resp *genai.GenerateContentResponse) *ModelResponse {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
	}

	var usage Usage
	if resp.UsageMetadata != nil {
		usage = Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	return &ModelResponse{
		Content:      sb.String(),
		Usage:        usage,
		ModelName:    caps.Name,
		FriendlyName: caps.FriendlyName,
		Provider:     KindGemini,
	}
}

// Close releases the SDK client.
func (p *GeminiProvider) Close() error {
	p.clientMu.Lock()
	defer p.clientMu.Unlock()
	p.client = nil
	return nil
}
