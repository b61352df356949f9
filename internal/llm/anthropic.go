package llm

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	. "github.com/modelmux/modelmux/internal/logging"
)

// anthropicModels are the natively supported Claude models.
// Based on: https://docs.anthropic.com/en/docs/about-claude/models
func anthropicModels() []ModelCapabilities {
	return []ModelCapabilities{
		{
			Provider:                 KindAnthropic,
			Name:                     "claude-opus-4-1",
			FriendlyName:             "Claude Opus 4.1",
			Aliases:                  []string{"opus", "claude-opus"},
			ContextWindow:            200000,
			MaxOutputTokens:          32000,
			SupportsSystemPrompt:     true,
			SupportsStreaming:        true,
			SupportsImages:           true,
			SupportsFunctionCalling:  true,
			SupportsTemperature:      true,
			SupportsExtendedThinking: true,
			MaxImageSizeMB:           5,
			MaxThinkingTokens:        31999,
			Temperature:              RangeTemperature{Min: 0, Max: 1, Def: 0.7},
		},
		{
			Provider:                 KindAnthropic,
			Name:                     "claude-sonnet-4-5",
			FriendlyName:             "Claude Sonnet 4.5",
			Aliases:                  []string{"sonnet", "claude-sonnet", "claude"},
			ContextWindow:            200000,
			MaxOutputTokens:          64000,
			SupportsSystemPrompt:     true,
			SupportsStreaming:        true,
			SupportsImages:           true,
			SupportsFunctionCalling:  true,
			SupportsTemperature:      true,
			SupportsExtendedThinking: true,
			MaxImageSizeMB:           5,
			MaxThinkingTokens:        63999,
			Temperature:              RangeTemperature{Min: 0, Max: 1, Def: 0.7},
			BalancedVariant:          true,
		},
		{
			Provider:                KindAnthropic,
			Name:                    "claude-haiku-3-5",
			FriendlyName:            "Claude 3.5 Haiku",
			Aliases:                 []string{"haiku", "claude-haiku"},
			ContextWindow:           200000,
			MaxOutputTokens:         8192,
			SupportsSystemPrompt:    true,
			SupportsStreaming:       true,
			SupportsImages:          true,
			SupportsFunctionCalling: true,
			SupportsTemperature:     true,
			MaxImageSizeMB:          5,
			Temperature:             RangeTemperature{Min: 0, Max: 1, Def: 0.7},
			FastVariant:             true,
		},
	}
}

// AnthropicProvider serves Claude models through the official SDK.
type AnthropicProvider struct {
	baseProvider

	client anthropic.Client
}

// NewAnthropicProvider builds the provider.
func NewAnthropicProvider(apiKey, baseURL string) (*AnthropicProvider, error) {
	base, err := newBaseProvider(KindAnthropic, anthropicModels())
	if err != nil {
		return nil, err
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	L_debug("anthropic provider created", "baseURL", baseURL)

	return &AnthropicProvider{
		baseProvider: base,
		client:       anthropic.NewClient(opts...),
	}, nil
}

// Generate performs one completion call against the Messages API.
func (p *AnthropicProvider) Generate(ctx context.Context, req GenerateRequest) (*ModelResponse, error) {
	caps, err := p.Capabilities(req.Model)
	if err != nil {
		return nil, err
	}
	model := caps.Name

	maxTokens := req.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = caps.MaxOutputTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  []anthropic.MessageParam{p.buildUserMessage(req)},
	}

	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	if budget := p.thinkingBudget(model, req.ThinkingMode); budget > 0 {
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(int64(budget))
		// The API requires max_tokens to exceed the thinking budget.
		if int64(maxTokens) <= int64(budget) {
			params.MaxTokens = int64(budget) + 1024
		}
		L_debug("anthropic: extended thinking enabled", "model", model, "budget", budget)
	} else if temp, ok := p.EffectiveTemperature(model, req.Temperature); ok {
		// Temperature and extended thinking are mutually exclusive.
		params.Temperature = anthropic.Float(temp)
	}

	if len(req.Stop) > 0 {
		params.StopSequences = req.Stop
	}

	return withRetries(ctx, KindAnthropic, model, func() (*ModelResponse, error) {
		message, err := p.client.Messages.New(ctx, params)
		if err != nil {
			// The SDK folds status and body into the error string; the
			// classifier works from message patterns.
			return nil, &UpstreamError{Provider: KindAnthropic, Model: model, Err: err}
		}
		return p.toModelResponse(caps, message), nil
	})
}

func (p *AnthropicProvider) buildUserMessage(req GenerateRequest) anthropic.MessageParam {
	blocks := []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(req.Prompt)}
	for _, img := range req.Images {
		blocks = append(blocks, anthropic.NewImageBlockBase64(img.MimeType, base64.StdEncoding.EncodeToString(img.Data)))
	}
	return anthropic.NewUserMessage(blocks...)
}

func (p *AnthropicProvider) toModelResponse(caps *ModelCapabilities, message *anthropic.Message) *ModelResponse {
	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return &ModelResponse{
		Content: sb.String(),
		Usage: Usage{
			InputTokens:  int(message.Usage.InputTokens),
			OutputTokens: int(message.Usage.OutputTokens),
			TotalTokens:  int(message.Usage.InputTokens + message.Usage.OutputTokens),
		},
		ModelName:    caps.Name,
		FriendlyName: caps.FriendlyName,
		Provider:     KindAnthropic,
	}
}

// Close releases the client.
func (p *AnthropicProvider) Close() error { return nil }
