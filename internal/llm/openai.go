package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	. "github.com/modelmux/modelmux/internal/logging"
)

// openaiModels are the natively supported OpenAI models. The o-family
// reasoning models reject temperature; requests to them must not carry
// the field at all.
func openaiModels() []ModelCapabilities {
	return []ModelCapabilities{
		{
			Provider:                 KindOpenAI,
			Name:                     "o3",
			FriendlyName:             "OpenAI o3",
			ContextWindow:            200000,
			MaxOutputTokens:          100000,
			SupportsSystemPrompt:     true,
			SupportsStreaming:        true,
			SupportsImages:           true,
			SupportsFunctionCalling:  true,
			SupportsTemperature:      false,
			SupportsExtendedThinking: true,
			MaxImageSizeMB:           20,
			MaxThinkingTokens:        65536,
			Temperature:              FixedTemperature{Value: 1.0},
			BalancedVariant:          true,
		},
		{
			Provider:                 KindOpenAI,
			Name:                     "o3-mini",
			FriendlyName:             "OpenAI o3-mini",
			Aliases:                  []string{"o3mini"},
			ContextWindow:            200000,
			MaxOutputTokens:          65536,
			SupportsSystemPrompt:     true,
			SupportsStreaming:        true,
			SupportsFunctionCalling:  true,
			SupportsTemperature:      false,
			SupportsExtendedThinking: true,
			MaxThinkingTokens:        65536,
			Temperature:              FixedTemperature{Value: 1.0},
			FastVariant:              true,
		},
		{
			Provider:                 KindOpenAI,
			Name:                     "o4-mini",
			FriendlyName:             "OpenAI o4-mini",
			Aliases:                  []string{"mini", "o4mini"},
			ContextWindow:            200000,
			MaxOutputTokens:          65536,
			SupportsSystemPrompt:     true,
			SupportsStreaming:        true,
			SupportsImages:           true,
			SupportsFunctionCalling:  true,
			SupportsTemperature:      false,
			SupportsExtendedThinking: true,
			MaxImageSizeMB:           20,
			MaxThinkingTokens:        65536,
			Temperature:              FixedTemperature{Value: 1.0},
		},
		{
			Provider:                 KindOpenAI,
			Name:                     "o3-pro",
			FriendlyName:             "OpenAI o3-pro",
			Aliases:                  []string{"o3pro"},
			ContextWindow:            200000,
			MaxOutputTokens:          100000,
			SupportsSystemPrompt:     true,
			SupportsFunctionCalling:  true,
			SupportsTemperature:      false,
			SupportsExtendedThinking: true,
			MaxThinkingTokens:        65536,
			Temperature:              FixedTemperature{Value: 1.0},
		},
		{
			Provider:                KindOpenAI,
			Name:                    "gpt-4.1",
			FriendlyName:            "GPT-4.1",
			Aliases:                 []string{"gpt4.1", "gpt-4.1-2025-04-14"},
			ContextWindow:           1047576,
			MaxOutputTokens:         32768,
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

// responsesEndpointModels require the /v1/responses API; the chat
// completions endpoint rejects them.
var responsesEndpointModels = map[string]bool{
	"o3-pro": true,
}

// OpenAIProvider serves OpenAI models through the chat completions API,
// routing responses-only models to the dedicated endpoint.
type OpenAIProvider struct {
	baseProvider

	apiKey  string
	baseURL string
	client  *openai.Client

	responses *responsesClient
}

// NewOpenAIProvider builds the provider with an eager SDK client; the
// go-openai client performs no I/O until the first call.
func NewOpenAIProvider(apiKey, baseURL string) (*OpenAIProvider, error) {
	base, err := newBaseProvider(KindOpenAI, openaiModels())
	if err != nil {
		return nil, err
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = normalizeOpenAIBaseURL(baseURL)
	}
	L_debug("openai provider created", "baseURL", cfg.BaseURL)

	return &OpenAIProvider{
		baseProvider: base,
		apiKey:       apiKey,
		baseURL:      cfg.BaseURL,
		client:       openai.NewClientWithConfig(cfg),
		responses:    newResponsesClient(apiKey, baseURL),
	}, nil
}

// normalizeOpenAIBaseURL makes sure OpenAI-compatible URLs end in /v1.
func normalizeOpenAIBaseURL(baseURL string) string {
	if !strings.HasSuffix(baseURL, "/v1") && !strings.HasSuffix(baseURL, "/v1/") {
		return strings.TrimSuffix(baseURL, "/") + "/v1"
	}
	return baseURL
}

// Generate performs one completion call.
func (p *OpenAIProvider) Generate(ctx context.Context, req GenerateRequest) (*ModelResponse, error) {
	caps, err := p.Capabilities(req.Model)
	if err != nil {
		return nil, err
	}
	model := caps.Name

	if responsesEndpointModels[strings.ToLower(model)] {
		return withRetries(ctx, KindOpenAI, model, func() (*ModelResponse, error) {
			return p.responses.generate(ctx, caps, req)
		})
	}

	chatReq := p.buildChatRequest(caps, req)
	return withRetries(ctx, KindOpenAI, model, func() (*ModelResponse, error) {
		resp, err := p.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			return nil, upstreamFromOpenAIError(KindOpenAI, model, err)
		}
		return chatResponseToModelResponse(KindOpenAI, caps, &resp), nil
	})
}

// buildChatRequest maps a GenerateRequest onto the chat completions
// shape. Zero-valued fields stay off the wire via omitempty, which is
// what keeps temperature away from the o-family.
func (p *OpenAIProvider) buildChatRequest(caps *ModelCapabilities, req GenerateRequest) openai.ChatCompletionRequest {
	chatReq := openai.ChatCompletionRequest{
		Model:    caps.Name,
		Messages: buildOpenAIMessages(req),
		Seed:     req.Seed,
		Stop:     req.Stop,
	}

	if temp, ok := p.EffectiveTemperature(caps.Name, req.Temperature); ok {
		chatReq.Temperature = float32(temp)
		if req.MaxOutputTokens > 0 {
			chatReq.MaxTokens = req.MaxOutputTokens
		}
	}
	// Models that manage their own sampling get neither temperature nor
	// an output cap; only seed and stop pass through.

	if caps.SupportsExtendedThinking {
		if effort := reasoningEffortFromFraction(req.ThinkingMode); effort != "" {
			chatReq.ReasoningEffort = effort
		}
	}

	return chatReq
}

// reasoningEffortFromFraction buckets the thinking fraction into the
// three effort levels the API accepts. Zero means let the model decide.
func reasoningEffortFromFraction(fraction float64) string {
	switch {
	case fraction <= 0:
		return ""
	case fraction <= 0.33:
		return "low"
	case fraction <= 0.67:
		return "medium"
	default:
		return "high"
	}
}

// baseChatRequest builds the wire shape shared by the OpenAI-compatible
// providers (aggregator, local, azure). Temperature and the output cap
// travel together: a model whose constraint disables temperature gets
// neither, only seed and stop pass through.
func baseChatRequest(model string, req GenerateRequest, effectiveTemp func(string, float64) (float64, bool)) openai.ChatCompletionRequest {
	chatReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: buildOpenAIMessages(req),
		Seed:     req.Seed,
		Stop:     req.Stop,
	}
	if temp, ok := effectiveTemp(model, req.Temperature); ok {
		chatReq.Temperature = float32(temp)
		if req.MaxOutputTokens > 0 {
			chatReq.MaxTokens = req.MaxOutputTokens
		}
	}
	return chatReq
}

func buildOpenAIMessages(req GenerateRequest) []openai.ChatCompletionMessage {
	var messages []openai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}

	if len(req.Images) == 0 {
		return append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: req.Prompt,
		})
	}

	parts := []openai.ChatMessagePart{{
		Type: openai.ChatMessagePartTypeText,
		Text: req.Prompt,
	}}
	for _, img := range req.Images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    fmt.Sprintf("data:%s;base64,%s", img.MimeType, base64.StdEncoding.EncodeToString(img.Data)),
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}
	return append(messages, openai.ChatCompletionMessage{
		Role:         openai.ChatMessageRoleUser,
		MultiContent: parts,
	})
}

func chatResponseToModelResponse(kind ProviderKind, caps *ModelCapabilities, resp *openai.ChatCompletionResponse) *ModelResponse {
	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}
	return &ModelResponse{
		Content: content,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
		ModelName:    caps.Name,
		FriendlyName: caps.FriendlyName,
		Provider:     kind,
	}
}

// upstreamFromOpenAIError extracts status and body detail from go-openai
// error types so the retry loop can classify the failure.
func upstreamFromOpenAIError(kind ProviderKind, model string, err error) *UpstreamError {
	ue := &UpstreamError{Provider: kind, Model: model, Err: err}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		ue.StatusCode = apiErr.HTTPStatusCode
		ue.Body = apiErr.Message
		return ue
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		ue.StatusCode = reqErr.HTTPStatusCode
		ue.Body = string(reqErr.Body)
	}
	return ue
}

// Close releases the client.
func (p *OpenAIProvider) Close() error {
	p.client = nil
	return nil
}
