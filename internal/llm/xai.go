package llm

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	xai "github.com/roelfdiedericks/xai-go"

	. "github.com/modelmux/modelmux/internal/logging"
)

// xaiModels are the natively supported Grok models. The xAI API manages
// sampling itself; temperature stays off the wire for every model here.
func xaiModels() []ModelCapabilities {
	return []ModelCapabilities{
		{
			Provider:                 KindXAI,
			Name:                     "grok-4",
			FriendlyName:             "Grok 4",
			Aliases:                  []string{"grok", "grok4"},
			ContextWindow:            256000,
			MaxOutputTokens:          65536,
			SupportsSystemPrompt:     true,
			SupportsStreaming:        true,
			SupportsImages:           true,
			SupportsFunctionCalling:  true,
			SupportsTemperature:      false,
			SupportsExtendedThinking: true,
			MaxImageSizeMB:           20,
			MaxThinkingTokens:        32768,
			Temperature:              FixedTemperature{Value: 1.0},
			BalancedVariant:          true,
		},
		{
			Provider:                KindXAI,
			Name:                    "grok-3-fast",
			FriendlyName:            "Grok 3 Fast",
			Aliases:                 []string{"grok3fast", "grokfast"},
			ContextWindow:           131072,
			MaxOutputTokens:         32768,
			SupportsSystemPrompt:    true,
			SupportsStreaming:       true,
			SupportsFunctionCalling: true,
			SupportsTemperature:     false,
			Temperature:             FixedTemperature{Value: 1.0},
			FastVariant:             true,
		},
	}
}

// XAIProvider serves Grok models through the xai-go SDK. The SDK is
// streaming-only; Generate drains the stream into one response.
type XAIProvider struct {
	baseProvider

	apiKey   string
	client   *xai.Client
	clientMu sync.Mutex
}

// NewXAIProvider builds the provider. The SDK client is lazy; creating
// it can fail on malformed configuration, not on network state.
func NewXAIProvider(apiKey string) (*XAIProvider, error) {
	base, err := newBaseProvider(KindXAI, xaiModels())
	if err != nil {
		return nil, err
	}
	L_debug("xai provider created")
	return &XAIProvider{baseProvider: base, apiKey: apiKey}, nil
}

func (p *XAIProvider) getClient() (*xai.Client, error) {
	p.clientMu.Lock()
	defer p.clientMu.Unlock()
	if p.client != nil {
		return p.client, nil
	}

	client, err := xai.New(xai.Config{
		APIKey: xai.NewSecureString(p.apiKey),
	})
	if err != nil {
		return nil, fmt.Errorf("create xai client: %w", err)
	}
	p.client = client
	return client, nil
}

// Generate performs one completion call, draining the chunk stream.
func (p *XAIProvider) Generate(ctx context.Context, req GenerateRequest) (*ModelResponse, error) {
	caps, err := p.Capabilities(req.Model)
	if err != nil {
		return nil, err
	}
	model := caps.Name

	client, err := p.getClient()
	if err != nil {
		return nil, err
	}

	return withRetries(ctx, KindXAI, model, func() (*ModelResponse, error) {
		chatReq := p.buildChatRequest(caps, req)
		stream, err := client.StreamChat(ctx, chatReq)
		if err != nil {
			return nil, &UpstreamError{Provider: KindXAI, Model: model, Err: err}
		}
		return p.drainStream(caps, stream)
	})
}

func (p *XAIProvider) buildChatRequest(caps *ModelCapabilities, req GenerateRequest) *xai.ChatRequest {
	maxTokens := req.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = caps.MaxOutputTokens
	}

	chatReq := xai.NewChatRequest().
		WithModel(caps.Name).
		WithMaxTokens(safeInt32(maxTokens))

	if req.SystemPrompt != "" {
		chatReq.SystemMessage(xai.SystemContent{Text: req.SystemPrompt})
	}
	chatReq.UserMessage(xai.UserContent{Text: req.Prompt})

	// Only the grok-3-mini family honors reasoning effort; other models
	// ignore it, so setting it is harmless.
	if effort := xaiEffortFromFraction(req.ThinkingMode); effort != nil {
		chatReq.WithReasoningEffort(*effort)
	}

	return chatReq
}

func xaiEffortFromFraction(fraction float64) *xai.ReasoningEffort {
	var effort xai.ReasoningEffort
	switch {
	case fraction <= 0:
		return nil
	case fraction <= 0.33:
		effort = xai.ReasoningEffortLow
	case fraction <= 0.67:
		effort = xai.ReasoningEffortMedium
	default:
		effort = xai.ReasoningEffortHigh
	}
	return &effort
}

func (p *XAIProvider) drainStream(caps *ModelCapabilities, stream *xai.ChunkStream) (*ModelResponse, error) {
	var (
		text  strings.Builder
		usage xai.Usage
	)

	for {
		chunk, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &UpstreamError{Provider: KindXAI, Model: caps.Name, Err: err}
		}
		if chunk.Delta != "" {
			text.WriteString(chunk.Delta)
		}
		usage = chunk.Usage
	}

	return &ModelResponse{
		Content: text.String(),
		Usage: Usage{
			InputTokens:  int(usage.PromptTokens),
			OutputTokens: int(usage.CompletionTokens),
			TotalTokens:  int(usage.PromptTokens + usage.CompletionTokens),
		},
		ModelName:    caps.Name,
		FriendlyName: caps.FriendlyName,
		Provider:     KindXAI,
	}, nil
}

// Close releases the client.
func (p *XAIProvider) Close() error {
	p.clientMu.Lock()
	defer p.clientMu.Unlock()
	p.client = nil
	return nil
}
