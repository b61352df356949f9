package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	. "github.com/modelmux/modelmux/internal/logging"
)

// responsesClient speaks the /v1/responses endpoint directly. The chat
// completions SDK does not cover it, and the models routed here reject
// the chat endpoint outright.
type responsesClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func newResponsesClient(apiKey, baseURL string) *responsesClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	} else {
		baseURL = normalizeOpenAIBaseURL(baseURL)
	}
	return &responsesClient{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		// Deep reasoning calls run long; the context still cuts them off
		// earlier when the caller wants to.
		http: &http.Client{Timeout: 30 * time.Minute},
	}
}

type responsesRequest struct {
	Model           string              `json:"model"`
	Input           []responsesMessage  `json:"input"`
	Instructions    string              `json:"instructions,omitempty"`
	MaxOutputTokens int                 `json:"max_output_tokens,omitempty"`
	Reasoning       *responsesReasoning `json:"reasoning,omitempty"`
}

type responsesMessage struct {
	Role    string             `json:"role"`
	Content []responsesContent `json:"content"`
}

type responsesContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type responsesReasoning struct {
	Effort string `json:"effort"`
}

type responsesResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (c *responsesClient) generate(ctx context.Context, caps *ModelCapabilities, req GenerateRequest) (*ModelResponse, error) {
	body := responsesRequest{
		Model: caps.Name,
		Input: []responsesMessage{{
			Role:    "user",
			Content: []responsesContent{{Type: "input_text", Text: req.Prompt}},
		}},
		Instructions:    req.SystemPrompt,
		MaxOutputTokens: req.MaxOutputTokens,
	}
	if effort := reasoningEffortFromFraction(req.ThinkingMode); effort != "" {
		body.Reasoning = &responsesReasoning{Effort: effort}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal responses request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build responses request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	L_debug("openai: responses endpoint call", "model", caps.Name, "payloadBytes", len(payload))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &UpstreamError{Provider: KindOpenAI, Model: caps.Name, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, &UpstreamError{Provider: KindOpenAI, Model: caps.Name, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{
			Provider:   KindOpenAI,
			Model:      caps.Name,
			StatusCode: resp.StatusCode,
			Body:       string(raw),
			Err:        fmt.Errorf("responses endpoint returned %d", resp.StatusCode),
		}
	}

	var parsed responsesResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &UpstreamError{Provider: KindOpenAI, Model: caps.Name, Err: fmt.Errorf("decode responses body: %w", err)}
	}
	if parsed.Error != nil {
		return nil, &UpstreamError{
			Provider: KindOpenAI,
			Model:    caps.Name,
			Body:     parsed.Error.Message,
			Err:      fmt.Errorf("responses endpoint error: %s", parsed.Error.Message),
		}
	}

	var sb strings.Builder
	for _, item := range parsed.Output {
		if item.Type != "message" {
			continue
		}
		for _, content := range item.Content {
			if content.Type == "output_text" {
				sb.WriteString(content.Text)
			}
		}
	}

	return &ModelResponse{
		Content: sb.String(),
		Usage: Usage{
			InputTokens:  parsed.Usage.InputTokens,
			OutputTokens: parsed.Usage.OutputTokens,
			TotalTokens:  parsed.Usage.TotalTokens,
		},
		ModelName:    caps.Name,
		FriendlyName: caps.FriendlyName,
		Provider:     KindOpenAI,
		Metadata:     map[string]any{"endpoint": "responses", "response_id": parsed.ID},
	}, nil
}
