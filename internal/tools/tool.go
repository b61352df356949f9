// Package tools defines the tool surface exposed over the wire and the
// shared driver that turns a tool call into a model generation.
package tools

import (
	"context"
	"fmt"

	"github.com/modelmux/modelmux/internal/llm"
)

// Status values of the response envelope.
const (
	StatusSuccess               = "success"
	StatusError                 = "error"
	StatusResendPrompt          = "resend_prompt"
	StatusRequiresClarification = "requires_clarification"
	StatusContinuationAvailable = "continuation_available"
)

// Envelope is the single JSON object every tool returns, on success and
// on error alike.
type Envelope struct {
	Status      string         `json:"status"`
	Content     string         `json:"content"`
	ContentType string         `json:"content_type"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ErrorKind enumerates caller-visible failure categories.
type ErrorKind string

const (
	ErrInvalidRequest    ErrorKind = "InvalidRequest"
	ErrPolicyDenied      ErrorKind = "PolicyDenied"
	ErrPathSandbox       ErrorKind = "PathSandbox"
	ErrTooLarge          ErrorKind = "TooLarge"
	ErrNoModelAvailable  ErrorKind = "NoModelAvailable"
	ErrUpstreamTransient ErrorKind = "UpstreamTransient"
	ErrUpstreamFatal     ErrorKind = "UpstreamFatal"
	ErrInternal          ErrorKind = "Internal"
)

// ToolError carries a kind through the driver to the envelope.
type ToolError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *ToolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ToolError) Unwrap() error { return e.Err }

func toolErr(kind ErrorKind, format string, args ...any) *ToolError {
	return &ToolError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Tool is one callable exposed over the wire.
type Tool interface {
	Name() string
	Description() string
	// InputSchema returns the JSON schema of the tool's arguments.
	InputSchema() map[string]any
	// Execute runs the tool. It never returns a Go error: every failure
	// is an error-status envelope.
	Execute(ctx context.Context, args map[string]any) *Envelope
}

// Request is the argument set shared by all model-calling tools.
type Request struct {
	Prompt         string
	Model          string
	ContinuationID string
	Files          []string
	UseWebsearch   bool
	ThinkingMode   string
	Temperature    *float64
}

// parseRequest pulls the common arguments out of the raw map.
func parseRequest(args map[string]any) (*Request, *ToolError) {
	req := &Request{}
	var ok bool
	if req.Prompt, ok = args["prompt"].(string); !ok || req.Prompt == "" {
		return nil, toolErr(ErrInvalidRequest, "prompt is required")
	}
	req.Model, _ = args["model"].(string)
	req.ContinuationID, _ = args["continuation_id"].(string)
	req.ThinkingMode, _ = args["thinking_mode"].(string)
	if v, ok := args["use_websearch"].(bool); ok {
		req.UseWebsearch = v
	}
	if v, ok := args["temperature"].(float64); ok {
		req.Temperature = &v
	}
	var terr *ToolError
	if req.Files, terr = stringSlice(args, "files"); terr != nil {
		return nil, terr
	}
	return req, nil
}

func stringSlice(args map[string]any, key string) ([]string, *ToolError) {
	raw, present := args[key]
	if !present || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, toolErr(ErrInvalidRequest, "%s must be an array of strings", key)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, toolErr(ErrInvalidRequest, "%s must be an array of strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}

// thinkingFraction maps the named thinking modes onto a fraction of the
// model's thinking-token ceiling.
func thinkingFraction(mode string) (float64, *ToolError) {
	switch mode {
	case "":
		return 0, nil
	case "minimal":
		return 0.005, nil
	case "low":
		return 0.08, nil
	case "medium":
		return 0.33, nil
	case "high":
		return 0.67, nil
	case "max":
		return 1.0, nil
	default:
		return 0, toolErr(ErrInvalidRequest, "unknown thinking_mode %q", mode)
	}
}

// baseSchema is the argument schema shared by model-calling tools.
// Tools extend it with their own properties.
func baseSchema(registry *llm.Registry, autoMode bool, extraProps map[string]any, extraRequired []string) map[string]any {
	props := map[string]any{
		"prompt": map[string]any{
			"type":        "string",
			"description": "The question or task for the model",
		},
		"model": modelSchema(registry, autoMode),
		"continuation_id": map[string]any{
			"type":        "string",
			"description": "Thread id from a previous response to continue the conversation",
		},
		"files": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Absolute paths of files or directories to include as context",
		},
		"use_websearch": map[string]any{
			"type":        "boolean",
			"description": "Allow the model to suggest web searches",
		},
		"thinking_mode": map[string]any{
			"type":        "string",
			"enum":        []string{"minimal", "low", "medium", "high", "max"},
			"description": "Extended thinking depth for models that support it",
		},
		"temperature": map[string]any{
			"type":        "number",
			"description": "Sampling temperature; clamped to the model's constraint",
		},
	}
	for k, v := range extraProps {
		props[k] = v
	}

	required := []string{"prompt"}
	if autoMode {
		// In auto mode the caller must pick a model per call.
		required = append(required, "model")
	}
	required = append(required, extraRequired...)

	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// modelSchema enumerates available models when the server runs in auto
// mode so callers see exactly what they may request.
func modelSchema(registry *llm.Registry, autoMode bool) map[string]any {
	schema := map[string]any{
		"type":        "string",
		"description": "Model name or alias to use",
	}
	if autoMode {
		if models := registry.AvailableModels(); len(models) > 0 {
			schema["enum"] = models
		}
	}
	return schema
}
