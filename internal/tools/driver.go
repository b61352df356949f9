package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelmux/modelmux/internal/composer"
	"github.com/modelmux/modelmux/internal/conversation"
	"github.com/modelmux/modelmux/internal/llm"
	. "github.com/modelmux/modelmux/internal/logging"
	"github.com/modelmux/modelmux/internal/workspace"
)

// maxPromptChars is the early size gate. Oversized prompts come back as
// resend_prompt so the caller can move the text into a file instead.
const maxPromptChars = 60000

// Driver holds the shared collaborators of every model-calling tool.
type Driver struct {
	Registry  *llm.Registry
	Store     *conversation.Store
	Sandbox   *workspace.Sandbox
	Assembler *composer.Assembler

	DefaultModel string
	AutoMode     bool
}

// toolSpec is the static description of one model-calling tool.
type toolSpec struct {
	name         string
	description  string
	category     llm.ToolCategory
	defaultTemp  float64
	systemPrompt string
	lineNumbers  bool

	// prepare, when set, runs after path resolution and contributes
	// style files and/or a diff blob to the assembly.
	prepare func(ctx context.Context, d *Driver, req *Request, args map[string]any) (styleFiles []string, diffBlob string, terr *ToolError)

	extraProps    map[string]any
	extraRequired []string
}

// Run executes the full tool pipeline and always returns an envelope.
func (d *Driver) Run(ctx context.Context, spec *toolSpec, args map[string]any) *Envelope {
	req, terr := parseRequest(args)
	if terr != nil {
		return errorEnvelope(spec.name, "", "", terr)
	}
	if req.Model == "" {
		req.Model = d.DefaultModel
	}

	if len(req.Prompt) > maxPromptChars {
		return &Envelope{
			Status:      StatusResendPrompt,
			Content:     fmt.Sprintf("prompt is %d characters; the limit is %d. Move the text into a file and pass it via files.", len(req.Prompt), maxPromptChars),
			ContentType: "text",
			Metadata:    metadata(spec.name, req.Model, ""),
		}
	}

	provider, canonical, terr := d.resolveModel(req.Model, spec.category)
	if terr != nil {
		return errorEnvelope(spec.name, req.Model, "", terr)
	}
	providerKind := string(provider.Kind())

	caps, err := provider.Capabilities(canonical)
	if err != nil {
		return errorEnvelope(spec.name, req.Model, providerKind, classifyError(err))
	}

	temperature := spec.defaultTemp
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	if temp, ok := provider.EffectiveTemperature(canonical, temperature); ok {
		temperature = temp
	}

	fraction, terr := thinkingFraction(req.ThinkingMode)
	if terr != nil {
		return errorEnvelope(spec.name, req.Model, providerKind, terr)
	}

	resolvedFiles, err := d.Sandbox.ResolveAll(req.Files)
	if err != nil {
		return errorEnvelope(spec.name, req.Model, providerKind, classifyError(err))
	}

	var styleFiles []string
	var diffBlob string
	if spec.prepare != nil {
		styleFiles, diffBlob, terr = spec.prepare(ctx, d, req, args)
		if terr != nil {
			return errorEnvelope(spec.name, req.Model, providerKind, terr)
		}
	}

	assembled, err := d.Assembler.Assemble(composer.Input{
		ContinuationID: req.ContinuationID,
		Files:          resolvedFiles,
		StyleFiles:     styleFiles,
		DiffBlob:       diffBlob,
		SystemPrompt:   spec.systemPrompt,
		UserPrompt:     req.Prompt,
		ContextWindow:  caps.ContextWindow,
		LineNumbers:    spec.lineNumbers,
	})
	if err != nil {
		return errorEnvelope(spec.name, req.Model, providerKind, classifyError(err))
	}

	L_info("tool call",
		"tool", spec.name,
		"model", canonical,
		"provider", providerKind,
		"files", len(resolvedFiles),
		"continuation", req.ContinuationID != "")

	resp, err := provider.Generate(ctx, llm.GenerateRequest{
		Model:        canonical,
		Prompt:       assembled.Prompt,
		SystemPrompt: "",
		Temperature:  temperature,
		ThinkingMode: fraction,
	})
	if err != nil {
		return errorEnvelope(spec.name, req.Model, providerKind, classifyError(err))
	}

	threadID, recErr := d.recordTurns(spec.name, req, resolvedFiles, resp)
	if recErr != nil {
		L_warn("tool: turn recording failed", "tool", spec.name, "error", recErr)
	}

	status := StatusSuccess
	meta := metadata(spec.name, req.Model, providerKind)
	if threadID != "" {
		status = StatusContinuationAvailable
		meta["continuation_id"] = threadID
	}

	return &Envelope{
		Status:      status,
		Content:     resp.Content,
		ContentType: "text",
		Metadata:    meta,
	}
}

// resolveModel picks the provider and canonical model name. Concrete
// names route through the registry's priority walk; auto mode asks for
// the category fallback.
func (d *Driver) resolveModel(requested string, category llm.ToolCategory) (llm.Provider, string, *ToolError) {
	name := strings.TrimSpace(requested)
	if name == "" {
		name = d.DefaultModel
	}
	if strings.EqualFold(name, "auto") {
		fallback := d.Registry.PreferredFallback(category)
		if fallback == "" {
			return nil, "", d.noModelErr(fmt.Sprintf("no model available for category %s", category))
		}
		name = fallback
	}

	provider, canonical := d.Registry.ProviderForModel(name)
	if provider == nil {
		return nil, "", d.noModelErr(fmt.Sprintf("no configured provider serves model %q", name))
	}
	return provider, canonical, nil
}

// noModelErr appends every usable model name so the caller can pick one.
func (d *Driver) noModelErr(msg string) *ToolError {
	if models := d.Registry.AvailableModels(); len(models) > 0 {
		return toolErr(ErrNoModelAvailable, "%s; available models: %s", msg, strings.Join(models, ", "))
	}
	return toolErr(ErrNoModelAvailable, "%s: configure a provider", msg)
}

// recordTurns persists the exchange. The user turn carries a summary of
// the request plus every requested file, embedded or deduplicated, so a
// later call sees them as present.
func (d *Driver) recordTurns(toolName string, req *Request, files []string, resp *llm.ModelResponse) (string, error) {
	initial := conversation.InitialContext{Prompt: summarize(req.Prompt), Files: req.Files}

	threadID := req.ContinuationID
	if threadID == "" {
		id, err := d.Store.CreateThread(toolName, initial)
		if err != nil {
			return "", err
		}
		threadID = id
	} else if thread, err := d.Store.GetThread(threadID); err != nil || thread == nil {
		if err != nil {
			return "", err
		}
		// Expired or unknown id: open a fresh thread rather than fail.
		id, err := d.Store.CreateThread(toolName, initial)
		if err != nil {
			return "", err
		}
		threadID = id
	}

	if err := d.Store.AddTurn(threadID, conversation.Turn{
		Role:          "user",
		Content:       summarize(req.Prompt),
		FilesEmbedded: files,
		ToolName:      toolName,
	}); err != nil {
		return threadID, err
	}
	if err := d.Store.AddTurn(threadID, conversation.Turn{
		Role:      "assistant",
		Content:   resp.Content,
		ToolName:  toolName,
		ModelName: resp.ModelName,
		Provider:  string(resp.Provider),
	}); err != nil {
		return threadID, err
	}
	return threadID, nil
}

func summarize(prompt string) string {
	const max = 500
	if len(prompt) <= max {
		return prompt
	}
	return prompt[:max] + "..."
}

// metadata builds the envelope metadata. model_used is the caller's
// original token, not the resolved canonical.
func metadata(toolName, modelUsed, providerUsed string) map[string]any {
	meta := map[string]any{"tool_name": toolName}
	if modelUsed != "" {
		meta["model_used"] = modelUsed
	}
	if providerUsed != "" {
		meta["provider_used"] = providerUsed
	}
	return meta
}

func errorEnvelope(toolName, modelUsed, providerUsed string, terr *ToolError) *Envelope {
	return &Envelope{
		Status:      StatusError,
		Content:     terr.Error(),
		ContentType: "text",
		Metadata: func() map[string]any {
			meta := metadata(toolName, modelUsed, providerUsed)
			meta["error_kind"] = string(terr.Kind)
			return meta
		}(),
	}
}

// classifyError maps lower-layer failures to caller-visible kinds.
func classifyError(err error) *ToolError {
	var terr *ToolError
	if errors.As(err, &terr) {
		return terr
	}

	var sandboxErr *workspace.SandboxError
	if errors.As(err, &sandboxErr) {
		return &ToolError{Kind: ErrPathSandbox, Msg: sandboxErr.Error(), Err: err}
	}

	var restricted llm.ErrModelRestricted
	if errors.As(err, &restricted) {
		return &ToolError{Kind: ErrPolicyDenied, Msg: restricted.Error(), Err: err}
	}
	var unsupported llm.ErrModelNotSupported
	if errors.As(err, &unsupported) {
		return &ToolError{Kind: ErrNoModelAvailable, Msg: unsupported.Error(), Err: err}
	}

	var upstream *llm.UpstreamError
	if errors.As(err, &upstream) {
		if upstream.Class() == llm.FailureFatal {
			return &ToolError{Kind: ErrUpstreamFatal, Msg: upstream.Error(), Err: err}
		}
		return &ToolError{Kind: ErrUpstreamTransient, Msg: upstream.Error() + " (retries exhausted; try again later)", Err: err}
	}

	return &ToolError{Kind: ErrInternal, Msg: err.Error(), Err: err}
}
