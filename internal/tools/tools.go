package tools

import (
	"context"

	"github.com/modelmux/modelmux/internal/llm"
	"github.com/modelmux/modelmux/internal/prompts"
)

// modelTool adapts a toolSpec to the Tool interface via the driver.
type modelTool struct {
	driver *Driver
	spec   *toolSpec
}

func (t *modelTool) Name() string        { return t.spec.name }
func (t *modelTool) Description() string { return t.spec.description }

func (t *modelTool) InputSchema() map[string]any {
	return baseSchema(t.driver.Registry, t.driver.AutoMode, t.spec.extraProps, t.spec.extraRequired)
}

func (t *modelTool) Execute(ctx context.Context, args map[string]any) *Envelope {
	return t.driver.Run(ctx, t.spec, args)
}

// NewChat is a general collaborative chat.
func NewChat(d *Driver) Tool {
	return &modelTool{driver: d, spec: &toolSpec{
		name:         "chat",
		description:  "General chat and collaborative thinking with full file context",
		category:     llm.FastResponse,
		defaultTemp:  0.5,
		systemPrompt: prompts.Chat,
	}}
}

// NewThinkDeep extends an existing analysis with deeper reasoning.
func NewThinkDeep(d *Driver) Tool {
	return &modelTool{driver: d, spec: &toolSpec{
		name:         "thinkdeep",
		description:  "Extended reasoning on a problem you have already analyzed once",
		category:     llm.ExtendedReasoning,
		defaultTemp:  0.7,
		systemPrompt: prompts.ThinkDeep,
	}}
}

// NewCodeReview reviews code with severity-ranked findings.
func NewCodeReview(d *Driver) Tool {
	return &modelTool{driver: d, spec: &toolSpec{
		name:         "codereview",
		description:  "Professional code review with severity-ranked findings",
		category:     llm.ExtendedReasoning,
		defaultTemp:  0.2,
		systemPrompt: prompts.CodeReview,
		lineNumbers:  true,
	}}
}

// NewDebug performs root-cause analysis from errors and logs.
func NewDebug(d *Driver) Tool {
	return &modelTool{driver: d, spec: &toolSpec{
		name:         "debug",
		description:  "Systematic root-cause analysis from errors, logs and code",
		category:     llm.ExtendedReasoning,
		defaultTemp:  0.2,
		systemPrompt: prompts.Debug,
		lineNumbers:  true,
		extraProps: map[string]any{
			"error_context": map[string]any{
				"type":        "string",
				"description": "Stack trace, logs or other error output",
			},
		},
	}}
}

// NewAnalyze explores architecture and data flow of a codebase.
func NewAnalyze(d *Driver) Tool {
	return &modelTool{driver: d, spec: &toolSpec{
		name:         "analyze",
		description:  "Architecture and data-flow analysis of the provided files",
		category:     llm.Balanced,
		defaultTemp:  0.3,
		systemPrompt: prompts.Analyze,
		lineNumbers:  true,
	}}
}

// NewRefactor plans refactorings ranked by impact and risk.
func NewRefactor(d *Driver) Tool {
	return &modelTool{driver: d, spec: &toolSpec{
		name:         "refactor",
		description:  "Refactoring plan: smells, decomposition and modernization candidates",
		category:     llm.ExtendedReasoning,
		defaultTemp:  0.2,
		systemPrompt: prompts.Refactor,
		lineNumbers:  true,
	}}
}

// NewTestGen generates tests following the style of example tests.
func NewTestGen(d *Driver) Tool {
	return &modelTool{driver: d, spec: &toolSpec{
		name:         "testgen",
		description:  "Test generation following the conventions of example test files",
		category:     llm.ExtendedReasoning,
		defaultTemp:  0.2,
		systemPrompt: prompts.TestGen,
		lineNumbers:  true,
		extraProps: map[string]any{
			"test_examples": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Absolute paths of existing tests to copy the style from",
			},
		},
		prepare: func(ctx context.Context, d *Driver, req *Request, args map[string]any) ([]string, string, *ToolError) {
			examples, terr := stringSlice(args, "test_examples")
			if terr != nil {
				return nil, "", terr
			}
			resolved, err := d.Sandbox.ResolveAll(examples)
			if err != nil {
				return nil, "", classifyError(err)
			}
			return resolved, "", nil
		},
	}}
}
