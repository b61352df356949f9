package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelmux/modelmux/internal/gitdiff"
	"github.com/modelmux/modelmux/internal/llm"
	. "github.com/modelmux/modelmux/internal/logging"
	"github.com/modelmux/modelmux/internal/prompts"
)

// NewPrecommit reviews pending changes across every repository under a
// path before they are committed.
func NewPrecommit(d *Driver) Tool {
	return &modelTool{driver: d, spec: &toolSpec{
		name:         "precommit",
		description:  "Validate pending git changes across repositories before committing",
		category:     llm.ExtendedReasoning,
		defaultTemp:  0.2,
		systemPrompt: prompts.Precommit,
		extraProps: map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Absolute path to search for repositories (max depth 5)",
			},
			"compare_to": map[string]any{
				"type":        "string",
				"description": "Git ref to diff against instead of the index",
			},
			"include_staged": map[string]any{
				"type":        "boolean",
				"description": "Include staged changes (default true)",
			},
			"include_unstaged": map[string]any{
				"type":        "boolean",
				"description": "Include unstaged changes (default true)",
			},
		},
		extraRequired: []string{"path"},
		prepare:       preparePrecommit,
	}}
}

func preparePrecommit(ctx context.Context, d *Driver, req *Request, args map[string]any) ([]string, string, *ToolError) {
	rawPath, _ := args["path"].(string)
	if rawPath == "" {
		return nil, "", toolErr(ErrInvalidRequest, "path is required")
	}
	root, err := d.Sandbox.Resolve(rawPath)
	if err != nil {
		return nil, "", classifyError(err)
	}

	opts := gitdiff.Options{IncludeStaged: true, IncludeUnstaged: true}
	if v, ok := args["include_staged"].(bool); ok {
		opts.IncludeStaged = v
	}
	if v, ok := args["include_unstaged"].(bool); ok {
		opts.IncludeUnstaged = v
	}
	if ref, ok := args["compare_to"].(string); ok && ref != "" {
		opts.CompareTo = ref
		opts.IncludeStaged = false
		opts.IncludeUnstaged = false
	}

	repos := gitdiff.FindRepositories(root, 0)
	if len(repos) == 0 {
		return nil, "", toolErr(ErrInvalidRequest, "no git repositories found under %s", root)
	}

	// The window drives the diff budget; resolve it from the model the
	// driver is about to use.
	window := 131072
	if provider, canonical, terr := d.resolveModel(req.Model, llm.ExtendedReasoning); terr == nil {
		if caps, err := provider.Capabilities(canonical); err == nil {
			window = caps.ContextWindow
		}
	}

	var sb strings.Builder
	var allDiffs []gitdiff.FileDiff
	for _, repo := range repos {
		result, err := gitdiff.Extract(ctx, repo, opts)
		if err != nil {
			L_warn("precommit: repository skipped", "repo", repo, "error", err)
			fmt.Fprintf(&sb, "Repository %s: error: %v\n", repo, err)
			continue
		}
		sb.WriteString(result.Status.Summary())
		for _, e := range result.Errors {
			fmt.Fprintf(&sb, "  warning: %s\n", e)
		}
		allDiffs = append(allDiffs, result.Diffs...)
	}

	packed, omitted := gitdiff.PackDiffs(allDiffs, window)
	if omitted > 0 {
		L_info("precommit: diffs omitted for budget", "omitted", omitted, "window", window)
	}
	return nil, sb.String() + packed, nil
}
