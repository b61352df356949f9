package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelmux/modelmux/internal/llm"
)

// ListModels reports the configured providers and their usable models.
// It never calls a model.
type ListModels struct {
	registry *llm.Registry
}

// NewListModels builds the tool.
func NewListModels(registry *llm.Registry) *ListModels {
	return &ListModels{registry: registry}
}

func (t *ListModels) Name() string { return "listmodels" }

func (t *ListModels) Description() string {
	return "List configured providers and the models currently available through them"
}

func (t *ListModels) InputSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t *ListModels) Execute(ctx context.Context, args map[string]any) *Envelope {
	var sb strings.Builder
	sb.WriteString("# Available Models\n\n")

	for _, kind := range t.registry.AvailableProviders() {
		provider := t.registry.ProviderFor(kind)
		if provider == nil {
			continue
		}
		fmt.Fprintf(&sb, "## %s\n", kind)
		names := provider.ListModels(true)
		if len(names) == 0 {
			sb.WriteString("(all models denied by restriction policy)\n\n")
			continue
		}
		for _, name := range names {
			caps, err := provider.Capabilities(name)
			if err != nil {
				continue
			}
			fmt.Fprintf(&sb, "- %s", name)
			if len(caps.Aliases) > 0 {
				fmt.Fprintf(&sb, " (aliases: %s)", strings.Join(caps.Aliases, ", "))
			}
			fmt.Fprintf(&sb, ": window %d, max output %d", caps.ContextWindow, caps.MaxOutputTokens)
			if caps.SupportsExtendedThinking {
				sb.WriteString(", extended thinking")
			}
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}

	return &Envelope{
		Status:      StatusSuccess,
		Content:     sb.String(),
		ContentType: "markdown",
		Metadata:    metadata("listmodels", "", ""),
	}
}
