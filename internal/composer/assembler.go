// Package composer assembles the final prompt for a tool call: prior
// conversation, budgeted file content and the tool's prompts.
package composer

import (
	"fmt"
	"strings"

	"github.com/modelmux/modelmux/internal/conversation"
	. "github.com/modelmux/modelmux/internal/logging"
	"github.com/modelmux/modelmux/internal/tokens"
	"github.com/modelmux/modelmux/internal/workspace"
)

// contentBudgetShare of the context window goes to content; the rest is
// headroom for the model's reply and framing.
const contentBudgetShare = 0.75

// styleShare is the slice of the content budget given to style-example
// files when a request carries them.
const styleShare = 0.25

// Input describes one assembly request. File paths must already be
// sandbox-resolved.
type Input struct {
	ContinuationID string
	Files          []string
	// StyleFiles are reference files packed into their own sub-budget
	// (test generation uses them for style examples).
	StyleFiles []string
	// DiffBlob is pre-rendered diff content (precommit); it is counted
	// against the budget but never re-packed or numbered.
	DiffBlob string

	SystemPrompt string
	UserPrompt   string

	ContextWindow int
	LineNumbers   bool
}

// Output is the assembled prompt plus bookkeeping for the turn record.
type Output struct {
	Prompt        string
	EmbeddedFiles []string
	SkippedFiles  []string
	Thread        *conversation.Thread
}

// Assembler builds prompts against a conversation store.
type Assembler struct {
	store *conversation.Store
}

// New builds an assembler.
func New(store *conversation.Store) *Assembler {
	return &Assembler{store: store}
}

// Assemble produces the provider prompt. When a continuation id is set,
// files already embedded in the thread are not read again; they still
// count as present for the caller's turn metadata.
func (a *Assembler) Assemble(in Input) (*Output, error) {
	budget := int(float64(in.ContextWindow) * contentBudgetShare)
	out := &Output{}

	var conversationSection string
	alreadyEmbedded := map[string]bool{}
	if in.ContinuationID != "" {
		thread, err := a.store.GetThread(in.ContinuationID)
		if err != nil {
			return nil, err
		}
		if thread != nil {
			out.Thread = thread
			alreadyEmbedded, err = a.store.FilesAlreadyEmbedded(in.ContinuationID)
			if err != nil {
				return nil, err
			}
			conversationSection = renderConversation(thread)
			budget -= tokens.EstimateText(conversationSection)
		}
	}

	if in.DiffBlob != "" {
		budget -= tokens.EstimateText(in.DiffBlob)
	}
	if budget < 0 {
		budget = 0
	}

	newFiles := make([]string, 0, len(in.Files))
	for _, f := range in.Files {
		if alreadyEmbedded[f] {
			L_debug("composer: file already in thread, not re-embedding", "file", f)
			continue
		}
		newFiles = append(newFiles, f)
	}

	// Files named in both slots embed once, in the style slot.
	styleSet := make(map[string]bool, len(in.StyleFiles))
	for _, f := range in.StyleFiles {
		styleSet[f] = true
	}
	codeFiles := newFiles[:0:0]
	for _, f := range newFiles {
		if !styleSet[f] {
			codeFiles = append(codeFiles, f)
		}
	}

	var styleSection, fileSection string
	if len(in.StyleFiles) > 0 {
		styleBudget := int(float64(budget) * styleShare)
		styleResult := workspace.PackFiles(in.StyleFiles, workspace.PackOptions{
			MaxTokens:   styleBudget,
			LineNumbers: in.LineNumbers,
		})
		styleSection = styleResult.Content
		out.EmbeddedFiles = append(out.EmbeddedFiles, styleResult.IncludedFiles...)
		out.SkippedFiles = append(out.SkippedFiles, styleResult.SkippedFiles...)
		budget -= styleResult.UsedTokens
	}

	if len(codeFiles) > 0 {
		fileResult := workspace.PackFiles(codeFiles, workspace.PackOptions{
			MaxTokens:   budget,
			LineNumbers: in.LineNumbers,
		})
		fileSection = fileResult.Content
		out.EmbeddedFiles = append(out.EmbeddedFiles, fileResult.IncludedFiles...)
		out.SkippedFiles = append(out.SkippedFiles, fileResult.SkippedFiles...)
	}

	var sb strings.Builder
	if in.SystemPrompt != "" {
		sb.WriteString(in.SystemPrompt)
		sb.WriteString("\n\n")
	}
	if conversationSection != "" {
		sb.WriteString(conversationSection)
		sb.WriteString("\n")
	}
	if styleSection != "" {
		sb.WriteString("=== STYLE EXAMPLES ===\n")
		sb.WriteString(styleSection)
		sb.WriteString("\n")
	}
	if fileSection != "" {
		sb.WriteString(fileSection)
		sb.WriteString("\n")
	}
	if in.DiffBlob != "" {
		sb.WriteString(in.DiffBlob)
		sb.WriteString("\n")
	}
	sb.WriteString(in.UserPrompt)

	out.Prompt = sb.String()
	return out, nil
}

// renderConversation produces the compact prior-turn section.
func renderConversation(thread *conversation.Thread) string {
	var sb strings.Builder
	sb.WriteString("=== CONVERSATION_CONTEXT ===\n")
	fmt.Fprintf(&sb, "Thread: %s (started by %s)\n", thread.ID, thread.ToolName)
	for i, turn := range thread.Turns {
		label := turn.Role
		if turn.ToolName != "" {
			label += "/" + turn.ToolName
		}
		if turn.ModelName != "" {
			label += " (" + turn.ModelName + ")"
		}
		fmt.Fprintf(&sb, "[%d] %s: %s\n", i+1, label, truncate(turn.Content, 2000))
	}
	sb.WriteString("=== END CONVERSATION_CONTEXT ===\n")
	return sb.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
