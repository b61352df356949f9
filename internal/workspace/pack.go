package workspace

import (
	"fmt"
	"os"
	"strings"

	. "github.com/modelmux/modelmux/internal/logging"
	"github.com/modelmux/modelmux/internal/tokens"
)

// MaxFileSizeBytes is the per-file ceiling; larger files become a stub
// instead of blowing the token budget on one artifact.
const MaxFileSizeBytes = 1 << 20

// maxSkippedListed caps the skipped-files footer.
const maxSkippedListed = 10

// PackOptions controls content packing.
type PackOptions struct {
	// MaxTokens is the total budget for the returned blob.
	MaxTokens int
	// Reserve is subtracted from MaxTokens before any file is read.
	Reserve int
	// LineNumbers turns on the line-number prefix. Off by default.
	LineNumbers bool
	// Extensions narrows directory expansion; nil keeps the default set.
	Extensions []string
}

// PackResult reports what went into the blob.
type PackResult struct {
	Content       string
	IncludedFiles []string
	SkippedFiles  []string
	UsedTokens    int
}

// PackFiles reads files into marker-wrapped sections until the token
// budget runs out. Paths must already be sandbox-resolved. Unreadable
// and oversize paths become stubs; nothing aborts the call.
func PackFiles(paths []string, opts PackOptions) *PackResult {
	budget := opts.MaxTokens - opts.Reserve
	if budget < 0 {
		budget = 0
	}

	files := ExpandPaths(paths, opts.Extensions)
	result := &PackResult{}
	var sb strings.Builder

	for i, path := range files {
		section, readable := renderFileSection(path, opts.LineNumbers)
		cost := tokens.EstimateText(section)
		if readable && result.UsedTokens+cost > budget {
			// The blob is the largest prefix that fits; everything from
			// here on is skipped, smaller later files included.
			result.SkippedFiles = append(result.SkippedFiles, files[i:]...)
			break
		}
		// Stubs are tiny; they always fit.
		sb.WriteString(section)
		result.UsedTokens += cost
		if readable {
			result.IncludedFiles = append(result.IncludedFiles, path)
		}
	}

	if len(result.SkippedFiles) > 0 {
		sb.WriteString(renderSkippedFooter(result.SkippedFiles))
		L_debug("workspace: packing skipped files", "count", len(result.SkippedFiles), "budget", budget)
	}

	result.Content = sb.String()
	return result
}

// renderFileSection returns the marker-wrapped section for one path and
// whether it contains real content (false for stubs).
func renderFileSection(path string, lineNumbers bool) (string, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Sprintf("\n--- FILE NOT FOUND: %s ---\n", path), false
	}
	if info.IsDir() {
		return fmt.Sprintf("\n--- NOT A FILE: %s ---\n", path), false
	}
	if info.Size() > MaxFileSizeBytes {
		return fmt.Sprintf("\n--- FILE TOO LARGE: %s ---\n", path), false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("\n--- ERROR ACCESSING FILE: %s ---\n", path), false
	}

	content := normalizeLineEndings(string(data))
	if lineNumbers {
		content = NumberLines(content)
	}

	return fmt.Sprintf("\n--- BEGIN FILE: %s ---\n%s\n--- END FILE: %s ---\n", path, content, path), true
}

func renderSkippedFooter(skipped []string) string {
	var sb strings.Builder
	sb.WriteString("\n--- SKIPPED FILES (TOKEN LIMIT) ---\n")
	for i, path := range skipped {
		if i >= maxSkippedListed {
			sb.WriteString(fmt.Sprintf("... and %d more\n", len(skipped)-maxSkippedListed))
			break
		}
		sb.WriteString(path + "\n")
	}
	return sb.String()
}

// normalizeLineEndings folds CRLF and lone CR to LF so line numbers stay
// stable across platforms.
func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// NumberLines prefixes each line with a right-aligned number, `│` and a
// space. Width is 4 up to 9,999 lines, 5 beyond.
func NumberLines(content string) string {
	lines := strings.Split(content, "\n")
	width := 4
	if len(lines) >= 10000 {
		width = 5
	}
	var sb strings.Builder
	for i, line := range lines {
		sb.WriteString(fmt.Sprintf("%*d│ %s", width, i+1, line))
		if i < len(lines)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
