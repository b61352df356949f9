package gitdiff

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	. "github.com/modelmux/modelmux/internal/logging"
	"github.com/modelmux/modelmux/internal/tokens"
)

// diffReserve is held back from the context window for prompt framing
// and the model's reply when packing diffs.
const diffReserve = 50000

// DiffMode labels where a diff came from.
type DiffMode string

const (
	ModeCompareTo DiffMode = "compare_to"
	ModeStaged    DiffMode = "staged"
	ModeUnstaged  DiffMode = "unstaged"
)

// FileDiff is one per-file unified diff.
type FileDiff struct {
	Repo string
	File string
	Mode DiffMode
	Body string
}

// Render wraps the diff in the wire markers. Diff bodies are never line
// numbered: the @@ hunk headers already carry positions and a prefix
// would corrupt them.
func (d *FileDiff) Render() string {
	rel := filepath.Base(d.Repo) + "/" + d.File
	return fmt.Sprintf("\n--- BEGIN DIFF: %s (%s) ---\n%s\n--- END DIFF: %s ---\n", rel, d.Mode, d.Body, rel)
}

// Options selects which diffs to extract.
type Options struct {
	CompareTo       string // ref to diff against; empty disables the mode
	IncludeStaged   bool
	IncludeUnstaged bool
}

// ExtractResult carries the diffs of one repository plus any non-fatal
// problems found on the way.
type ExtractResult struct {
	Status *RepoStatus
	Diffs  []FileDiff
	Errors []string
}

// Extract collects per-file diffs for one repository in the requested
// modes. An invalid compare_to ref records an error and skips that mode
// instead of failing the repository.
func Extract(ctx context.Context, repoPath string, opts Options) (*ExtractResult, error) {
	status, err := Status(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	result := &ExtractResult{Status: status}

	if opts.CompareTo != "" {
		if _, err := git(ctx, repoPath, "rev-parse", "--verify", opts.CompareTo); err != nil {
			msg := fmt.Sprintf("invalid ref %q: %v", opts.CompareTo, err)
			L_warn("gitdiff: "+msg, "repo", repoPath)
			result.Errors = append(result.Errors, msg)
		} else {
			result.Diffs = append(result.Diffs,
				extractMode(ctx, repoPath, ModeCompareTo, "diff", opts.CompareTo+"...HEAD", "--name-only")...)
		}
	}
	if opts.IncludeStaged {
		result.Diffs = append(result.Diffs,
			extractMode(ctx, repoPath, ModeStaged, "diff", "--cached", "--name-only")...)
	}
	if opts.IncludeUnstaged {
		result.Diffs = append(result.Diffs,
			extractMode(ctx, repoPath, ModeUnstaged, "diff", "--name-only")...)
	}

	return result, nil
}

// extractMode lists the changed files for one mode, then pulls each
// file's diff individually so packing can budget per file.
func extractMode(ctx context.Context, repoPath string, mode DiffMode, listArgs ...string) []FileDiff {
	out, err := git(ctx, repoPath, listArgs...)
	if err != nil {
		L_warn("gitdiff: file listing failed", "repo", repoPath, "mode", mode, "error", err)
		return nil
	}
	var diffs []FileDiff
	for _, file := range strings.Split(out, "\n") {
		if file == "" {
			continue
		}
		args := diffArgsFor(mode, listArgs, file)
		body, err := git(ctx, repoPath, args...)
		if err != nil || strings.TrimSpace(body) == "" {
			continue
		}
		diffs = append(diffs, FileDiff{Repo: repoPath, File: file, Mode: mode, Body: body})
	}
	return diffs
}

func diffArgsFor(mode DiffMode, listArgs []string, file string) []string {
	// Reuse the listing invocation minus --name-only, scoped to one file.
	args := make([]string, 0, len(listArgs)+2)
	for _, a := range listArgs {
		if a != "--name-only" {
			args = append(args, a)
		}
	}
	return append(args, "--", file)
}

// PackDiffs renders the largest prefix of diffs that fits in the model's
// window minus the reserve. The first diff that does not fit stops the
// packing; it and everything after it are summarized.
func PackDiffs(diffs []FileDiff, contextWindow int) (string, int) {
	budget := contextWindow - diffReserve
	if budget < 0 {
		budget = 0
	}

	var sb strings.Builder
	used := 0
	omitted := 0
	for i, d := range diffs {
		section := d.Render()
		cost := tokens.EstimateText(section)
		if used+cost > budget {
			omitted = len(diffs) - i
			break
		}
		sb.WriteString(section)
		used += cost
	}
	if omitted > 0 {
		fmt.Fprintf(&sb, "\n[%d diffs omitted: token budget reached]\n", omitted)
	}
	return sb.String(), omitted
}
