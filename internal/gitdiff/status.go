package gitdiff

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// RepoStatus summarizes one repository's working state.
type RepoStatus struct {
	Path      string
	Branch    string
	Ahead     int
	Behind    int
	Staged    []string
	Unstaged  []string
	Untracked []string
}

// git runs one git command in dir and returns trimmed stdout.
func git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimRight(string(output), "\n"), nil
}

// Status collects branch, upstream divergence and the three change sets
// for one repository.
func Status(ctx context.Context, repoPath string) (*RepoStatus, error) {
	status := &RepoStatus{Path: repoPath}

	branch, err := git(ctx, repoPath, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, err
	}
	status.Branch = branch

	// Upstream divergence; a branch without an upstream is not an error.
	if counts, err := git(ctx, repoPath, "rev-list", "--left-right", "--count", "@{upstream}...HEAD"); err == nil {
		fields := strings.Fields(counts)
		if len(fields) == 2 {
			status.Behind, _ = strconv.Atoi(fields[0])
			status.Ahead, _ = strconv.Atoi(fields[1])
		}
	}

	porcelain, err := git(ctx, repoPath, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(porcelain, "\n") {
		if len(line) < 3 {
			continue
		}
		index, worktree := line[0], line[1]
		file := strings.TrimSpace(line[3:])
		// Renames list "old -> new"; the new path is the one that matters.
		if i := strings.Index(file, " -> "); i >= 0 {
			file = file[i+4:]
		}
		switch {
		case index == '?' && worktree == '?':
			status.Untracked = append(status.Untracked, file)
		default:
			if index != ' ' && index != '?' {
				status.Staged = append(status.Staged, file)
			}
			if worktree != ' ' && worktree != '?' {
				status.Unstaged = append(status.Unstaged, file)
			}
		}
	}

	return status, nil
}

// Summary renders a status as a compact block for prompts.
func (s *RepoStatus) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Repository: %s\n", s.Path)
	fmt.Fprintf(&sb, "Branch: %s", s.Branch)
	if s.Ahead > 0 || s.Behind > 0 {
		fmt.Fprintf(&sb, " (ahead %d, behind %d)", s.Ahead, s.Behind)
	}
	sb.WriteByte('\n')
	fmt.Fprintf(&sb, "Staged: %d, Unstaged: %d, Untracked: %d\n",
		len(s.Staged), len(s.Unstaged), len(s.Untracked))
	return sb.String()
}
