// Package workspace confines all file access to the configured root and
// packs file content into token-budgeted prompt sections.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelmux/modelmux/internal/config"
	. "github.com/modelmux/modelmux/internal/logging"
)

// Sandbox failure reasons. Callers map all of them to one error kind;
// the distinction feeds the message.
var (
	ErrRelativePath = errors.New("path must be absolute")
	ErrOutsideRoot  = errors.New("path is outside the workspace root")
	ErrHomeRoot     = errors.New("the home directory root itself cannot be used")
	ErrSelfIngest   = errors.New("path points into the server's own source tree")
)

// SandboxError wraps a rejection with the offending path.
type SandboxError struct {
	Path   string
	Reason error
}

func (e *SandboxError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Reason)
}

func (e *SandboxError) Unwrap() error { return e.Reason }

// selfSignatureFiles identify the server's own source tree. A directory
// holding at least selfSignatureThreshold of them is refused, so a
// misdirected "analyze my project" cannot ingest the server itself.
// Heuristic, not a security boundary.
var selfSignatureFiles = []string{
	"go.mod",
	"cmd/modelmux",
	"internal/llm",
	"internal/tools",
	"internal/server",
	"internal/workspace",
}

const selfSignatureThreshold = 4

// Sandbox validates and canonicalizes external paths.
type Sandbox struct {
	root            string
	containerPrefix string
	hostPrefix      string
	home            string
}

// NewSandbox builds a sandbox from configuration. The root has already
// been validated absolute by config.
func NewSandbox(cfg *config.Config) *Sandbox {
	home := cfg.UserHomeOverride
	if home == "" {
		if h, err := os.UserHomeDir(); err == nil {
			home = h
		}
	}
	container, host := cfg.TranslatePrefixes()
	return &Sandbox{
		root:            filepath.Clean(cfg.WorkspaceRoot),
		containerPrefix: container,
		hostPrefix:      host,
		home:            filepath.Clean(home),
	}
}

// Root returns the workspace root.
func (s *Sandbox) Root() string { return s.root }

// Translate rewrites a configured container prefix to its host form.
// Paths without the prefix pass through unchanged.
func (s *Sandbox) Translate(path string) string {
	if s.containerPrefix == "" || !strings.HasPrefix(path, s.containerPrefix) {
		return path
	}
	translated := s.hostPrefix + strings.TrimPrefix(path, s.containerPrefix)
	L_debug("workspace: translated path", "from", path, "to", translated)
	return translated
}

// Resolve validates one external path and returns its canonical form.
// The checks, in order: translation, absoluteness, canonicalization
// (following symlinks when the target exists), containment in the root,
// home-root refusal, self-ingestion refusal.
func (s *Sandbox) Resolve(path string) (string, error) {
	original := path
	path = s.Translate(path)

	if !filepath.IsAbs(path) {
		return "", &SandboxError{Path: original, Reason: ErrRelativePath}
	}

	canonical := filepath.Clean(path)
	if resolved, err := filepath.EvalSymlinks(canonical); err == nil {
		canonical = resolved
	}

	if !s.contains(canonical) {
		return "", &SandboxError{Path: original, Reason: ErrOutsideRoot}
	}
	if s.home != "" && canonical == s.home {
		return "", &SandboxError{Path: original, Reason: ErrHomeRoot}
	}
	if s.isOwnSourceTree(canonical) {
		return "", &SandboxError{Path: original, Reason: ErrSelfIngest}
	}
	return canonical, nil
}

// ResolveAll resolves every path, failing on the first rejection.
func (s *Sandbox) ResolveAll(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		resolved, err := s.Resolve(p)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}

func (s *Sandbox) contains(path string) bool {
	root := s.root
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}

// isOwnSourceTree counts signature files under a directory.
func (s *Sandbox) isOwnSourceTree(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	found := 0
	for _, sig := range selfSignatureFiles {
		if _, err := os.Stat(filepath.Join(path, sig)); err == nil {
			found++
			if found >= selfSignatureThreshold {
				L_warn("workspace: refusing own source tree", "path", path)
				return true
			}
		}
	}
	return false
}
