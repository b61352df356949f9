package workspace

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	. "github.com/modelmux/modelmux/internal/logging"
)

// includedExtensions are the file types directory expansion picks up:
// code, scripts, configs, docs, web assets and text data.
var includedExtensions = map[string]bool{
	".py": true, ".go": true, ".js": true, ".ts": true, ".jsx": true,
	".tsx": true, ".java": true, ".c": true, ".h": true, ".cpp": true,
	".hpp": true, ".cc": true, ".cs": true, ".rb": true, ".rs": true,
	".php": true, ".swift": true, ".kt": true, ".scala": true,
	".m": true, ".mm": true,

	".sh": true, ".bash": true, ".zsh": true, ".ps1": true, ".bat": true,

	".json": true, ".yaml": true, ".yml": true, ".toml": true,
	".ini": true, ".cfg": true, ".conf": true, ".env": true,
	".xml": true, ".proto": true, ".graphql": true,

	".md": true, ".rst": true, ".txt": true, ".adoc": true,

	".html": true, ".htm": true, ".css": true, ".scss": true,
	".vue": true, ".svelte": true,

	".sql": true, ".csv": true, ".tsv": true, ".log": true,
}

// excludedDirs are never descended into during expansion.
var excludedDirs = map[string]bool{
	"node_modules":       true,
	".git":               true,
	"build":              true,
	"dist":               true,
	"__pycache__":        true,
	".venv":              true,
	"venv":               true,
	".next":              true,
	".nuxt":              true,
	"bower_components":   true,
	".expo":              true,
	"target":             true,
	".gradle":            true,
	".idea":              true,
	".vscode":            true,
	"coverage":           true,
	".pytest_cache":      true,
	".mypy_cache":        true,
}

// ExpandPaths walks directories among the given paths and returns the
// contained files with recognized extensions, deduplicated and sorted.
// Plain files pass through regardless of extension: naming a file
// explicitly is its own opt-in. extensions, when non-empty, replaces the
// default set.
func ExpandPaths(paths []string, extensions []string) []string {
	allowed := includedExtensions
	if len(extensions) > 0 {
		allowed = make(map[string]bool, len(extensions))
		for _, ext := range extensions {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			allowed[strings.ToLower(ext)] = true
		}
	}

	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			// Missing paths stay in the list; packing reports them as
			// NOT FOUND stubs instead of dropping them silently.
			add(path)
			continue
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		walkDir(path, allowed, add)
	}

	sort.Strings(out)
	return out
}

func walkDir(root string, allowed map[string]bool, add func(string)) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			L_debug("workspace: walk error, skipping", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (excludedDirs[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if allowed[strings.ToLower(filepath.Ext(name))] {
			add(path)
		}
		return nil
	})
	if err != nil {
		L_warn("workspace: walk failed", "root", root, "error", err)
	}
}
