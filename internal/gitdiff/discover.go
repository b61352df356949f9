// Package gitdiff discovers repositories under a root and extracts
// change information for review prompts by shelling out to git.
package gitdiff

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/modelmux/modelmux/internal/logging"
)

// maxDiscoveryDepth bounds the repository walk.
const maxDiscoveryDepth = 5

// discoveryExcludedDirs are never descended into while looking for
// repositories.
var discoveryExcludedDirs = map[string]bool{
	"node_modules":     true,
	"build":            true,
	"dist":             true,
	"__pycache__":      true,
	".venv":            true,
	"venv":             true,
	".next":            true,
	".nuxt":            true,
	"bower_components": true,
	".expo":            true,
	"target":           true,
}

// FindRepositories walks root to maxDepth and returns the absolute
// paths of directories containing .git. A found repository's subtree is
// not descended further; nested repos inside it are its own business.
func FindRepositories(root string, maxDepth int) []string {
	if maxDepth <= 0 {
		maxDepth = maxDiscoveryDepth
	}
	var repos []string
	walkForRepos(filepath.Clean(root), 0, maxDepth, &repos)
	L_debug("gitdiff: discovery finished", "root", root, "repos", len(repos))
	return repos
}

func walkForRepos(dir string, depth, maxDepth int, repos *[]string) {
	if depth > maxDepth {
		return
	}

	if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
		*repos = append(*repos, dir)
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		L_debug("gitdiff: cannot read dir, skipping", "dir", dir, "error", err)
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if discoveryExcludedDirs[name] || strings.HasPrefix(name, ".") {
			continue
		}
		walkForRepos(filepath.Join(dir, name), depth+1, maxDepth, repos)
	}
}
