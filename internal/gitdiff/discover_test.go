package gitdiff

import (
	"os"
	"path/filepath"
	"testing"
)

func mkdirs(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if err := os.MkdirAll(p, 0o755); err != nil {
			t.Fatal(err)
		}
	}
}

func TestFindRepositories(t *testing.T) {
	root := t.TempDir()
	mkdirs(t,
		filepath.Join(root, "projects", "alpha", ".git"),
		filepath.Join(root, "projects", "beta", ".git"),
		filepath.Join(root, "projects", "beta", "vendor", "dep", ".git"), // nested in a repo
		filepath.Join(root, "node_modules", "pkg", ".git"),               // excluded dir
		filepath.Join(root, ".cache", "something", ".git"),               // hidden dir
		filepath.Join(root, "plain"),
	)

	repos := FindRepositories(root, 0)
	want := map[string]bool{
		filepath.Join(root, "projects", "alpha"): true,
		filepath.Join(root, "projects", "beta"):  true,
	}
	if len(repos) != len(want) {
		t.Fatalf("FindRepositories = %v, want %d repos", repos, len(want))
	}
	for _, r := range repos {
		if !want[r] {
			t.Errorf("unexpected repo %s", r)
		}
	}
}

func TestFindRepositoriesRespectsDepth(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "a", "b", "c", "repo")
	mkdirs(t, filepath.Join(deep, ".git"))

	if repos := FindRepositories(root, 2); len(repos) != 0 {
		t.Errorf("depth 2 should not reach %s, got %v", deep, repos)
	}
	if repos := FindRepositories(root, 4); len(repos) != 1 {
		t.Errorf("depth 4 should find the repo, got %v", repos)
	}
}

func TestFindRepositoriesRootIsRepo(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, filepath.Join(root, ".git"))
	mkdirs(t, filepath.Join(root, "sub", ".git"))

	repos := FindRepositories(root, 0)
	if len(repos) != 1 || repos[0] != filepath.Clean(root) {
		t.Errorf("root repo should stop the walk, got %v", repos)
	}
}

func TestFindRepositoriesGitFileIsNotRepo(t *testing.T) {
	// Worktrees and submodules use a .git file; discovery only treats a
	// .git directory as a repository marker.
	root := t.TempDir()
	sub := filepath.Join(root, "worktree")
	mkdirs(t, sub)
	if err := os.WriteFile(filepath.Join(sub, ".git"), []byte("gitdir: /elsewhere\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if repos := FindRepositories(root, 0); len(repos) != 0 {
		t.Errorf("a .git file should not count, got %v", repos)
	}
}
