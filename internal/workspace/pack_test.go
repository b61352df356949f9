package workspace

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

func TestPackFilesMarkers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.py")
	writeFile(t, path, "print('hello')\n")

	result := PackFiles([]string{path}, PackOptions{MaxTokens: 10000})

	begin := fmt.Sprintf("--- BEGIN FILE: %s ---", path)
	end := fmt.Sprintf("--- END FILE: %s ---", path)
	if !strings.Contains(result.Content, begin) || !strings.Contains(result.Content, end) {
		t.Errorf("markers missing from:\n%s", result.Content)
	}
	if len(result.IncludedFiles) != 1 || result.IncludedFiles[0] != path {
		t.Errorf("IncludedFiles = %v", result.IncludedFiles)
	}
	if result.UsedTokens <= 0 {
		t.Error("UsedTokens should be positive")
	}
}

func TestPackFilesStubs(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "gone.txt")
	subdir := filepath.Join(dir, "pkg")
	writeFile(t, filepath.Join(subdir, "keep.py"), "x")

	result := PackFiles([]string{missing, subdir}, PackOptions{MaxTokens: 10000})

	if !strings.Contains(result.Content, fmt.Sprintf("--- FILE NOT FOUND: %s ---", missing)) {
		t.Errorf("missing-file stub absent:\n%s", result.Content)
	}
	// The directory expands to its contents rather than stubbing.
	if !strings.Contains(result.Content, "keep.py") {
		t.Errorf("directory expansion missing:\n%s", result.Content)
	}
}

func TestPackFilesBudgetPrefix(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.txt")
	writeFile(t, first, "tiny\n")
	big := filepath.Join(dir, "b_big.txt")
	writeFile(t, big, strings.Repeat("filler content line\n", 500))
	last := filepath.Join(dir, "c.txt")
	writeFile(t, last, "tiny\n")

	// The budget fits the first file; the big one stops the packing,
	// so the last file is skipped even though it alone would fit.
	result := PackFiles([]string{first, big, last}, PackOptions{MaxTokens: 100})

	if len(result.IncludedFiles) != 1 || result.IncludedFiles[0] != first {
		t.Errorf("IncludedFiles = %v, want [%s]", result.IncludedFiles, first)
	}
	if len(result.SkippedFiles) != 2 || result.SkippedFiles[0] != big || result.SkippedFiles[1] != last {
		t.Errorf("SkippedFiles = %v, want [%s %s]", result.SkippedFiles, big, last)
	}
	if !strings.Contains(result.Content, "--- SKIPPED FILES (TOKEN LIMIT) ---") {
		t.Error("skipped footer missing")
	}
	if !strings.Contains(result.Content, big) {
		t.Error("skipped footer should list the file")
	}
}

func TestPackFilesReserve(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	writeFile(t, path, strings.Repeat("words and more words\n", 50))

	// Reserve eats the whole budget.
	result := PackFiles([]string{path}, PackOptions{MaxTokens: 100, Reserve: 100})
	if len(result.IncludedFiles) != 0 {
		t.Errorf("nothing should fit, got %v", result.IncludedFiles)
	}
	if len(result.SkippedFiles) != 1 {
		t.Errorf("SkippedFiles = %v", result.SkippedFiles)
	}
}

func TestNumberLines(t *testing.T) {
	got := NumberLines("alpha\nbeta")
	want := "   1│ alpha\n   2│ beta"
	if got != want {
		t.Errorf("NumberLines = %q, want %q", got, want)
	}
}

func TestNumberLinesWideFiles(t *testing.T) {
	content := strings.TrimSuffix(strings.Repeat("x\n", 10000), "\n")
	got := NumberLines(content)
	if !strings.HasPrefix(got, "    1│ x") {
		t.Errorf("first line = %q, want width 5", got[:12])
	}
	if !strings.HasSuffix(got, "10000│ x") {
		t.Errorf("last line should be numbered 10000")
	}
}

func TestNormalizeLineEndings(t *testing.T) {
	got := normalizeLineEndings("a\r\nb\rc\n")
	if got != "a\nb\nc\n" {
		t.Errorf("normalizeLineEndings = %q", got)
	}
}

func TestPackFilesNumbersContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "n.py")
	writeFile(t, path, "one\ntwo\n")

	result := PackFiles([]string{path}, PackOptions{MaxTokens: 10000, LineNumbers: true})
	if !strings.Contains(result.Content, "   1│ one") {
		t.Errorf("numbered content missing:\n%s", result.Content)
	}
}
