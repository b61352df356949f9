package tokens

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEstimateText(t *testing.T) {
	if got := EstimateText(""); got != 0 {
		t.Errorf("empty text = %d tokens, want 0", got)
	}

	short := EstimateText("hello world")
	if short <= 0 || short > 10 {
		t.Errorf("short text = %d tokens", short)
	}

	long := EstimateText(strings.Repeat("some ordinary sentence about code. ", 100))
	if long <= short {
		t.Error("longer text should cost more tokens")
	}
}

func TestEstimateTextMonotonicOnPrefix(t *testing.T) {
	base := "def handler(request):\n    return process(request)\n"
	small := EstimateText(base)
	big := EstimateText(strings.Repeat(base, 50))
	if big < small*40 {
		t.Errorf("50x repetition should cost roughly 50x: %d vs %d", big, small)
	}
}

func TestEstimateFileTokens(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.py")
	content := strings.Repeat("x = compute_value(y)\n", 100)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got := EstimateFileTokens(path, int64(len(content)))
	if got <= 0 {
		t.Errorf("estimate = %d, want positive", got)
	}
	// The byte heuristic should be in the same ballpark as the real
	// count, not orders of magnitude off.
	real := EstimateText(content)
	if got < real/4 || got > real*4 {
		t.Errorf("file estimate %d too far from text estimate %d", got, real)
	}
}
