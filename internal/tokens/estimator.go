// Package tokens provides token estimation using tiktoken, with
// heuristic fallbacks when the encoding is unavailable.
package tokens

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	. "github.com/modelmux/modelmux/internal/logging"
)

// Estimator counts tokens with tiktoken.
type Estimator struct {
	encoding *tiktoken.Tiktoken
	mu       sync.RWMutex
}

// DefaultEncoding is cl100k_base. No single tokenizer is right for every
// back-end; this one is close enough everywhere for budget arithmetic.
const DefaultEncoding = "cl100k_base"

var (
	globalEstimator     *Estimator
	globalEstimatorOnce sync.Once
)

// Get returns the global token estimator (singleton).
func Get() *Estimator {
	globalEstimatorOnce.Do(func() {
		var err error
		globalEstimator, err = New()
		if err != nil {
			L_warn("tokens: failed to create estimator, using fallback", "error", err)
			globalEstimator = &Estimator{} // chars/4 fallback
		}
	})
	return globalEstimator
}

// New creates a token estimator.
func New() (*Estimator, error) {
	enc, err := tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		return nil, err
	}
	return &Estimator{encoding: enc}, nil
}

// Count returns the token count for a string. Falls back to chars/4 when
// tiktoken is unavailable.
func (e *Estimator) Count(text string) int {
	if e == nil || e.encoding == nil {
		return len(text) / 4
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	toks := e.encoding.Encode(text, nil, nil)
	return len(toks)
}

// EstimateText is a convenience function using the global estimator.
func EstimateText(text string) int {
	return Get().Count(text)
}

// bytesPerToken maps file extensions to empirical bytes-per-token
// ratios. Prose-heavy formats pack more bytes into a token than dense
// code or structured data.
var bytesPerToken = map[string]float64{
	".txt": 4.0, ".md": 4.0, ".rst": 4.0,

	".py": 3.5, ".go": 3.5, ".js": 3.2, ".ts": 3.2, ".jsx": 3.2,
	".tsx": 3.2, ".java": 3.5, ".c": 3.5, ".h": 3.5, ".cpp": 3.5,
	".hpp": 3.5, ".rs": 3.5, ".rb": 3.5, ".php": 3.5, ".swift": 3.5,
	".kt": 3.5, ".cs": 3.5, ".sh": 3.0,

	".json": 2.5, ".yaml": 3.0, ".yml": 3.0, ".toml": 3.0, ".xml": 2.5,
	".html": 2.8, ".css": 3.0, ".sql": 3.5, ".csv": 2.5,

	".log": 3.5,
}

// defaultBytesPerToken applies to extensions not in the table.
const defaultBytesPerToken = 3.5

// EstimateFileTokens estimates the token cost of a file from its size
// without reading it, using the extension ratio table. Size-based
// estimation keeps budget checks cheap for large trees.
func EstimateFileTokens(path string, sizeBytes int64) int {
	if sizeBytes <= 0 {
		return 0
	}
	ratio := defaultBytesPerToken
	if r, ok := bytesPerToken[strings.ToLower(filepath.Ext(path))]; ok {
		ratio = r
	}
	return int(float64(sizeBytes) / ratio)
}
