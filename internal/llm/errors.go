package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
)

// FailureClass determines whether the retry loop keeps going.
type FailureClass int

const (
	// FailureRetryable covers transient conditions: network faults,
	// timeouts, 5xx, gateway errors, and request-rate 429s.
	FailureRetryable FailureClass = iota
	// FailureFatal covers conditions a retry cannot fix: auth, invalid
	// request, context-length overflow, and token-quantity 429s.
	FailureFatal
)

func (c FailureClass) String() string {
	if c == FailureRetryable {
		return "retryable"
	}
	return "fatal"
}

// UpstreamError wraps a provider failure with enough structure for the
// retry loop and the tool driver.
type UpstreamError struct {
	Provider   ProviderKind
	Model      string
	StatusCode int    // 0 when not an HTTP-level failure
	Body       string // raw response body when captured
	Err        error
}

func (e *UpstreamError) Error() string {
	return e.Err.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Class classifies the failure for the retry loop.
func (e *UpstreamError) Class() FailureClass {
	return classify(e.StatusCode, e.Body, e.Err)
}

// rateLimitBody is the structured shape most OpenAI-compatible back-ends
// use for 429 bodies. Only the fields the classifier consults.
type rateLimitBody struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// tokenQuantityIndicators mark a 429 as a token-budget limit: retrying
// cannot help, the caller has to shrink the input.
var tokenQuantityIndicators = []string{
	"tokens per min",
	"tokens per minute",
	"tpm",
	"token rate limit",
	"input token",
	"tokens, requested",
	"max_tokens_per",
	"token quota",
}

// requestRateIndicators mark a 429 as request-count throttling, which a
// backoff can outwait.
var requestRateIndicators = []string{
	"requests per min",
	"requests per minute",
	"requests per day",
	"rpm",
	"rpd",
	"request rate",
	"too many requests",
}

// classify maps one failure to a class. The rules, in order:
//   - context cancellation follows the caller's deadline: fatal
//   - auth (401/403) and invalid request (400/404/422): fatal
//   - context-length overflow: fatal
//   - 429 with a token-quantity body: fatal; request-rate or malformed
//     body: retryable
//   - 5xx, gateway trouble, timeouts, plain transport errors: retryable
func classify(status int, body string, err error) FailureClass {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return FailureFatal
		}
		var netErr net.Error
		if errors.As(err, &netErr) {
			return FailureRetryable
		}
	}

	msg := strings.ToLower(body)
	if msg == "" && err != nil {
		msg = strings.ToLower(err.Error())
	}

	if isContextOverflowMessage(msg) {
		return FailureFatal
	}

	switch {
	case status == 401 || status == 403:
		return FailureFatal
	case status == 400 || status == 404 || status == 422:
		return FailureFatal
	case status == 429:
		return classify429(body, msg)
	case status >= 500:
		return FailureRetryable
	}

	// No status to go on: fall back to message patterns.
	if isAuthMessage(msg) {
		return FailureFatal
	}
	if isRateLimitMessage(msg) {
		return classify429(body, msg)
	}
	return FailureRetryable
}

// classify429 splits rate limits into token-quantity (fatal) and
// request-rate (retryable). A body that parses but indicates neither, or
// does not parse at all, defaults to retryable.
func classify429(body, msg string) FailureClass {
	var structured rateLimitBody
	if err := json.Unmarshal([]byte(body), &structured); err == nil {
		detail := strings.ToLower(structured.Error.Message + " " + structured.Error.Code + " " + structured.Error.Type)
		if containsAny(detail, tokenQuantityIndicators) {
			return FailureFatal
		}
		if containsAny(detail, requestRateIndicators) {
			return FailureRetryable
		}
	}
	if containsAny(msg, tokenQuantityIndicators) {
		return FailureFatal
	}
	return FailureRetryable
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// isContextOverflowMessage matches context-window overflow across
// providers.
func isContextOverflowMessage(msg string) bool {
	if msg == "" {
		return false
	}
	return strings.Contains(msg, "context_length_exceeded") ||
		strings.Contains(msg, "context length exceeded") ||
		strings.Contains(msg, "maximum context length") ||
		strings.Contains(msg, "prompt is too long") ||
		strings.Contains(msg, "request_too_large") ||
		strings.Contains(msg, "exceeds model context window") ||
		strings.Contains(msg, "context size has been exceeded")
}

// isAuthMessage matches authentication failures.
func isAuthMessage(msg string) bool {
	if msg == "" {
		return false
	}
	return strings.Contains(msg, "invalid api key") ||
		strings.Contains(msg, "invalid_api_key") ||
		strings.Contains(msg, "incorrect api key") ||
		strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "forbidden") ||
		strings.Contains(msg, "authentication") ||
		strings.Contains(msg, "invalid credentials")
}

// isRateLimitMessage matches rate limiting without an HTTP status.
func isRateLimitMessage(msg string) bool {
	if msg == "" {
		return false
	}
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate_limit") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "quota exceeded")
}
