package llm

import (
	"errors"
	"testing"
)

type fakeNetErr struct{}

func (fakeNetErr) Error() string   { return "dial tcp: connection refused" }
func (fakeNetErr) Timeout() bool   { return true }
func (fakeNetErr) Temporary() bool { return true }

func TestClassifyStatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		err    error
		want   FailureClass
	}{
		{"unauthorized", 401, "", errors.New("401 unauthorized"), FailureFatal},
		{"forbidden", 403, "", errors.New("forbidden"), FailureFatal},
		{"bad request", 400, "", errors.New("invalid request"), FailureFatal},
		{"not found", 404, "", errors.New("model not found"), FailureFatal},
		{"unprocessable", 422, "", errors.New("unprocessable"), FailureFatal},
		{"server error", 500, "", errors.New("internal"), FailureRetryable},
		{"bad gateway", 502, "", errors.New("bad gateway"), FailureRetryable},
		{"overloaded", 529, "", errors.New("overloaded"), FailureRetryable},
		{"context overflow", 400, "this model's maximum context length is 200000 tokens", nil, FailureFatal},
		{"overflow without status", 0, "", errors.New("prompt is too long: 250000 tokens"), FailureFatal},
		{"network error", 0, "", fakeNetErr{}, FailureRetryable},
		{"plain transport error", 0, "", errors.New("unexpected EOF"), FailureRetryable},
		{"auth without status", 0, "", errors.New("invalid API key provided"), FailureFatal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classify(tc.status, tc.body, tc.err); got != tc.want {
				t.Errorf("classify(%d, %q, %v) = %v, want %v", tc.status, tc.body, tc.err, got, tc.want)
			}
		})
	}
}

func TestClassify429(t *testing.T) {
	cases := []struct {
		name string
		body string
		want FailureClass
	}{
		{
			"token quantity structured",
			`{"error":{"type":"tokens","code":"rate_limit_exceeded","message":"Rate limit reached: 30000 tokens per min"}}`,
			FailureFatal,
		},
		{
			"request rate structured",
			`{"error":{"type":"requests","code":"rate_limit_exceeded","message":"Rate limit reached: 500 requests per min"}}`,
			FailureRetryable,
		},
		{
			"token quantity free text",
			"Request exceeds token rate limit for gpt-4.1",
			FailureFatal,
		},
		{
			"malformed body defaults to retryable",
			"<html>429 Too Many Requests</html>",
			FailureRetryable,
		},
		{
			"empty body defaults to retryable",
			"",
			FailureRetryable,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classify(429, tc.body, errors.New("429 too many requests")); got != tc.want {
				t.Errorf("classify(429, %q) = %v, want %v", tc.body, got, tc.want)
			}
		})
	}
}

func TestUpstreamErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	e := &UpstreamError{Provider: KindOpenAI, Model: "o3", Err: inner}
	if !errors.Is(e, inner) {
		t.Error("UpstreamError should unwrap to the inner error")
	}
	var target *UpstreamError
	if !errors.As(error(e), &target) {
		t.Error("errors.As should find *UpstreamError")
	}
}
