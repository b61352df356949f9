package llm

import (
	"context"
	"errors"
	"time"

	. "github.com/modelmux/modelmux/internal/logging"
)

// retryDelays are the fixed progressive waits between attempts. With the
// first attempt included that caps the loop at four tries.
var retryDelays = []time.Duration{
	1 * time.Second,
	3 * time.Second,
	5 * time.Second,
	8 * time.Second,
}

// maxAttempts includes the initial call.
const maxAttempts = 4

// withRetries runs op until it succeeds, fails fatally, or exhausts the
// attempt budget. op must return an *UpstreamError (or nil); anything else
// is treated as fatal since it cannot be classified.
func withRetries(ctx context.Context, provider ProviderKind, model string, op func() (*ModelResponse, error)) (*ModelResponse, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := op()
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var ue *UpstreamError
		if !errors.As(err, &ue) || ue.Class() == FailureFatal {
			return nil, err
		}
		if attempt == maxAttempts {
			break
		}

		delay := retryDelays[attempt-1]
		L_warn("llm: retrying after transient error",
			"provider", provider,
			"model", model,
			"attempt", attempt,
			"maxAttempts", maxAttempts,
			"delay", delay,
			"error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	L_error("llm: retries exhausted",
		"provider", provider,
		"model", model,
		"attempts", maxAttempts,
		"error", lastErr)
	return nil, lastErr
}
