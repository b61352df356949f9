package llm

import (
	"context"
	"testing"
)

// stubProvider is a table-backed provider with a canned Generate.
type stubProvider struct {
	baseProvider
	generated int
	response  *ModelResponse
	err       error
}

func newStubProvider(t *testing.T, kind ProviderKind, models []ModelCapabilities) *stubProvider {
	t.Helper()
	base, err := newBaseProvider(kind, models)
	if err != nil {
		t.Fatalf("newBaseProvider(%s): %v", kind, err)
	}
	return &stubProvider{baseProvider: base}
}

func (p *stubProvider) Generate(ctx context.Context, req GenerateRequest) (*ModelResponse, error) {
	p.generated++
	if p.err != nil {
		return nil, p.err
	}
	if p.response != nil {
		return p.response, nil
	}
	caps, err := p.Capabilities(req.Model)
	if err != nil {
		return nil, err
	}
	return &ModelResponse{Content: "ok", ModelName: caps.Name, Provider: p.kind}, nil
}

func (p *stubProvider) Close() error { return nil }

func testRegistry(t *testing.T) (*Registry, *stubProvider, *stubProvider) {
	t.Helper()
	gemini := newStubProvider(t, KindGemini, []ModelCapabilities{
		{Provider: KindGemini, Name: "gemini-2.5-flash", Aliases: []string{"flash"}, FastVariant: true},
		{Provider: KindGemini, Name: "gemini-2.5-pro", Aliases: []string{"pro"}, SupportsExtendedThinking: true, BalancedVariant: true},
	})
	anthropic := newStubProvider(t, KindAnthropic, []ModelCapabilities{
		{Provider: KindAnthropic, Name: "claude-sonnet-4-5", Aliases: []string{"sonnet"}, SupportsExtendedThinking: true},
	})
	r := NewRegistry()
	r.Register(gemini)
	r.Register(anthropic)
	return r, gemini, anthropic
}

func TestProviderForModelPriority(t *testing.T) {
	r, gemini, anthropic := testRegistry(t)

	p, canonical := r.ProviderForModel("flash")
	if p != Provider(gemini) || canonical != "gemini-2.5-flash" {
		t.Errorf("flash resolved to (%v, %q), want gemini provider", p, canonical)
	}

	p, canonical = r.ProviderForModel("SONNET")
	if p != Provider(anthropic) || canonical != "claude-sonnet-4-5" {
		t.Errorf("SONNET resolved to (%v, %q), want anthropic provider", p, canonical)
	}

	p, canonical = r.ProviderForModel("no-such-model")
	if p != nil || canonical != "" {
		t.Errorf("unknown model resolved to (%v, %q), want (nil, \"\")", p, canonical)
	}
}

// Lookup stays pure: resolving names, even unknown ones, must not drive
// any provider to generate or construct clients.
func TestProviderForModelIsPure(t *testing.T) {
	r, gemini, anthropic := testRegistry(t)

	for _, name := range []string{"flash", "pro", "sonnet", "unknown", ""} {
		r.ProviderForModel(name)
	}
	r.AvailableModels()
	r.PreferredFallback(ExtendedReasoning)

	if gemini.generated != 0 || anthropic.generated != 0 {
		t.Errorf("lookup triggered generation: gemini=%d anthropic=%d",
			gemini.generated, anthropic.generated)
	}
}

func TestAvailableModelsRestrictionFiltered(t *testing.T) {
	r, _, _ := testRegistry(t)
	defer SetRestrictions(nil)

	SetRestrictions(&RestrictionService{allowed: map[ProviderKind]map[string]bool{
		KindGemini: {"gemini-2.5-flash": true},
	}})

	models := r.AvailableModels()
	want := map[string]bool{"gemini-2.5-flash": true, "claude-sonnet-4-5": true}
	if len(models) != len(want) {
		t.Fatalf("AvailableModels = %v, want %v", models, want)
	}
	for _, m := range models {
		if !want[m] {
			t.Errorf("unexpected model %q in %v", m, models)
		}
	}

	// The denied model still cannot be routed.
	if p, _ := r.ProviderForModel("pro"); p != nil {
		t.Error("restricted model should not resolve to a provider")
	}
}

func TestPreferredFallback(t *testing.T) {
	r, _, _ := testRegistry(t)

	if got := r.PreferredFallback(FastResponse); got != "gemini-2.5-flash" {
		t.Errorf("FastResponse fallback = %q, want gemini-2.5-flash", got)
	}
	if got := r.PreferredFallback(ExtendedReasoning); got != "gemini-2.5-pro" {
		t.Errorf("ExtendedReasoning fallback = %q, want gemini-2.5-pro", got)
	}
	if got := r.PreferredFallback(Balanced); got != "gemini-2.5-pro" {
		t.Errorf("Balanced fallback = %q, want gemini-2.5-pro", got)
	}
}

// Without variant hints the context window breaks the tie: reasoning
// takes the largest, fast the smallest, balanced follows fast.
func TestPreferredFallbackWindowTieBreakers(t *testing.T) {
	plain := newStubProvider(t, KindOpenAI, []ModelCapabilities{
		{Provider: KindOpenAI, Name: "mid-model", ContextWindow: 200000},
		{Provider: KindOpenAI, Name: "wide-model", ContextWindow: 1000000},
		{Provider: KindOpenAI, Name: "narrow-model", ContextWindow: 32000},
	})
	r := NewRegistry()
	r.Register(plain)

	if got := r.PreferredFallback(ExtendedReasoning); got != "wide-model" {
		t.Errorf("ExtendedReasoning fallback = %q, want the largest window", got)
	}
	if got := r.PreferredFallback(FastResponse); got != "narrow-model" {
		t.Errorf("FastResponse fallback = %q, want the smallest window", got)
	}
	if got := r.PreferredFallback(Balanced); got != "narrow-model" {
		t.Errorf("Balanced fallback = %q, want the fast pick", got)
	}
}

func TestPreferredFallbackEmptyRegistry(t *testing.T) {
	r := NewRegistry()
	if got := r.PreferredFallback(FastResponse); got != "" {
		t.Errorf("empty registry fallback = %q, want empty", got)
	}
	if p, _ := r.ProviderForModel("anything"); p != nil {
		t.Error("empty registry should resolve nothing")
	}
}

func TestPreferredFallbackCrossesProviders(t *testing.T) {
	// Only anthropic registered: priority walk must reach it.
	anthropic := newStubProvider(t, KindAnthropic, []ModelCapabilities{
		{Provider: KindAnthropic, Name: "claude-sonnet-4-5", SupportsExtendedThinking: true},
	})
	r := NewRegistry()
	r.Register(anthropic)

	if got := r.PreferredFallback(ExtendedReasoning); got != "claude-sonnet-4-5" {
		t.Errorf("fallback = %q, want claude-sonnet-4-5", got)
	}
}

func TestRegistryClearCloses(t *testing.T) {
	r, _, _ := testRegistry(t)
	r.Clear()
	if len(r.Providers()) != 0 {
		t.Error("Clear should remove all providers")
	}
}
