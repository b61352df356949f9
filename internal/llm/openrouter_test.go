package llm

import "testing"

func openRouterForTest(t *testing.T, registryModels []ModelCapabilities) *OpenRouterProvider {
	t.Helper()
	p, err := NewOpenRouterProvider("test-key", "", registryModels)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestOpenRouterValidatesAnyName(t *testing.T) {
	p := openRouterForTest(t, nil)
	if !p.Validate("some-vendor/some-model") {
		t.Error("non-empty names validate")
	}
	if p.Validate("") || p.Validate("   ") {
		t.Error("blank names do not")
	}
}

func TestOpenRouterGenericCapabilities(t *testing.T) {
	p := openRouterForTest(t, nil)

	caps, err := p.Capabilities("vendor/brand-new-model")
	if err != nil {
		t.Fatal(err)
	}
	if !caps.IsGeneric {
		t.Error("unknown names get generic records")
	}
	if caps.ContextWindow != 32768 {
		t.Errorf("generic window = %d, want the conservative default", caps.ContextWindow)
	}
	if temp, ok := p.EffectiveTemperature("vendor/brand-new-model", 3.5); !ok || temp != 2 {
		t.Errorf("generic temperature clamp = (%v, %v)", temp, ok)
	}
}

func TestOpenRouterRegistryRecordsWin(t *testing.T) {
	p := openRouterForTest(t, []ModelCapabilities{
		{Provider: KindOpenRouter, Name: "vendor/described", Aliases: []string{"desc"},
			ContextWindow: 200000, SupportsTemperature: true,
			Temperature: RangeTemperature{Min: 0, Max: 1, Def: 0.5}},
	})

	caps, err := p.Capabilities("desc")
	if err != nil {
		t.Fatal(err)
	}
	if caps.IsGeneric || caps.ContextWindow != 200000 {
		t.Errorf("registry record not used: %+v", caps)
	}
	if got := p.ResolveModelName("DESC"); got != "vendor/described" {
		t.Errorf("ResolveModelName = %q", got)
	}
}

func TestOpenRouterRespectsRestrictions(t *testing.T) {
	defer SetRestrictions(nil)
	SetRestrictions(&RestrictionService{allowed: map[ProviderKind]map[string]bool{
		KindOpenRouter: {"vendor/allowed": true},
	}})

	p := openRouterForTest(t, nil)
	if _, err := p.Capabilities("vendor/allowed"); err != nil {
		t.Errorf("allowed model rejected: %v", err)
	}
	_, err := p.Capabilities("vendor/other")
	if _, ok := err.(ErrModelRestricted); !ok {
		t.Errorf("restricted generic model error = %T(%v)", err, err)
	}
}
