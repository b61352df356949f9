package llm

import "testing"

func TestLooksLocal(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"llama-3.3-70b", true},
		{"mistral:7b-instruct", true},
		{"qwen2.5-coder:32b", true},
		{"local-test", true},
		{"my-finetune:latest", true},
		{"company/ollama-mirror", true}, // local marker wins over the vendor prefix
		{"gpt-4.1", false},
		{"o3-mini", false},
		{"gemini-2.5-pro", false},
		{"claude-sonnet-4-5", false},
		{"grok-4", false},
		{"vendor/hosted-model", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := looksLocal(tc.name); got != tc.want {
			t.Errorf("looksLocal(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestStripTag(t *testing.T) {
	cases := []struct{ in, want string }{
		{"llama3:8b", "llama3"},
		{"mistral:7b-instruct-q4", "mistral"},
		{"plain-name", "plain-name"},
		{":leading", ":leading"},
	}
	for _, tc := range cases {
		if got := stripTag(tc.in); got != tc.want {
			t.Errorf("stripTag(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCustomProviderValidate(t *testing.T) {
	p, err := NewCustomProvider("http://localhost:11434", "", []ModelCapabilities{
		{Provider: KindCustom, Name: "my-finetune", ContextWindow: 8192, IsCustom: true,
			SupportsTemperature: true, Temperature: RangeTemperature{Min: 0, Max: 2, Def: 0.7}},
		{Provider: KindOpenRouter, Name: "vendor/hosted"}, // belongs to the aggregator
	})
	if err != nil {
		t.Fatal(err)
	}

	if !p.Validate("my-finetune") {
		t.Error("registry model should validate")
	}
	if p.Validate("vendor/hosted") {
		t.Error("aggregator registry entries are not this provider's")
	}
	if !p.Validate("llama3:latest") {
		t.Error("vendor-prefix-free name should validate without a registry entry")
	}
	if p.Validate("vendor/hosted-elsewhere") {
		t.Error("vendor-prefixed names without a local marker are not ours")
	}
	// Cloud names fall through to the real provider, never to localhost.
	for _, cloud := range []string{"gpt-4.1", "o3", "gemini-2.5-flash", "claude", "grok-4"} {
		if p.Validate(cloud) {
			t.Errorf("cloud name %q must not be claimed", cloud)
		}
	}
}

func TestCustomProviderGenericCapabilities(t *testing.T) {
	p, err := NewCustomProvider("http://localhost:11434", "", nil)
	if err != nil {
		t.Fatal(err)
	}

	caps, err := p.Capabilities("qwen2.5-coder:32b")
	if err != nil {
		t.Fatal(err)
	}
	if !caps.IsGeneric || !caps.IsCustom {
		t.Errorf("generic local record = %+v", caps)
	}
	// The tag stays on the wire name.
	if caps.Name != "qwen2.5-coder:32b" {
		t.Errorf("name = %q, want the tagged form preserved", caps.Name)
	}

	if _, err := p.Capabilities("gpt-4.1"); err == nil {
		t.Error("cloud name should not get capabilities here")
	}
}
