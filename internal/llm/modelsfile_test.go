package llm

import (
	"os"
	"path/filepath"
	"testing"
)

func writeModelsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadModelsFileMissing(t *testing.T) {
	models, err := LoadModelsFile(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Errorf("missing file should not be an error: %v", err)
	}
	if models != nil {
		t.Errorf("missing file should yield nil, got %v", models)
	}

	models, err = LoadModelsFile("")
	if err != nil || models != nil {
		t.Errorf("empty path should be a no-op, got (%v, %v)", models, err)
	}
}

func TestLoadModelsFileMalformed(t *testing.T) {
	path := writeModelsFile(t, `{"models": [{`)
	if _, err := LoadModelsFile(path); err == nil {
		t.Error("malformed JSON should be fatal")
	}
}

func TestLoadModelsFileDuplicateAlias(t *testing.T) {
	path := writeModelsFile(t, `{"models": [
		{"model_name": "vendor/model-a", "aliases": ["fast"]},
		{"model_name": "vendor/model-b", "aliases": ["FAST"]}
	]}`)
	if _, err := LoadModelsFile(path); err == nil {
		t.Error("duplicate alias across entries should be fatal")
	}
}

func TestLoadModelsFileEmptyName(t *testing.T) {
	path := writeModelsFile(t, `{"models": [{"model_name": "  "}]}`)
	if _, err := LoadModelsFile(path); err == nil {
		t.Error("empty model_name should be fatal")
	}
}

func TestLoadModelsFileAzureNeedsDeployment(t *testing.T) {
	path := writeModelsFile(t, `{"models": [
		{"model_name": "gpt-4.1", "provider": "azure"}
	]}`)
	if _, err := LoadModelsFile(path); err == nil {
		t.Error("azure entry without deployment should be fatal")
	}

	path = writeModelsFile(t, `{"models": [
		{"model_name": "gpt-4.1", "provider": "azure", "deployment": "prod-gpt41"}
	]}`)
	models, err := LoadModelsFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(models) != 1 || models[0].Provider != KindAzure || models[0].Deployment != "prod-gpt41" {
		t.Errorf("azure entry loaded as %+v", models)
	}
}

func TestLoadModelsFileProviderRouting(t *testing.T) {
	path := writeModelsFile(t, `{"models": [
		{"model_name": "vendor/hosted", "context_window": 128000},
		{"model_name": "llama-3.3-70b", "is_custom": true}
	]}`)
	models, err := LoadModelsFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if models[0].Provider != KindOpenRouter {
		t.Errorf("plain entry routed to %s, want openrouter", models[0].Provider)
	}
	if models[1].Provider != KindCustom || !models[1].IsCustom {
		t.Errorf("is_custom entry routed to %s", models[1].Provider)
	}
	// Defaults.
	if models[1].ContextWindow != 32768 {
		t.Errorf("missing context_window should default to 32768, got %d", models[1].ContextWindow)
	}
	if !models[0].SupportsSystemPrompt {
		t.Error("supports_system_prompt should default to true")
	}
}

func TestTemperatureFromEntry(t *testing.T) {
	fixed, err := temperatureFromEntry(modelEntry{TemperatureHint: "fixed", TemperatureFix: 1.0})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := fixed.(FixedTemperature); !ok {
		t.Errorf("fixed hint produced %T", fixed)
	}

	rng, err := temperatureFromEntry(modelEntry{})
	if err != nil {
		t.Fatal(err)
	}
	r, ok := rng.(RangeTemperature)
	if !ok || r.Min != 0 || r.Max != 2 || r.Def != 0.7 {
		t.Errorf("default constraint = %+v, want range [0,2] def 0.7", rng)
	}

	if _, err := temperatureFromEntry(modelEntry{TemperatureHint: "discrete"}); err == nil {
		t.Error("discrete without allowed values should fail")
	}
	if _, err := temperatureFromEntry(modelEntry{TemperatureHint: "sliding"}); err == nil {
		t.Error("unknown hint should fail")
	}

	disc, err := temperatureFromEntry(modelEntry{TemperatureHint: "discrete", TemperatureSet: []float64{0, 1}, TemperatureDef: 1})
	if err != nil {
		t.Fatal(err)
	}
	if d, ok := disc.(DiscreteTemperature); !ok || d.Def != 1 {
		t.Errorf("discrete constraint = %+v", disc)
	}
}

func TestLoadModelsFileFixedDisablesTemperature(t *testing.T) {
	path := writeModelsFile(t, `{"models": [
		{"model_name": "vendor/strict", "temperature_constraint": "fixed", "temperature_value": 1.0}
	]}`)
	models, err := LoadModelsFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if models[0].SupportsTemperature {
		t.Error("fixed constraint should mark the model as not accepting temperature")
	}
}
