package llm

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	. "github.com/modelmux/modelmux/internal/logging"
)

// modelsFile is the on-disk shape of the custom-models registry. Each
// entry declares metadata for a model served by the aggregator or a
// local endpoint, so parameter validation does not have to fall back to
// generic records.
type modelsFile struct {
	Models []modelEntry `json:"models"`
}

type modelEntry struct {
	ModelName        string   `json:"model_name"`
	Provider         string   `json:"provider,omitempty"`   // "azure" routes to the hosted provider
	Deployment       string   `json:"deployment,omitempty"` // azure deployment serving the model
	Aliases          []string `json:"aliases"`
	ContextWindow    int      `json:"context_window"`
	MaxOutputTokens  int      `json:"max_output_tokens"`
	SupportsImages   bool     `json:"supports_images"`
	SupportsThinking bool     `json:"supports_extended_thinking"`
	SupportsFunction bool     `json:"supports_function_calling"`
	SupportsSystem   *bool    `json:"supports_system_prompt,omitempty"`
	MaxImageSizeMB   float64  `json:"max_image_size_mb"`
	IsCustom         bool     `json:"is_custom"`
	Description      string   `json:"description"`

	// Temperature constraint: "fixed", "range" or "discrete". Empty
	// means range [0,2] default 0.7.
	TemperatureHint string    `json:"temperature_constraint,omitempty"`
	TemperatureFix  float64   `json:"temperature_value,omitempty"`
	TemperatureMin  float64   `json:"temperature_min,omitempty"`
	TemperatureMax  float64   `json:"temperature_max,omitempty"`
	TemperatureSet  []float64 `json:"temperature_allowed,omitempty"`
	TemperatureDef  float64   `json:"temperature_default,omitempty"`
}

// temperatureFromEntry maps the registry tag onto a constraint.
func temperatureFromEntry(e modelEntry) (TemperatureConstraint, error) {
	def := e.TemperatureDef
	if def == 0 {
		def = 0.7
	}
	switch strings.ToLower(e.TemperatureHint) {
	case "", "range":
		maxT := e.TemperatureMax
		if maxT == 0 {
			maxT = 2
		}
		return RangeTemperature{Min: e.TemperatureMin, Max: maxT, Def: def}, nil
	case "fixed":
		return FixedTemperature{Value: e.TemperatureFix}, nil
	case "discrete":
		if len(e.TemperatureSet) == 0 {
			return nil, fmt.Errorf("model %q: discrete temperature needs temperature_allowed", e.ModelName)
		}
		return DiscreteTemperature{Allowed: e.TemperatureSet, Def: def}, nil
	default:
		return nil, fmt.Errorf("model %q: unknown temperature_constraint %q", e.ModelName, e.TemperatureHint)
	}
}

// LoadModelsFile reads the JSON registry at path and converts it to
// capability records. Malformed JSON and duplicate aliases are fatal:
// a half-loaded registry silently misroutes models, which is worse than
// refusing to start. A missing file is not an error; the registry is
// optional.
func LoadModelsFile(path string) ([]ModelCapabilities, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			L_debug("models file %s not present, skipping", path)
			return nil, nil
		}
		return nil, fmt.Errorf("read models file: %w", err)
	}

	var file modelsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse models file %s: %w", path, err)
	}

	seenAlias := make(map[string]string)
	out := make([]ModelCapabilities, 0, len(file.Models))
	for _, e := range file.Models {
		if strings.TrimSpace(e.ModelName) == "" {
			return nil, fmt.Errorf("models file %s: entry with empty model_name", path)
		}
		for _, alias := range e.Aliases {
			key := strings.ToLower(strings.TrimSpace(alias))
			if key == "" {
				continue
			}
			if prev, dup := seenAlias[key]; dup {
				return nil, fmt.Errorf("models file %s: alias %q declared for both %q and %q",
					path, alias, prev, e.ModelName)
			}
			seenAlias[key] = e.ModelName
		}

		supportsSystem := true
		if e.SupportsSystem != nil {
			supportsSystem = *e.SupportsSystem
		}
		constraint, err := temperatureFromEntry(e)
		if err != nil {
			return nil, fmt.Errorf("models file %s: %w", path, err)
		}
		ctxWindow := e.ContextWindow
		if ctxWindow <= 0 {
			ctxWindow = 32768
		}

		caps := ModelCapabilities{
			Name:                     e.ModelName,
			FriendlyName:             friendlyFromEntry(e),
			Aliases:                  cleanAliases(e.Aliases),
			ContextWindow:            ctxWindow,
			MaxOutputTokens:          e.MaxOutputTokens,
			SupportsSystemPrompt:     supportsSystem,
			SupportsStreaming:        true,
			SupportsImages:           e.SupportsImages,
			SupportsFunctionCalling:  e.SupportsFunction,
			SupportsTemperature:      e.TemperatureHint != "fixed",
			SupportsExtendedThinking: e.SupportsThinking,
			MaxImageSizeMB:           e.MaxImageSizeMB,
			Temperature:              constraint,
			IsCustom:                 e.IsCustom,
			Deployment:               e.Deployment,
		}
		switch {
		case strings.EqualFold(e.Provider, "azure"):
			if e.Deployment == "" {
				return nil, fmt.Errorf("models file %s: azure model %q needs a deployment", path, e.ModelName)
			}
			caps.Provider = KindAzure
		case e.IsCustom:
			caps.Provider = KindCustom
		default:
			caps.Provider = KindOpenRouter
		}
		out = append(out, caps)
	}

	L_info("loaded models file", "path", path, "models", len(out))
	return out, nil
}

func cleanAliases(aliases []string) []string {
	out := make([]string, 0, len(aliases))
	for _, a := range aliases {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func friendlyFromEntry(e modelEntry) string {
	if e.Description != "" {
		return e.Description
	}
	return e.ModelName
}
