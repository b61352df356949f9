package llm

import (
	"fmt"
	"strings"
)

// ProviderKind identifies a back-end family. Each kind has its own wire
// format and authentication style; the string form is carried in logs,
// response metadata and restriction lookups.
type ProviderKind string

const (
	KindGemini     ProviderKind = "gemini"
	KindOpenAI     ProviderKind = "openai"
	KindAnthropic  ProviderKind = "anthropic"
	KindXAI        ProviderKind = "xai"
	KindOpenRouter ProviderKind = "openrouter"
	KindCustom     ProviderKind = "custom"
	KindAzure      ProviderKind = "azure"
)

// KindPriority is the order in which providers are consulted when
// resolving a bare model name and when auto-selecting a model for a
// category. Native providers come first, then aggregator, custom, hosted.
var KindPriority = []ProviderKind{
	KindGemini,
	KindOpenAI,
	KindAnthropic,
	KindXAI,
	KindOpenRouter,
	KindCustom,
	KindAzure,
}

// ModelCapabilities is the static description of one model: its limits and
// which request parameters the runtime may transmit.
type ModelCapabilities struct {
	Provider     ProviderKind
	Name         string   // canonical wire name
	FriendlyName string   // human-readable name for metadata/errors
	Aliases      []string // case-insensitive, unique within the provider

	ContextWindow   int // total tokens
	MaxOutputTokens int

	SupportsSystemPrompt     bool
	SupportsStreaming        bool
	SupportsImages           bool
	SupportsFunctionCalling  bool
	SupportsTemperature      bool
	SupportsExtendedThinking bool

	MaxImageSizeMB    float64
	MaxThinkingTokens int

	Temperature TemperatureConstraint

	// IsCustom marks models declared in the custom-models registry file.
	IsCustom bool
	// IsGeneric marks conservative placeholder records for models the
	// aggregator accepted without metadata; parameter validation against
	// a generic record is advisory only.
	IsGeneric bool

	// Variant hints used by auto-mode selection.
	FastVariant     bool
	BalancedVariant bool

	// Deployment is the hosted (azure) deployment name serving this
	// model. Only the azure provider consumes it.
	Deployment string
}

// modelTable is a lookup structure built once per provider from its
// capability records. All lookups are case-insensitive and pure.
type modelTable struct {
	byName  map[string]*ModelCapabilities // canonical name -> caps
	byAlias map[string]string             // alias -> canonical name
	order   []string                      // canonical names, declaration order
}

// newModelTable indexes capability records. Duplicate canonical names or
// duplicate aliases within the provider are configuration errors.
func newModelTable(models []ModelCapabilities) (*modelTable, error) {
	t := &modelTable{
		byName:  make(map[string]*ModelCapabilities, len(models)),
		byAlias: make(map[string]string),
	}
	for i := range models {
		m := &models[i]
		key := strings.ToLower(m.Name)
		if _, dup := t.byName[key]; dup {
			return nil, fmt.Errorf("duplicate model %q for provider %s", m.Name, m.Provider)
		}
		t.byName[key] = m
		t.order = append(t.order, m.Name)
	}
	for i := range models {
		m := &models[i]
		canonical := strings.ToLower(m.Name)
		for _, alias := range m.Aliases {
			key := strings.ToLower(alias)
			if prev, dup := t.byAlias[key]; dup && prev != canonical {
				return nil, fmt.Errorf("alias %q maps to both %q and %q in provider %s",
					alias, prev, m.Name, m.Provider)
			}
			if other, isName := t.byName[key]; isName && strings.ToLower(other.Name) != canonical {
				return nil, fmt.Errorf("alias %q of %q collides with model %q in provider %s",
					alias, m.Name, other.Name, m.Provider)
			}
			t.byAlias[key] = canonical
		}
	}
	return t, nil
}

// resolve maps a name or alias to the canonical name. Unknown input is
// returned unchanged, per the provider contract.
func (t *modelTable) resolve(nameOrAlias string) string {
	key := strings.ToLower(nameOrAlias)
	if canonical, ok := t.byAlias[key]; ok {
		return t.byName[canonical].Name
	}
	if m, ok := t.byName[key]; ok {
		return m.Name
	}
	return nameOrAlias
}

// lookup returns the capability record for a name or alias.
func (t *modelTable) lookup(nameOrAlias string) (*ModelCapabilities, bool) {
	key := strings.ToLower(t.resolve(nameOrAlias))
	m, ok := t.byName[key]
	return m, ok
}

// canonicalNames returns canonical names in declaration order.
func (t *modelTable) canonicalNames() []string {
	return append([]string(nil), t.order...)
}

// allKnownNames returns the union of canonical names and aliases,
// lowercased and deduplicated. Used only by restriction validation; the
// breadth matters so that an allow-list naming an alias is not flagged as
// unknown.
func (t *modelTable) allKnownNames() []string {
	seen := make(map[string]bool, len(t.byName)+len(t.byAlias))
	var out []string
	for _, name := range t.order {
		key := strings.ToLower(name)
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	for alias := range t.byAlias {
		if !seen[alias] {
			seen[alias] = true
			out = append(out, alias)
		}
	}
	return out
}
