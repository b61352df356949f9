package llm

import (
	"math"

	"github.com/modelmux/modelmux/internal/tokens"
)

// safeInt32 converts int to int32 with bounds checking.
func safeInt32(n int) int32 {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	if n < math.MinInt32 {
		return math.MinInt32
	}
	return int32(n)
}

// baseProvider carries the table-backed half of the Provider interface.
// Concrete providers embed it and add Kind-specific Generate/Close.
type baseProvider struct {
	kind  ProviderKind
	table *modelTable
}

func newBaseProvider(kind ProviderKind, models []ModelCapabilities) (baseProvider, error) {
	table, err := newModelTable(models)
	if err != nil {
		return baseProvider{}, err
	}
	return baseProvider{kind: kind, table: table}, nil
}

func (b *baseProvider) Kind() ProviderKind { return b.kind }

func (b *baseProvider) Capabilities(nameOrAlias string) (*ModelCapabilities, error) {
	caps, ok := b.table.lookup(nameOrAlias)
	if !ok {
		return nil, ErrModelNotSupported{Provider: b.kind, Model: nameOrAlias}
	}
	if !Restrictions().IsAllowed(b.kind, caps.Name, nameOrAlias) {
		return nil, ErrModelRestricted{Provider: b.kind, Model: nameOrAlias}
	}
	return caps, nil
}

func (b *baseProvider) ListModels(respectRestrictions bool) []string {
	names := b.table.canonicalNames()
	if !respectRestrictions {
		return names
	}
	return Restrictions().Filter(b.kind, names)
}

func (b *baseProvider) ListAllKnownModels() []string {
	return b.table.allKnownNames()
}

func (b *baseProvider) Validate(nameOrAlias string) bool {
	_, ok := b.table.lookup(nameOrAlias)
	return ok
}

func (b *baseProvider) ResolveModelName(nameOrAlias string) string {
	return b.table.resolve(nameOrAlias)
}

func (b *baseProvider) SupportsThinking(nameOrAlias string) bool {
	caps, ok := b.table.lookup(nameOrAlias)
	return ok && caps.SupportsExtendedThinking
}

// EffectiveTemperature clamps the requested value into the model's
// constraint. The false return is the signal to leave temperature off
// the wire entirely.
func (b *baseProvider) EffectiveTemperature(nameOrAlias string, requested float64) (float64, bool) {
	caps, ok := b.table.lookup(nameOrAlias)
	if !ok {
		return requested, true
	}
	if !caps.SupportsTemperature {
		return 0, false
	}
	if caps.Temperature == nil {
		return requested, true
	}
	if caps.Temperature.Validate(requested) {
		return requested, true
	}
	return caps.Temperature.Clamp(requested), true
}

func (b *baseProvider) CountTokens(text string, nameOrAlias string) int {
	return tokens.EstimateText(text)
}

// thinkingBudget converts the request's thinking fraction to an absolute
// token budget for the model, zero when thinking is off or unsupported.
func (b *baseProvider) thinkingBudget(nameOrAlias string, fraction float64) int {
	if fraction <= 0 {
		return 0
	}
	caps, ok := b.table.lookup(nameOrAlias)
	if !ok || !caps.SupportsExtendedThinking || caps.MaxThinkingTokens <= 0 {
		return 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return int(float64(caps.MaxThinkingTokens) * fraction)
}

// friendlyName returns the display name for a model, falling back to the
// given name when the model is unknown.
func (b *baseProvider) friendlyName(nameOrAlias string) string {
	if caps, ok := b.table.lookup(nameOrAlias); ok && caps.FriendlyName != "" {
		return caps.FriendlyName
	}
	return nameOrAlias
}
