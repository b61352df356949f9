// Package llm provides the unified provider interfaces, capability model
// and registry for modelmux.
package llm

import (
	"fmt"
	"sort"
	"strings"
)

// TemperatureConstraint describes what temperature values a model accepts.
// It is consulted twice per request: once to validate or clamp the caller's
// value, and once at wire serialization (a model with
// SupportsTemperature=false never transmits temperature at all, whatever
// its constraint says).
type TemperatureConstraint interface {
	// Validate reports whether t is acceptable as-is.
	Validate(t float64) bool
	// Clamp maps t onto the nearest acceptable value.
	Clamp(t float64) float64
	// Default returns the value used when the caller supplies none.
	Default() float64
	// Describe renders the constraint for error messages and schemas.
	Describe() string
}

// FixedTemperature only ever accepts a single value.
type FixedTemperature struct {
	Value float64
}

func (c FixedTemperature) Validate(t float64) bool { return t == c.Value }
func (c FixedTemperature) Clamp(float64) float64   { return c.Value }
func (c FixedTemperature) Default() float64        { return c.Value }
func (c FixedTemperature) Describe() string {
	return fmt.Sprintf("fixed at %g", c.Value)
}

// RangeTemperature accepts any value in [Min, Max].
type RangeTemperature struct {
	Min, Max, Def float64
}

func (c RangeTemperature) Validate(t float64) bool { return t >= c.Min && t <= c.Max }

func (c RangeTemperature) Clamp(t float64) float64 {
	if t < c.Min {
		return c.Min
	}
	if t > c.Max {
		return c.Max
	}
	return t
}

func (c RangeTemperature) Default() float64 { return c.Def }
func (c RangeTemperature) Describe() string {
	return fmt.Sprintf("range [%g, %g], default %g", c.Min, c.Max, c.Def)
}

// DiscreteTemperature accepts only an explicit set of values.
type DiscreteTemperature struct {
	Allowed []float64
	Def     float64
}

func (c DiscreteTemperature) Validate(t float64) bool {
	for _, v := range c.Allowed {
		if v == t {
			return true
		}
	}
	return false
}

// Clamp returns the nearest allowed value, lower value winning ties.
func (c DiscreteTemperature) Clamp(t float64) float64 {
	if len(c.Allowed) == 0 {
		return c.Def
	}
	sorted := append([]float64(nil), c.Allowed...)
	sort.Float64s(sorted)
	best := sorted[0]
	bestDist := abs(t - best)
	for _, v := range sorted[1:] {
		if d := abs(t - v); d < bestDist {
			best, bestDist = v, d
		}
	}
	return best
}

func (c DiscreteTemperature) Default() float64 { return c.Def }

func (c DiscreteTemperature) Describe() string {
	parts := make([]string, len(c.Allowed))
	for i, v := range c.Allowed {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return fmt.Sprintf("one of {%s}, default %g", strings.Join(parts, ", "), c.Def)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
