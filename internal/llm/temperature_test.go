package llm

import "testing"

func TestFixedTemperature(t *testing.T) {
	c := FixedTemperature{Value: 1.0}
	if !c.Validate(1.0) {
		t.Error("exact value should validate")
	}
	if c.Validate(0.5) {
		t.Error("other values should fail validation")
	}
	if got := c.Clamp(0.5); got != 1.0 {
		t.Errorf("Clamp(0.5) = %v, want 1.0", got)
	}
	if got := c.Default(); got != 1.0 {
		t.Errorf("Default() = %v, want 1.0", got)
	}
}

func TestRangeTemperature(t *testing.T) {
	c := RangeTemperature{Min: 0, Max: 2, Def: 0.7}
	for _, v := range []float64{0, 0.7, 2} {
		if !c.Validate(v) {
			t.Errorf("Validate(%v) = false, want true", v)
		}
	}
	if c.Validate(2.1) {
		t.Error("Validate(2.1) should fail")
	}
	if got := c.Clamp(-1); got != 0 {
		t.Errorf("Clamp(-1) = %v, want 0", got)
	}
	if got := c.Clamp(3); got != 2 {
		t.Errorf("Clamp(3) = %v, want 2", got)
	}
	if got := c.Clamp(1.5); got != 1.5 {
		t.Errorf("Clamp(1.5) = %v, want 1.5", got)
	}
}

func TestDiscreteTemperature(t *testing.T) {
	c := DiscreteTemperature{Allowed: []float64{0, 0.5, 1.0}, Def: 0.5}
	if !c.Validate(0.5) {
		t.Error("allowed value should validate")
	}
	if c.Validate(0.3) {
		t.Error("disallowed value should fail validation")
	}
	if got := c.Clamp(0.6); got != 0.5 {
		t.Errorf("Clamp(0.6) = %v, want nearest 0.5", got)
	}
	// Ties resolve to the lower value.
	if got := c.Clamp(0.25); got != 0 {
		t.Errorf("Clamp(0.25) = %v, want 0 (lower wins ties)", got)
	}
}
