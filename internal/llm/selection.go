package llm

import (
	. "github.com/modelmux/modelmux/internal/logging"
)

// ToolCategory expresses what kind of model a tool wants when the caller
// delegates selection with "auto".
type ToolCategory int

const (
	// FastResponse favors low-latency models: quick chats, summaries.
	FastResponse ToolCategory = iota
	// Balanced favors general-purpose models.
	Balanced
	// ExtendedReasoning favors deep-thinking models: debugging, review.
	ExtendedReasoning
)

func (c ToolCategory) String() string {
	switch c {
	case FastResponse:
		return "fast_response"
	case ExtendedReasoning:
		return "extended_reasoning"
	default:
		return "balanced"
	}
}

// PreferredFallback picks a model for the category from whatever is
// registered and allowed, walking providers in priority order. Within a
// provider the category maps to variant hints on the capability records;
// when no record carries the hint the provider's first allowed model is
// the candidate. Returns "" when nothing at all is available.
func (r *Registry) PreferredFallback(category ToolCategory) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, kind := range KindPriority {
		p, ok := r.providers[kind]
		if !ok {
			continue
		}
		allowed := p.ListModels(true)
		if len(allowed) == 0 {
			continue
		}
		if name := pickByCategory(p, allowed, category); name != "" {
			L_debug("selection: category %s -> %s (%s)", category, name, kind)
			return name
		}
	}
	return ""
}

// pickByCategory maps the category onto variant hints, with window-size
// tie-breakers when no record carries the hint: reasoning falls back to
// the largest context window, fast to the smallest, balanced to the fast
// pick. Returns "" when no candidate has usable capabilities.
func pickByCategory(p Provider, allowed []string, category ToolCategory) string {
	var fast, balanced, thinking string
	var smallest, largest string
	var smallestWin, largestWin int
	for _, name := range allowed {
		caps, err := p.Capabilities(name)
		if err != nil {
			continue
		}
		if fast == "" && caps.FastVariant {
			fast = name
		}
		if balanced == "" && caps.BalancedVariant {
			balanced = name
		}
		if thinking == "" && caps.SupportsExtendedThinking {
			thinking = name
		}
		if smallest == "" || caps.ContextWindow < smallestWin {
			smallest, smallestWin = name, caps.ContextWindow
		}
		if largest == "" || caps.ContextWindow > largestWin {
			largest, largestWin = name, caps.ContextWindow
		}
	}

	switch category {
	case FastResponse:
		if fast != "" {
			return fast
		}
		return smallest
	case ExtendedReasoning:
		if thinking != "" {
			return thinking
		}
		return largest
	default:
		if balanced != "" {
			return balanced
		}
		if fast != "" {
			return fast
		}
		return smallest
	}
}
