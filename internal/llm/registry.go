package llm

import (
	"sort"
	"strings"
	"sync"

	. "github.com/modelmux/modelmux/internal/logging"
)

// Registry holds the providers enabled by configuration and answers
// model-to-provider routing. Lookup never constructs clients or performs
// I/O: a provider registers at startup or not at all.
type Registry struct {
	mu        sync.RWMutex
	providers map[ProviderKind]Provider
}

var (
	globalRegistryMu sync.RWMutex
	globalRegistry   *Registry
)

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[ProviderKind]Provider)}
}

// SetGlobalRegistry installs the process-wide registry.
func SetGlobalRegistry(r *Registry) {
	globalRegistryMu.Lock()
	defer globalRegistryMu.Unlock()
	globalRegistry = r
}

// GetGlobalRegistry returns the process-wide registry, creating an empty
// one on first use so callers never see nil.
func GetGlobalRegistry() *Registry {
	globalRegistryMu.Lock()
	defer globalRegistryMu.Unlock()
	if globalRegistry == nil {
		globalRegistry = NewRegistry()
	}
	return globalRegistry
}

// Register adds a provider. Registering the same kind twice replaces the
// earlier instance; startup wiring relies on this for tests.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.providers[p.Kind()]; dup {
		L_warn("registry: replacing provider", "kind", p.Kind())
	}
	r.providers[p.Kind()] = p
	L_debug("registry: registered provider %s", p.Kind())
}

// ProviderFor returns the provider for a kind, or nil.
func (r *Registry) ProviderFor(kind ProviderKind) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[kind]
}

// ProviderForModel walks registered providers in priority order and
// returns the first that recognizes the name, alongside its canonical
// form. Restriction-denied matches are skipped so a later provider can
// still serve a same-named model. Returns (nil, "") when nobody claims
// the name.
func (r *Registry) ProviderForModel(nameOrAlias string) (Provider, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, kind := range KindPriority {
		p, ok := r.providers[kind]
		if !ok || !p.Validate(nameOrAlias) {
			continue
		}
		canonical := p.ResolveModelName(nameOrAlias)
		if !Restrictions().IsAllowed(kind, canonical, nameOrAlias) {
			L_debug("registry: %s knows %s but restriction policy denies it", kind, nameOrAlias)
			continue
		}
		return p, canonical
	}
	return nil, ""
}

// Providers returns registered providers keyed by kind. The map is a
// copy; mutating it does not affect the registry.
func (r *Registry) Providers() map[ProviderKind]Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[ProviderKind]Provider, len(r.providers))
	for k, p := range r.providers {
		out[k] = p
	}
	return out
}

// AvailableProviders returns registered kinds in priority order.
func (r *Registry) AvailableProviders() []ProviderKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ProviderKind, 0, len(r.providers))
	for _, kind := range KindPriority {
		if _, ok := r.providers[kind]; ok {
			out = append(out, kind)
		}
	}
	return out
}

// AvailableModels returns every canonical model name currently usable,
// restriction-filtered, across all providers. Sorted and deduplicated;
// the name keeps its first-claiming provider's casing.
func (r *Registry) AvailableModels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, kind := range KindPriority {
		p, ok := r.providers[kind]
		if !ok {
			continue
		}
		for _, name := range p.ListModels(true) {
			key := strings.ToLower(name)
			if !seen[key] {
				seen[key] = true
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Clear removes all providers, closing each. Test support.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for kind, p := range r.providers {
		if err := p.Close(); err != nil {
			L_warn("registry: close failed", "kind", kind, "error", err)
		}
		delete(r.providers, kind)
	}
}
