package llm

import (
	"strings"
	"sync"

	"github.com/modelmux/modelmux/internal/config"
	. "github.com/modelmux/modelmux/internal/logging"
)

// RestrictionService holds per-provider allow-lists. Immutable after
// construction; an empty or absent set means the provider is
// unrestricted.
type RestrictionService struct {
	allowed map[ProviderKind]map[string]bool
}

var (
	restrictionsMu sync.RWMutex
	restrictions   *RestrictionService
)

// SetRestrictions installs the process-wide restriction service. Called
// once at startup; tests call it again after flipping configuration.
func SetRestrictions(s *RestrictionService) {
	restrictionsMu.Lock()
	defer restrictionsMu.Unlock()
	restrictions = s
}

// Restrictions returns the process-wide restriction service, defaulting
// to an unrestricted one.
func Restrictions() *RestrictionService {
	restrictionsMu.RLock()
	defer restrictionsMu.RUnlock()
	if restrictions == nil {
		return &RestrictionService{}
	}
	return restrictions
}

// NewRestrictionService parses the configured allow-lists. Entries are
// comma-separated, whitespace-trimmed and lowercased.
func NewRestrictionService(cfg *config.Config) *RestrictionService {
	s := &RestrictionService{allowed: make(map[ProviderKind]map[string]bool)}
	raw := map[ProviderKind]string{
		KindGemini:     cfg.GeminiAllowed,
		KindOpenAI:     cfg.OpenAIAllowed,
		KindAnthropic:  cfg.AnthropicAllowed,
		KindXAI:        cfg.XAIAllowed,
		KindOpenRouter: cfg.OpenRouterAllowed,
		KindCustom:     cfg.CustomAllowed,
		KindAzure:      cfg.AzureAllowed,
	}
	for kind, list := range raw {
		set := parseAllowList(list)
		if len(set) > 0 {
			s.allowed[kind] = set
			L_info("restrictions: allow-list active", "provider", kind, "models", len(set))
		}
	}
	return s
}

func parseAllowList(raw string) map[string]bool {
	set := make(map[string]bool)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry != "" {
			set[entry] = true
		}
	}
	return set
}

// IsAllowed reports whether a model may be used. canonical is the
// resolved wire name; original is the token the caller actually supplied
// (alias or canonical, pass "" when they are the same). The model is
// allowed when either name appears in the set. Resolution runs before
// this check: naming one alias in the allow-list does not open a
// different alias of the same model, but it does open the canonical it
// resolves to, and vice versa.
func (s *RestrictionService) IsAllowed(provider ProviderKind, canonical, original string) bool {
	set, restricted := s.allowed[provider]
	if !restricted || len(set) == 0 {
		return true
	}
	if set[strings.ToLower(canonical)] {
		return true
	}
	return original != "" && set[strings.ToLower(original)]
}

// Filter keeps only the names allowed for the provider.
func (s *RestrictionService) Filter(provider ProviderKind, names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if s.IsAllowed(provider, n, "") {
			out = append(out, n)
		}
	}
	return out
}

// HasRestrictions reports whether the provider carries an allow-list.
func (s *RestrictionService) HasRestrictions(provider ProviderKind) bool {
	return len(s.allowed[provider]) > 0
}

// ValidateAgainstKnown warns about allow-list entries no provider model
// answers to. Non-fatal: an unknown entry is dead weight, not an error,
// because registries evolve independently of configuration.
func (s *RestrictionService) ValidateAgainstKnown(providers map[ProviderKind]Provider) {
	for kind, set := range s.allowed {
		p, ok := providers[kind]
		if !ok {
			continue
		}
		known := make(map[string]bool)
		for _, name := range p.ListAllKnownModels() {
			known[name] = true
		}
		for entry := range set {
			if !known[entry] {
				L_warn("restrictions: entry matches no known model",
					"provider", kind, "entry", entry)
			}
		}
	}
}
