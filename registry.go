package thailint

import (
	"fmt"
	"sort"
)

// Registry maps rule ids to Rule instances. It is fully built before
// dispatch begins and read-only afterwards, so concurrent lookups during
// the parallel check phase need no locking.
type Registry struct {
	rules  map[string]Rule
	sealed bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

// Register adds a rule, rejecting duplicate ids. A duplicate id is a
// fatal configuration error raised at startup, not per file.
func (r *Registry) Register(rule Rule) error {
	if r.sealed {
		return NewConfigError(fmt.Sprintf("registry is sealed, cannot register rule %q", rule.ID()), nil)
	}
	if rule.ID() == "" {
		return NewConfigError("rule has an empty id", nil)
	}
	if _, exists := r.rules[rule.ID()]; exists {
		return NewConfigError(fmt.Sprintf("duplicate rule id %q", rule.ID()), nil)
	}
	r.rules[rule.ID()] = rule
	return nil
}

// Seal marks the registry immutable. Called once startup registration
// is complete, before any file is dispatched.
func (r *Registry) Seal() {
	r.sealed = true
}

// Get retrieves a rule by id.
func (r *Registry) Get(id string) (Rule, bool) {
	rule, ok := r.rules[id]
	return rule, ok
}

// All returns every registered rule sorted by id. Registration order is
// unspecified; rule id is the only stable identity downstream.
func (r *Registry) All() []Rule {
	rules := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID() < rules[j].ID() })
	return rules
}

// Applicable returns the rules handling the given language, sorted by id.
func (r *Registry) Applicable(lang Language) []Rule {
	var rules []Rule
	for _, rule := range r.All() {
		if appliesTo(rule, lang) {
			rules = append(rules, rule)
		}
	}
	return rules
}

// Stateful returns every registered rule that implements a finalize
// pass, sorted by id.
func (r *Registry) Stateful() []StatefulRule {
	var rules []StatefulRule
	for _, rule := range r.All() {
		if sr, ok := rule.(StatefulRule); ok {
			rules = append(rules, sr)
		}
	}
	return rules
}

// defaultRules is the explicit registration manifest. Every shipped rule
// is listed here; there is no runtime discovery or reflection.
func defaultRules(cfg Config, resolver *IgnoreResolver, cache *DryCache) []Rule {
	return []Rule{
		newMagicNumberRule(cfg),
		newPrintStatementRule(cfg),
		newNestingDepthRule(cfg),
		newMutableDefaultArgRule(cfg),
		newBroadExceptRule(cfg),
		newDuplicateCodeRule(cfg, resolver, cache),
	}
}

// buildRegistry registers the default manifest, failing fast on any
// registration error.
func buildRegistry(rules []Rule) (*Registry, error) {
	registry := NewRegistry()
	for _, rule := range rules {
		if err := registry.Register(rule); err != nil {
			return nil, err
		}
	}
	registry.Seal()
	return registry, nil
}
