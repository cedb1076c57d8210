package claimcheck

import (
	"maps"
	"slices"
)

// Registry maps claim names to the rule that validates them.
// It is populated by NewRegistry and read-only afterwards, so a single
// instance can be shared by concurrent validations without locking.
type Registry struct {
	rules map[string]Rule
}

// NewRegistry registers each rule under its claim name. A later rule for the
// same claim replaces an earlier one; nil rules are skipped.
func NewRegistry(rules ...Rule) *Registry {
	r := &Registry{rules: make(map[string]Rule, len(rules))}
	for _, rule := range rules {
		r.register(rule)
	}
	return r
}

// DefaultRegistry returns a registry holding the Name, Role and Seed rules.
func DefaultRegistry() *Registry {
	return NewRegistry(NameRule{}, RoleRule{}, SeedRule{})
}

func (r *Registry) register(rule Rule) {
	if rule == nil {
		return
	}
	r.rules[rule.Claim()] = rule
}

// Lookup returns the rule registered for claim.
func (r *Registry) Lookup(claim string) (Rule, bool) {
	if r == nil {
		return nil, false
	}
	rule, ok := r.rules[claim]
	return rule, ok
}

// Claims lists the registered claim names in sorted order.
func (r *Registry) Claims() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.rules))
}
