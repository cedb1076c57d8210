package claimcheck

import (
	"maps"
	"slices"
)

// Claims is the decoded payload of a token, keyed by claim name.
// Values keep whatever type the decoder produced; only strings can satisfy a rule.
type Claims map[string]any

// Names returns the claim names present in the payload, sorted.
func (c Claims) Names() []string {
	return slices.Sorted(maps.Keys(c))
}

// Has reports whether the claim is present, whatever its value.
func (c Claims) Has(name string) bool {
	_, ok := c[name]
	return ok
}

// String returns the claim value when it is present as a JSON string.
func (c Claims) String(name string) (string, bool) {
	v, ok := c[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// CallerClaims is the typed view of a token that passed validation.
type CallerClaims struct {
	Name string
	Role string
	Seed int64
}

func callerClaimsFrom(c Claims) *CallerClaims {
	name, _ := c.String(ClaimName)
	role, _ := c.String(ClaimRole)
	raw, _ := c.String(ClaimSeed)
	seed, _ := ParseSeed(raw)
	return &CallerClaims{Name: name, Role: role, Seed: seed}
}
