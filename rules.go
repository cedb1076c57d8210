package claimcheck

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Claim names every token must carry, and nothing else.
const (
	ClaimName = "Name"
	ClaimRole = "Role"
	ClaimSeed = "Seed"
)

// MaxNameLength bounds the Name claim, counted in characters rather than bytes.
const MaxNameLength = 256

var requiredClaims = [...]string{ClaimName, ClaimRole, ClaimSeed}

var allowedRoles = [...]string{"Admin", "Member", "External"}

var nameLettersRe = regexp.MustCompile(`^[A-Za-z]+$`)

// RequiredClaims returns the fixed claim set a token must match exactly.
func RequiredClaims() []string {
	return append([]string(nil), requiredClaims[:]...)
}

// AllowedRoles returns the accepted values of the Role claim.
func AllowedRoles() []string {
	return append([]string(nil), allowedRoles[:]...)
}

// Rule validates the string value of a single claim.
type Rule interface {
	// Claim returns the claim name the rule is registered under.
	Claim() string
	// Validate reports whether value satisfies the rule.
	Validate(value string) bool
}

// NameRule accepts ASCII letter names up to MaxNameLength characters.
// Whitespace anywhere in the value is ignored, but at least one letter is required.
type NameRule struct{}

// Claim implements Rule.
func (NameRule) Claim() string { return ClaimName }

// Validate implements Rule.
func (NameRule) Validate(value string) bool {
	if utf8.RuneCountInString(value) > MaxNameLength {
		return false
	}
	return nameLettersRe.MatchString(stripSpace(value))
}

// RoleRule accepts exactly one of AllowedRoles, case-sensitive.
type RoleRule struct{}

// Claim implements Rule.
func (RoleRule) Claim() string { return ClaimRole }

// Validate implements Rule.
func (RoleRule) Validate(value string) bool {
	return slices.Contains(allowedRoles[:], value)
}

// SeedRule accepts decimal 32-bit integers that are prime.
type SeedRule struct{}

// Claim implements Rule.
func (SeedRule) Claim() string { return ClaimSeed }

// Validate implements Rule.
func (SeedRule) Validate(value string) bool {
	n, ok := ParseSeed(value)
	return ok && IsPrime(n)
}

// ParseSeed parses a Seed claim value as a strict base-10 32-bit integer.
// Only a leading '-' sign is accepted; out of range values fail.
func ParseSeed(value string) (int64, bool) {
	if value == "" || value[0] == '+' {
		return 0, false
	}
	n, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return 0, false
	}
	return n, true
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
