package claimcheck

import (
	"strings"
	"testing"
)

func TestNameRule(t *testing.T) {
	rule := NameRule{}
	if rule.Claim() != ClaimName {
		t.Fatalf("unexpected claim name: %s", rule.Claim())
	}

	valid := []string{
		"Toninho Araujo",
		"Valdir Aranha",
		"a",
		"  Maria\tOlivia\n",
		"Ana\u00a0Lima", // no-break space is whitespace too
		strings.Repeat("A", MaxNameLength),
	}
	for _, v := range valid {
		if !rule.Validate(v) {
			t.Fatalf("expected valid name: %q", v)
		}
	}

	invalid := []string{
		"",
		"   ",
		"\t\n",
		"M4ria Olivia",
		"José Silva",
		"O'Neil",
		"Anne-Marie",
		strings.Repeat("A", MaxNameLength+1),
	}
	for _, v := range invalid {
		if rule.Validate(v) {
			t.Fatalf("expected invalid name: %q", v)
		}
	}
}

func TestNameRule_LengthCountsCharacters(t *testing.T) {
	// 256 characters, of which the spaces are multi-byte: still within bounds
	// by character count, and letters remain after stripping.
	value := strings.Repeat("a\u3000", MaxNameLength/2)
	if len(value) <= MaxNameLength {
		t.Fatalf("fixture should exceed the bound in bytes, got %d", len(value))
	}
	if !(NameRule{}).Validate(value) {
		t.Fatalf("expected %d-character name to be accepted", MaxNameLength)
	}
	if (NameRule{}).Validate(value + "a") {
		t.Fatalf("expected %d-character name to be rejected", MaxNameLength+1)
	}
}

func TestRoleRule(t *testing.T) {
	rule := RoleRule{}
	if rule.Claim() != ClaimRole {
		t.Fatalf("unexpected claim name: %s", rule.Claim())
	}
	for _, v := range []string{"Admin", "Member", "External"} {
		if !rule.Validate(v) {
			t.Fatalf("expected valid role: %q", v)
		}
	}
	for _, v := range []string{"SuperAdmin", "admin", "ADMIN", "", " Admin", "Admin ", "member"} {
		if rule.Validate(v) {
			t.Fatalf("expected invalid role: %q", v)
		}
	}
}

func TestAllowedRolesReturnsCopy(t *testing.T) {
	roles := AllowedRoles()
	roles[0] = "Root"
	if !(RoleRule{}).Validate("Admin") || (RoleRule{}).Validate("Root") {
		t.Fatalf("mutating AllowedRoles result must not change the rule")
	}
}

func TestSeedRule(t *testing.T) {
	rule := SeedRule{}
	if rule.Claim() != ClaimSeed {
		t.Fatalf("unexpected claim name: %s", rule.Claim())
	}
	cases := map[string]bool{
		"7841":        true,
		"72341":       true,
		"2":           true,
		"2147483647":  true,
		"10":          false,
		"1":           false,
		"0":           false,
		"-7":          false,
		"abc":         false,
		"":            false,
		"+7":          false,
		" 7":          false,
		"7 ":          false,
		"7.0":         false,
		"0x7":         false,
		"2147483648":  false,
		"-2147483649": false,
		"99999999999": false,
	}
	for value, want := range cases {
		if got := rule.Validate(value); got != want {
			t.Fatalf("SeedRule.Validate(%q) = %v, want %v", value, got, want)
		}
	}
}

func TestParseSeed(t *testing.T) {
	n, ok := ParseSeed("-7")
	if !ok || n != -7 {
		t.Fatalf("ParseSeed(-7) = %d, %v", n, ok)
	}
	if _, ok := ParseSeed("2147483648"); ok {
		t.Fatalf("expected overflow to fail")
	}
	n, ok = ParseSeed("-2147483648")
	if !ok || n != -2147483648 {
		t.Fatalf("ParseSeed(min int32) = %d, %v", n, ok)
	}
}

func TestRequiredClaimsReturnsCopy(t *testing.T) {
	got := RequiredClaims()
	if len(got) != 3 || got[0] != ClaimName || got[1] != ClaimRole || got[2] != ClaimSeed {
		t.Fatalf("unexpected required claims: %v", got)
	}
	got[0] = "Org"
	if RequiredClaims()[0] != ClaimName {
		t.Fatalf("required claims must not be mutable through the returned slice")
	}
}
