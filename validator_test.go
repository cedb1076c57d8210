package claimcheck

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestValidators(t *testing.T) map[DecoderKind]*Validator {
	t.Helper()
	out := make(map[DecoderKind]*Validator, 2)
	for _, kind := range []DecoderKind{DecoderJWX, DecoderGolangJWT} {
		v, err := NewValidator(Config{Decoder: kind})
		if err != nil {
			t.Fatalf("NewValidator(%s): %v", kind, err)
		}
		out[kind] = v
	}
	return out
}

func withClaim(base map[string]string, name, value string) map[string]string {
	out := make(map[string]string, len(base)+1)
	for k, v := range base {
		out[k] = v
	}
	out[name] = value
	return out
}

func withoutClaim(base map[string]string, name string) map[string]string {
	out := make(map[string]string, len(base))
	for k, v := range base {
		if k != name {
			out[k] = v
		}
	}
	return out
}

func TestValidator_Scenarios(t *testing.T) {
	sample := SampleClaims()

	cases := []struct {
		name  string
		token string
		want  bool
		code  ErrorCode
	}{
		{"valid token", mustMint(t, sample), true, ""},
		{"member with other prime", mustMint(t, map[string]string{"Name": "Valdir Aranha", "Role": "Member", "Seed": "14627"}), true, ""},
		{"external role", mustMint(t, withClaim(sample, ClaimRole, "External")), true, ""},
		{"extra claim", mustMint(t, withClaim(sample, "Org", "BR")), false, ErrCodeClaimSetMismatch},
		{"missing seed", mustMint(t, withoutClaim(sample, ClaimSeed)), false, ErrCodeClaimSetMismatch},
		{"name with digit", mustMint(t, map[string]string{"Name": "M4ria Olivia", "Role": "External", "Seed": "72341"}), false, ErrCodeRuleViolation},
		{"name too long", mustMint(t, withClaim(sample, ClaimName, strings.Repeat("A", 257))), false, ErrCodeRuleViolation},
		{"name only whitespace", mustMint(t, withClaim(sample, ClaimName, "   ")), false, ErrCodeRuleViolation},
		{"role not allowed", mustMint(t, withClaim(sample, ClaimRole, "SuperAdmin")), false, ErrCodeRuleViolation},
		{"role wrong case", mustMint(t, withClaim(sample, ClaimRole, "admin")), false, ErrCodeRuleViolation},
		{"seed not prime", mustMint(t, withClaim(sample, ClaimSeed, "10")), false, ErrCodeRuleViolation},
		{"seed not a number", mustMint(t, withClaim(sample, ClaimSeed, "abc")), false, ErrCodeRuleViolation},
		{"seed negative", mustMint(t, withClaim(sample, ClaimSeed, "-7")), false, ErrCodeRuleViolation},
		{"seed numeric claim", signAny(t, map[string]any{"Name": "Toninho Araujo", "Role": "Admin", "Seed": 7841}), false, ErrCodeRuleViolation},
		{"null name", rawToken(`{"alg":"HS256","typ":"JWT"}`, `{"Name":null,"Role":"Admin","Seed":"7841"}`), false, ""},
		{"registered claim added", signAny(t, map[string]any{"Name": "Toninho Araujo", "Role": "Admin", "Seed": "7841", "iat": 1700000000}), false, ErrCodeClaimSetMismatch},
		{"header without alg", rawToken(`{"typ":"JWT"}`, `{"Name":"Toninho Araujo","Role":"Admin","Seed":"7841"}`), true, ""},
		{"header with unknown alg", rawToken(`{"alg":"XYZ"}`, `{"Name":"Toninho Araujo","Role":"Admin","Seed":"7841"}`), true, ""},
		{"empty payload", rawToken(`{"alg":"HS256","typ":"JWT"}`, `{}`), false, ErrCodeClaimSetMismatch},
		{"malformed token", malformedToken, false, ErrCodeDecode},
		{"arbitrary text", "invalid.jwt.token", false, ErrCodeDecode},
		{"empty token", "", false, ErrCodeDecode},
	}

	for kind, validator := range newTestValidators(t) {
		for _, tc := range cases {
			t.Run(string(kind)+"/"+tc.name, func(t *testing.T) {
				if got := validator.Validate(tc.token); got != tc.want {
					t.Fatalf("Validate = %v, want %v", got, tc.want)
				}
				_, err := validator.Check(tc.token)
				if tc.want {
					if err != nil {
						t.Fatalf("Check: %v", err)
					}
					return
				}
				var e *Error
				if !errors.As(err, &e) {
					t.Fatalf("expected *Error, got %T (%v)", err, err)
				}
				// A null claim may be kept or dropped by the decoder; only the outcome is fixed.
				if tc.code != "" && e.Code != tc.code {
					t.Fatalf("expected %s, got %s (%v)", tc.code, e.Code, err)
				}
			})
		}
	}
}

func TestValidator_CheckReturnsCallerClaims(t *testing.T) {
	validator, err := NewValidator(Config{})
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	caller, err := validator.Check(mustMint(t, SampleClaims()))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if caller.Name != "Toninho Araujo" || caller.Role != "Admin" || caller.Seed != 7841 {
		t.Fatalf("unexpected caller claims: %+v", caller)
	}
}

func TestValidator_RuleViolationNamesClaim(t *testing.T) {
	validator, err := NewValidator(Config{})
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	_, err = validator.Check(mustMint(t, withClaim(SampleClaims(), ClaimSeed, "10")))
	var e *Error
	if !errors.As(err, &e) || e.Claim != ClaimSeed {
		t.Fatalf("expected Seed violation, got %v", err)
	}
	if CodeOf(err) != ErrCodeRuleViolation {
		t.Fatalf("unexpected code: %s", CodeOf(err))
	}
}

func TestValidator_UnregisteredRule(t *testing.T) {
	validator, err := NewValidator(Config{Registry: NewRegistry(NameRule{}, RoleRule{})})
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	token := mustMint(t, SampleClaims())
	if validator.Validate(token) {
		t.Fatalf("expected false when the Seed rule is missing")
	}
	if _, err := validator.Check(token); CodeOf(err) != ErrCodeUnregisteredRule {
		t.Fatalf("expected unregistered rule, got %v", err)
	}
}

func TestValidator_CustomRuleReplacesDefault(t *testing.T) {
	registry := NewRegistry(NameRule{}, RoleRule{}, SeedRule{}, stubRule{claim: ClaimRole, result: true})
	validator, err := NewValidator(Config{Registry: registry})
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	if !validator.Validate(mustMint(t, withClaim(SampleClaims(), ClaimRole, "SuperAdmin"))) {
		t.Fatalf("expected the replacement Role rule to accept SuperAdmin")
	}
	// The claim set itself is fixed: an extra claim is still rejected.
	if validator.Validate(mustMint(t, withClaim(SampleClaims(), "Org", "BR"))) {
		t.Fatalf("expected extra claim to be rejected")
	}
}

type panicDecoder struct{}

func (panicDecoder) Decode(string) (Claims, error) { panic("boom") }

func TestValidator_RecoversFromPanics(t *testing.T) {
	validator, err := NewValidator(Config{DecoderImpl: panicDecoder{}})
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	if validator.Validate("anything") {
		t.Fatalf("expected false")
	}
	if _, err := validator.Check("anything"); CodeOf(err) != ErrCodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestNewValidator_UnknownDecoder(t *testing.T) {
	if _, err := NewValidator(Config{Decoder: "auth0"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidator_Idempotent(t *testing.T) {
	validator, err := NewValidator(Config{})
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	valid := mustMint(t, SampleClaims())
	invalid := mustMint(t, withClaim(SampleClaims(), "Org", "BR"))
	for i := 0; i < 3; i++ {
		if !validator.Validate(valid) {
			t.Fatalf("run %d: expected valid token to pass", i)
		}
		if validator.Validate(invalid) {
			t.Fatalf("run %d: expected invalid token to fail", i)
		}
	}
}

func TestValidator_ConcurrentUse(t *testing.T) {
	validator, err := NewValidator(Config{})
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	valid := mustMint(t, SampleClaims())
	invalid := mustMint(t, withClaim(SampleClaims(), ClaimSeed, "10"))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []string
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if !validator.Validate(valid) || validator.Validate(invalid) {
					mu.Lock()
					failures = append(failures, "unexpected result")
					mu.Unlock()
					return
				}
			}
		}(i)
	}
	wg.Wait()
	if len(failures) > 0 {
		t.Fatalf("%d goroutines observed inconsistent results", len(failures))
	}
}

func TestValidator_LogsFailureReasons(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	validator, err := NewValidator(Config{Logger: zap.New(core)})
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}

	validator.Validate("not-a-token")
	if got := logs.FilterMessage("failed to decode token").FilterLevelExact(zapcore.WarnLevel).Len(); got != 1 {
		t.Fatalf("expected one decode warning, got %d", got)
	}

	validator.Validate(mustMint(t, withClaim(SampleClaims(), "Org", "BR")))
	if got := logs.FilterMessage("token carries unexpected claims").Len(); got != 1 {
		t.Fatalf("expected one unexpected-claims warning, got %d", got)
	}

	validator.Validate(mustMint(t, withClaim(SampleClaims(), ClaimRole, "SuperAdmin")))
	entries := logs.FilterMessage("claim validation failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one rule failure entry, got %d", len(entries))
	}
	if claim := entries[0].ContextMap()["claim"]; claim != ClaimRole {
		t.Fatalf("unexpected claim field: %v", claim)
	}
}
