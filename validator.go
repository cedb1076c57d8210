package claimcheck

import (
	"fmt"

	"go.uber.org/zap"
)

// Validator checks that a token carries exactly the Name, Role and Seed claims
// and that each satisfies its rule. Signatures are never verified.
//
// A Validator is immutable once built and safe for concurrent use.
type Validator struct {
	decoder  Decoder
	registry *Registry
	logger   *zap.Logger
}

// NewValidator builds a validator from the given configuration.
func NewValidator(cfg Config) (*Validator, error) {
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	decoder := cfg.DecoderImpl
	if decoder == nil {
		var err error
		if decoder, err = NewDecoder(cfg.Decoder); err != nil {
			return nil, err
		}
	}
	return &Validator{
		decoder:  decoder,
		registry: cfg.Registry,
		logger:   cfg.Logger,
	}, nil
}

// Validate reports whether token passes every check. Every failure,
// including an undecodable token, yields false.
func (v *Validator) Validate(token string) bool {
	_, err := v.Check(token)
	return err == nil
}

// Check runs the same checks as Validate and returns the typed claims on
// success or an *Error describing the first failure.
func (v *Validator) Check(token string) (caller *CallerClaims, err error) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("token validation panicked", zap.Any("panic", r))
			caller, err = nil, newError(ErrCodeInternal, fmt.Errorf("panic: %v", r))
		}
	}()

	v.logger.Debug("validating token")
	claims, err := v.decoder.Decode(token)
	if err != nil {
		v.logger.Warn("failed to decode token", zap.Error(err))
		return nil, newError(ErrCodeDecode, err)
	}

	for _, name := range requiredClaims {
		if !claims.Has(name) {
			v.logger.Warn("token is missing required claims",
				zap.Strings("required", requiredClaims[:]),
				zap.Strings("present", claims.Names()),
			)
			return nil, newClaimError(ErrCodeClaimSetMismatch, name, fmt.Errorf("missing claim %q", name))
		}
	}
	if len(claims) != len(requiredClaims) {
		v.logger.Warn("token carries unexpected claims",
			zap.Int("expected", len(requiredClaims)),
			zap.Int("actual", len(claims)),
		)
		return nil, newError(ErrCodeClaimSetMismatch,
			fmt.Errorf("expected %d claims, got %d", len(requiredClaims), len(claims)))
	}

	for _, name := range requiredClaims {
		rule, ok := v.registry.Lookup(name)
		if !ok {
			v.logger.Error("no rule registered for claim", zap.String("claim", name))
			return nil, newClaimError(ErrCodeUnregisteredRule, name, nil)
		}
		value, ok := claims.String(name)
		if !ok {
			v.logger.Debug("claim is not a string", zap.String("claim", name))
			return nil, newClaimError(ErrCodeRuleViolation, name, fmt.Errorf("claim %q is not a string", name))
		}
		if !rule.Validate(value) {
			v.logger.Debug("claim validation failed", zap.String("claim", name), zap.String("value", value))
			return nil, newClaimError(ErrCodeRuleViolation, name, nil)
		}
	}

	v.logger.Debug("token is valid")
	return callerClaimsFrom(claims), nil
}
