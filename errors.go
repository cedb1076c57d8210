package claimcheck

import (
	"errors"
	"fmt"
)

// ErrorCode represents validation failure categories.
type ErrorCode string

const (
	ErrCodeDecode           ErrorCode = "decode_error"
	ErrCodeClaimSetMismatch ErrorCode = "claim_set_mismatch"
	ErrCodeRuleViolation    ErrorCode = "rule_violation"
	ErrCodeUnregisteredRule ErrorCode = "unregistered_rule"
	ErrCodeInternal         ErrorCode = "internal_error"
)

var errorMessages = map[ErrorCode]string{
	ErrCodeDecode:           "Token could not be decoded",
	ErrCodeClaimSetMismatch: "Claim set mismatch",
	ErrCodeRuleViolation:    "Claim rejected",
	ErrCodeUnregisteredRule: "No rule registered for claim",
	ErrCodeInternal:         "Internal error",
}

// Error wraps validation failures with a stable code and message.
// It never crosses Validator.Validate; Check returns it for diagnostics.
type Error struct {
	Code    ErrorCode
	Message string
	Claim   string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	base := e.Message
	if base == "" {
		base = string(e.Code)
	}
	if e.Claim != "" {
		base = fmt.Sprintf("%s (%s)", base, e.Claim)
	}
	if e.Err == nil {
		return base
	}
	return fmt.Sprintf("%s: %v", base, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, err error) *Error {
	msg, ok := errorMessages[code]
	if !ok {
		msg = string(code)
	}
	return &Error{Code: code, Message: msg, Err: err}
}

func newClaimError(code ErrorCode, claim string, err error) *Error {
	e := newError(code, err)
	e.Claim = claim
	return e
}

// CodeOf extracts the ErrorCode carried by err. A nil error yields "".
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}
