package claimcheck

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// DecoderKind names a Decoder implementation.
type DecoderKind string

const (
	DecoderJWX       DecoderKind = "jwx"
	DecoderGolangJWT DecoderKind = "golang-jwt"
)

var errNotCompact = errors.New("token is not in compact serialization")

// Decoder turns a compact token into its claims without verifying the signature.
// Every claim in the payload must be returned, not only the ones a rule exists for.
type Decoder interface {
	Decode(token string) (Claims, error)
}

// NewDecoder returns the Decoder registered for kind.
func NewDecoder(kind DecoderKind) (Decoder, error) {
	switch kind {
	case DecoderJWX, "":
		return JWXDecoder{}, nil
	case DecoderGolangJWT:
		return GolangJWTDecoder{}, nil
	default:
		return nil, fmt.Errorf("unknown decoder %q", kind)
	}
}

// JWXDecoder decodes tokens with lestrrat-go/jwx, skipping verification and
// time-based validation.
type JWXDecoder struct{}

// Decode implements Decoder.
func (JWXDecoder) Decode(token string) (Claims, error) {
	if err := checkCompact(token); err != nil {
		return nil, err
	}
	parsed, err := jwt.ParseInsecure([]byte(token))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	m, err := parsed.AsMap(context.Background())
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}
	return Claims(m), nil
}

// GolangJWTDecoder decodes tokens with golang-jwt's unverified parser.
// A missing or unknown alg header is ignored, as it is by JWXDecoder.
type GolangJWTDecoder struct{}

// Decode implements Decoder.
func (GolangJWTDecoder) Decode(token string) (Claims, error) {
	if err := checkCompact(token); err != nil {
		return nil, err
	}
	claims := gojwt.MapClaims{}
	// The claims are filled before the alg lookup, so an unverifiable
	// header still yields a complete payload.
	_, _, err := gojwt.NewParser().ParseUnverified(token, claims)
	if err != nil && !errors.Is(err, gojwt.ErrTokenUnverifiable) {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return Claims(claims), nil
}

// checkCompact rejects anything but header.payload.signature, so raw JSON
// payloads and JWS JSON serialization never reach the parsers.
func checkCompact(token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("token is empty")
	}
	if strings.Count(token, ".") != 2 {
		return errNotCompact
	}
	return nil
}
