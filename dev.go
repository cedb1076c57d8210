package claimcheck

import (
	"errors"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// DefaultDevSecret signs minted tokens when no secret is supplied. The
// validator never checks signatures, so the key only has to be non-empty.
const DefaultDevSecret = "claimcheck-dev"

// SampleClaims returns a claim set that passes validation.
func SampleClaims() map[string]string {
	return map[string]string{
		ClaimName: "Toninho Araujo",
		ClaimRole: "Admin",
		ClaimSeed: "7841",
	}
}

// Mint signs a compact HS256 token carrying exactly the given string claims.
// No registered claims (iat, exp, ...) are added.
func Mint(claims map[string]string, secret []byte) (string, error) {
	if len(claims) == 0 {
		return "", errors.New("at least one claim is required")
	}
	if len(secret) == 0 {
		secret = []byte(DefaultDevSecret)
	}
	builder := jwt.NewBuilder()
	for name, value := range claims {
		builder = builder.Claim(name, value)
	}
	token, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return string(signed), nil
}
