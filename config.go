package claimcheck

import (
	"fmt"

	"go.uber.org/zap"
)

// Config describes how a Validator decodes tokens and which rules it applies.
type Config struct {
	// Decoder selects the token decoder when DecoderImpl is nil. Defaults to DecoderJWX.
	Decoder DecoderKind
	// DecoderImpl overrides Decoder with a caller-supplied implementation.
	DecoderImpl Decoder
	// Registry holds the per-claim rules. Defaults to DefaultRegistry().
	Registry *Registry
	// Logger receives per-call diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger
}

// normalize sets default values for optional fields.
func (c *Config) normalize() {
	if c.Decoder == "" {
		c.Decoder = DecoderJWX
	}
	if c.Registry == nil {
		c.Registry = DefaultRegistry()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// validate ensures the configuration is usable.
func (c Config) validate() error {
	if c.DecoderImpl != nil {
		return nil
	}
	switch c.Decoder {
	case DecoderJWX, DecoderGolangJWT:
		return nil
	default:
		return fmt.Errorf("unknown decoder %q", c.Decoder)
	}
}
