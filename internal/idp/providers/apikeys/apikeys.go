// Package apikeys implements application API keys in two interchangeable
// variants: opaque keys stored as keyed Blake2b hashes, and stateless signed
// JWT keys. Callers program against the KeyExchange contract and stay
// agnostic to the variant in use.
package apikeys

import (
	"context"
	"time"

	"github.com/tokensquare/guardian/internal/idp/domain"
)

const TokenType = "apiKey"

// Key exchange variants.
const (
	VariantDefault = "default"
	VariantJwt     = "jwt"
)

type Config struct {
	// Variant selects the key exchange implementation.
	Variant string `env:"VARIANT" envDefault:"default"`

	// HashingKey keys the Blake2b hash protecting opaque keys at rest.
	// Required for the default variant; its absence is a boot error.
	HashingKey string `env:"HASHING_KEY"`
	RandomSize int    `env:"RANDOM_SIZE" envDefault:"32"`

	// JWT variant knobs.
	Issuer     string        `env:"JWT_ISSUER" envDefault:"guardian"`
	JwtKeyLife time.Duration `env:"JWT_KEY_LIFE"` // zero means no expiry
}

// KeyExchange is the variant-agnostic API key contract: mint a key for an
// application, and verify a presented key back to its owning app id.
type KeyExchange interface {
	GenerateKey(ctx context.Context, app domain.App, expiresAt *time.Time) (string, error)
	VerifyAndGetAppID(ctx context.Context, key string) (string, error)
}
