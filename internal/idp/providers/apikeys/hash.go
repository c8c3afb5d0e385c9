package apikeys

import (
	"encoding/base64"

	"golang.org/x/crypto/blake2b"

	"github.com/tokensquare/guardian/internal/idp/autherr"
)

// Hasher computes the keyed Blake2b-256 hash under which opaque API keys are
// stored. Keying the hash means a leaked database alone is not enough to
// forge lookups.
type Hasher struct {
	key []byte
}

// NewHasher builds a Hasher from the configured server-held key. An empty or
// oversized key is a configuration error and must abort startup.
func NewHasher(key string) (*Hasher, error) {
	if key == "" {
		return nil, autherr.Configuration("API key hashing key is required")
	}
	if len(key) > blake2b.Size {
		return nil, autherr.Configuration("API key hashing key must be at most %d bytes", blake2b.Size)
	}
	// Surfaces key problems at boot rather than on first hash.
	if _, err := blake2b.New256([]byte(key)); err != nil {
		return nil, autherr.Configuration("API key hashing key is not usable: %v", err)
	}
	return &Hasher{key: []byte(key)}, nil
}

// Hash returns the deterministic hash of a key, base64url encoded for use as
// a lookup column. Lookup by hash avoids any plaintext comparison.
func (h *Hasher) Hash(key string) string {
	mac, err := blake2b.New256(h.key)
	if err != nil {
		// Key validity is checked in NewHasher.
		panic(err)
	}
	mac.Write([]byte(key))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
