// Package passwords implements the pluggable secure password family: four
// hashing algorithms behind one interface, selected and parameterized by
// configuration, with version-tagged configs so deployments can rotate
// algorithms without invalidating stored credentials.
package passwords

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"github.com/tokensquare/guardian/internal/idp/domain"
)

// SecurePassword hashes and verifies plaintext passwords. Implementations
// generate their own salt and must compare digests in constant time.
type SecurePassword interface {
	Hash(plain string) (domain.HashedPassword, error)
	Verify(plain string, hashed domain.HashedPassword) bool
}

func randomSalt(size int) ([]byte, error) {
	salt := make([]byte, size)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

func encode(b []byte) string {
	return base64.RawStdEncoding.EncodeToString(b)
}

func decode(s string) ([]byte, bool) {
	b, err := base64.RawStdEncoding.DecodeString(s)
	return b, err == nil
}

// constantTimeEqual compares two digests without leaking timing information.
func constantTimeEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
