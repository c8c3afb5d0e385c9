package cryptox

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Supported AES key sizes in bits.
const (
	AES128 = 128
	AES192 = 192
	AES256 = 256
)

// GenerateAESKey generates a random AES key of the given bit size
// (128, 192 or 256).
func GenerateAESKey(bits int) ([]byte, error) {
	switch bits {
	case AES128, AES192, AES256:
	default:
		return nil, fmt.Errorf("cryptox: invalid AES key size %d, must be 128, 192 or 256", bits)
	}

	key := make([]byte, bits/8)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate AES key: %w", err)
	}

	return key, nil
}

// GenerateChaCha20Key generates a random 256-bit ChaCha20-Poly1305 key.
func GenerateChaCha20Key() ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate ChaCha20 key: %w", err)
	}

	return key, nil
}
