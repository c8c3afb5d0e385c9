package passwords

import (
	"github.com/tokensquare/guardian/internal/idp/domain"
	"golang.org/x/crypto/argon2"
)

const argon2KeySize = 32

// Argon2Password hashes with Argon2id.
type Argon2Password struct {
	saltSize    int
	iterations  uint32
	parallelism uint8
	memoryKiB   uint32
}

func NewArgon2Password(cfg Argon2Config) *Argon2Password {
	return &Argon2Password{
		saltSize:    cfg.SaltSize,
		iterations:  cfg.Iterations,
		parallelism: cfg.Parallelism,
		memoryKiB:   cfg.MemoryKiB,
	}
}

func (a *Argon2Password) Hash(plain string) (domain.HashedPassword, error) {
	salt, err := randomSalt(a.saltSize)
	if err != nil {
		return domain.HashedPassword{}, err
	}

	key := argon2.IDKey([]byte(plain), salt, a.iterations, a.memoryKiB, a.parallelism, argon2KeySize)

	return domain.HashedPassword{Salt: encode(salt), Hash: encode(key)}, nil
}

func (a *Argon2Password) Verify(plain string, hashed domain.HashedPassword) bool {
	salt, ok := decode(hashed.Salt)
	if !ok {
		return false
	}
	expected, ok := decode(hashed.Hash)
	if !ok {
		return false
	}

	key := argon2.IDKey([]byte(plain), salt, a.iterations, a.memoryKiB, a.parallelism, uint32(len(expected)))

	return constantTimeEqual(key, expected)
}
