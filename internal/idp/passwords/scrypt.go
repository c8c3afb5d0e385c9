package passwords

import (
	"github.com/tokensquare/guardian/internal/idp/domain"
	"golang.org/x/crypto/scrypt"
)

// ScryptPassword hashes with scrypt. The N parameter is 2^CPUMemoryCost.
type ScryptPassword struct {
	n        int
	r        int
	p        int
	saltSize int
	keySize  int
}

func NewScryptPassword(cfg ScryptConfig) *ScryptPassword {
	return &ScryptPassword{
		n:        1 << cfg.CPUMemoryCost,
		r:        cfg.BlockSize,
		p:        cfg.Parallelization,
		saltSize: cfg.SaltSize,
		keySize:  cfg.KeySize,
	}
}

func (s *ScryptPassword) Hash(plain string) (domain.HashedPassword, error) {
	salt, err := randomSalt(s.saltSize)
	if err != nil {
		return domain.HashedPassword{}, err
	}

	key, err := scrypt.Key([]byte(plain), salt, s.n, s.r, s.p, s.keySize)
	if err != nil {
		return domain.HashedPassword{}, err
	}

	return domain.HashedPassword{Salt: encode(salt), Hash: encode(key)}, nil
}

func (s *ScryptPassword) Verify(plain string, hashed domain.HashedPassword) bool {
	salt, ok := decode(hashed.Salt)
	if !ok {
		return false
	}
	expected, ok := decode(hashed.Hash)
	if !ok {
		return false
	}

	key, err := scrypt.Key([]byte(plain), salt, s.n, s.r, s.p, len(expected))
	if err != nil {
		return false
	}

	return constantTimeEqual(key, expected)
}
