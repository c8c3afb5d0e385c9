package passwords

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"github.com/tokensquare/guardian/internal/idp/autherr"
	"github.com/tokensquare/guardian/internal/idp/domain"
	"golang.org/x/crypto/pbkdf2"
)

// Default iteration counts per hash algorithm (OWASP recommendations).
const (
	pbkdf2DefaultIterationsSHA256 = 600_000
	pbkdf2DefaultIterationsSHA512 = 210_000
)

// Pbkdf2Password hashes with PBKDF2-HMAC over SHA-256 or SHA-512.
type Pbkdf2Password struct {
	saltSize   int
	iterations int
	keySize    int
	newHash    func() hash.Hash
}

func NewPbkdf2Password(cfg Pbkdf2Config) (*Pbkdf2Password, error) {
	p := &Pbkdf2Password{
		saltSize:   cfg.SaltSize,
		iterations: cfg.Iterations,
	}

	switch cfg.HashAlgorithm {
	case "SHA-256":
		p.newHash = sha256.New
		p.keySize = sha256.Size
		if p.iterations == 0 {
			p.iterations = pbkdf2DefaultIterationsSHA256
		}
	case "SHA-512":
		p.newHash = sha512.New
		p.keySize = sha512.Size
		if p.iterations == 0 {
			p.iterations = pbkdf2DefaultIterationsSHA512
		}
	default:
		return nil, autherr.Configuration("unknown PBKDF2 hashing algorithm %q", cfg.HashAlgorithm)
	}

	return p, nil
}

func (p *Pbkdf2Password) Hash(plain string) (domain.HashedPassword, error) {
	salt, err := randomSalt(p.saltSize)
	if err != nil {
		return domain.HashedPassword{}, err
	}

	key := pbkdf2.Key([]byte(plain), salt, p.iterations, p.keySize, p.newHash)

	return domain.HashedPassword{Salt: encode(salt), Hash: encode(key)}, nil
}

func (p *Pbkdf2Password) Verify(plain string, hashed domain.HashedPassword) bool {
	salt, ok := decode(hashed.Salt)
	if !ok {
		return false
	}
	expected, ok := decode(hashed.Hash)
	if !ok {
		return false
	}

	key := pbkdf2.Key([]byte(plain), salt, p.iterations, len(expected), p.newHash)

	return constantTimeEqual(key, expected)
}
