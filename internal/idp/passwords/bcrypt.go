package passwords

import (
	"github.com/tokensquare/guardian/internal/idp/domain"
	"golang.org/x/crypto/bcrypt"
)

// BcryptPassword hashes with bcrypt. The salt is generated by the algorithm
// and embedded in the encoded hash, so the Salt field stays empty.
type BcryptPassword struct {
	cost int
}

func NewBcryptPassword(cfg BcryptConfig) *BcryptPassword {
	cost := cfg.Cost
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPassword{cost: cost}
}

func (b *BcryptPassword) Hash(plain string) (domain.HashedPassword, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), b.cost)
	if err != nil {
		return domain.HashedPassword{}, err
	}

	return domain.HashedPassword{Hash: string(hash)}, nil
}

func (b *BcryptPassword) Verify(plain string, hashed domain.HashedPassword) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed.Hash), []byte(plain)) == nil
}
