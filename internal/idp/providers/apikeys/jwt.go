package apikeys

import (
	"context"
	"crypto/ed25519"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tokensquare/guardian/internal/idp/autherr"
	"github.com/tokensquare/guardian/internal/idp/domain"
	"github.com/tokensquare/guardian/pkg/idx"
)

// JwtExchange is the stateless variant: the key is a signed JWT bound to the
// app id, verified without any store round-trip.
type JwtExchange struct {
	key     ed25519.PrivateKey
	pub     ed25519.PublicKey
	issuer  string
	keyLife time.Duration
}

// NewJwtExchange builds the stateless variant. keyLife is the default expiry
// applied to minted keys; zero mints non-expiring keys.
func NewJwtExchange(key ed25519.PrivateKey, issuer string, keyLife time.Duration) (*JwtExchange, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, autherr.Configuration("API key signing key is not a valid Ed25519 key")
	}
	return &JwtExchange{
		key:     key,
		pub:     key.Public().(ed25519.PublicKey),
		issuer:  issuer,
		keyLife: keyLife,
	}, nil
}

func (j *JwtExchange) GenerateKey(ctx context.Context, app domain.App, expiresAt *time.Time) (string, error) {
	if !app.Usable() {
		return "", autherr.Newf(autherr.KindAppInactive, "app %s is inactive or deleted", app.ID)
	}

	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    j.issuer,
		Subject:   app.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        idx.New().String(),
	}
	if expiresAt != nil {
		claims.ExpiresAt = jwt.NewNumericDate(*expiresAt)
	} else if j.keyLife > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(j.keyLife))
	}

	return jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(j.key)
}

func (j *JwtExchange) VerifyAndGetAppID(ctx context.Context, key string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithIssuer(j.issuer),
	)

	parsed, err := parser.ParseWithClaims(key, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		return j.pub, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", autherr.New(autherr.KindExpiredToken, "API key has expired")
		}
		return "", autherr.New(autherr.KindInvalidToken, "API key is not valid")
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", autherr.New(autherr.KindInvalidToken, "API key claims are not valid")
	}
	return claims.Subject, nil
}
