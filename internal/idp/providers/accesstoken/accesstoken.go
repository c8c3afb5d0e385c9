// Package accesstoken mints and verifies stateless signed tokens (Ed25519
// JWTs). Unlike the opaque schemes there is no store round-trip: everything
// needed for verification rides in the token itself.
package accesstoken

import (
	"context"
	"crypto/ed25519"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tokensquare/guardian/internal/idp/autherr"
	"github.com/tokensquare/guardian/internal/idp/domain"
	"github.com/tokensquare/guardian/pkg/cryptox"
	"github.com/tokensquare/guardian/pkg/idx"
)

const TokenType = "accessToken"

type Config struct {
	Issuer     string        `env:"ISSUER" envDefault:"guardian"`
	LifeTime   time.Duration `env:"LIFETIME" envDefault:"15m"`
	PrivateKey string        `env:"PRIVATE_KEY"` // PKCS8 PEM; generated at boot when empty
}

// Claims are the access-token claims. Roles and permissions are snapshots
// from issuance time, possibly narrowed by exchange restrictions.
type Claims struct {
	jwt.RegisteredClaims

	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

type Provider struct {
	key      ed25519.PrivateKey
	issuer   string
	lifeTime time.Duration
}

func NewProvider(key ed25519.PrivateKey, cfg Config) (*Provider, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, autherr.Configuration("access token signing key is not a valid Ed25519 key")
	}
	return &Provider{key: key, issuer: cfg.Issuer, lifeTime: cfg.LifeTime}, nil
}

// ParseSigningKey loads the configured PKCS8 PEM private key.
func ParseSigningKey(pemKey string) (ed25519.PrivateKey, error) {
	key, err := cryptox.ParseEd25519Key([]byte(pemKey))
	if err != nil {
		return nil, autherr.Configuration("access token signing key: %v", err)
	}
	return key, nil
}

func (p *Provider) GenerateToken(ctx context.Context, account domain.Account, restrictions *domain.TokenRestrictions) (domain.AuthResponse, error) {
	if !account.Usable() {
		return domain.AuthResponse{}, autherr.ForAccount(autherr.KindAccountInactive,
			"account is inactive or deleted", account.ID)
	}

	permissions := account.Permissions
	if restrictions != nil && len(restrictions.Permissions) > 0 {
		permissions = intersect(account.Permissions, restrictions.Permissions)
	}

	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.lifeTime)),
			ID:        idx.New().String(),
		},
		Roles:       account.Roles,
		Permissions: permissions,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(p.key)
	if err != nil {
		return domain.AuthResponse{}, err
	}

	return domain.AuthResponse{
		Type:       TokenType,
		Token:      signed,
		EntityType: domain.EntityAccount,
		EntityID:   account.ID,
		ValidFor:   p.lifeTime,
	}, nil
}

type Verifier struct {
	pub    ed25519.PublicKey
	issuer string
}

func NewVerifier(pub ed25519.PublicKey, issuer string) *Verifier {
	return &Verifier{pub: pub, issuer: issuer}
}

func (v *Verifier) VerifyAccountToken(ctx context.Context, token string) (string, error) {
	claims, err := v.Verify(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Verify validates the signature and registered claims and returns the
// parsed claims for callers that need roles or permissions.
func (v *Verifier) Verify(token string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)

	parsed, err := parser.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.pub, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, autherr.New(autherr.KindExpiredToken, "access token has expired")
		}
		return nil, autherr.New(autherr.KindInvalidToken, "access token is not valid")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, autherr.New(autherr.KindInvalidToken, "access token claims are not valid")
	}
	return claims, nil
}

func intersect(have, want []string) []string {
	allowed := make(map[string]struct{}, len(have))
	for _, p := range have {
		allowed[p] = struct{}{}
	}

	var out []string
	for _, p := range want {
		if _, ok := allowed[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
