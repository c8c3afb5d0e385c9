// Package sessions implements server-side login sessions addressed by an
// opaque token. The session row snapshots the account's roles and
// permissions at issuance so downstream checks can stay stateless.
package sessions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tokensquare/guardian/internal/idp/autherr"
	"github.com/tokensquare/guardian/internal/idp/domain"
	"github.com/tokensquare/guardian/internal/idp/store"
	"github.com/tokensquare/guardian/pkg/cryptox"
	"github.com/tokensquare/guardian/pkg/idx"
)

const TokenType = "session_token"

type Config struct {
	RandomSize int           `env:"RANDOM_SIZE" envDefault:"32"`
	LifeTime   time.Duration `env:"LIFETIME" envDefault:"24h"`
}

type Provider struct {
	sessions store.Sessions
	cfg      Config
}

func NewProvider(sessions store.Sessions, cfg Config) *Provider {
	return &Provider{sessions: sessions, cfg: cfg}
}

func (p *Provider) GenerateToken(ctx context.Context, account domain.Account, _ *domain.TokenRestrictions) (domain.AuthResponse, error) {
	if !account.Usable() {
		return domain.AuthResponse{}, autherr.ForAccount(autherr.KindAccountInactive,
			"account is inactive or deleted", account.ID)
	}

	token, err := cryptox.GenerateToken(p.cfg.RandomSize)
	if err != nil {
		return domain.AuthResponse{}, err
	}

	now := time.Now().UTC()
	session := domain.Session{
		ID:           idx.New().String(),
		SessionToken: token,
		AccountID:    account.ID,
		ExpiresAt:    now.Add(p.cfg.LifeTime),
		Data: map[string]string{
			domain.SessionKeyAccountID:   account.ID,
			domain.SessionKeyRoles:       strings.Join(account.Roles, " "),
			domain.SessionKeyPermissions: strings.Join(account.Permissions, " "),
		},
		CreatedAt: now,
	}
	if err := p.sessions.CreateSession(ctx, session); err != nil {
		return domain.AuthResponse{}, err
	}

	return domain.AuthResponse{
		Type:       TokenType,
		Token:      token,
		EntityType: domain.EntityAccount,
		EntityID:   account.ID,
		ValidFor:   p.cfg.LifeTime,
	}, nil
}

// TokenType identifies the revocation dispatch key for logout.
func (p *Provider) TokenType() string { return TokenType }

// Revoke terminates a session by its token (logout).
func (p *Provider) Revoke(ctx context.Context, token string) error {
	err := p.sessions.DeleteSessionByToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return autherr.New(autherr.KindInvalidToken, "session does not exist")
	}
	return err
}

// Verifier checks session tokens. Sessions are multi-use; verification never
// consumes them.
type Verifier struct {
	sessions store.Sessions
}

func NewVerifier(sessions store.Sessions) *Verifier {
	return &Verifier{sessions: sessions}
}

func (v *Verifier) VerifyAccountToken(ctx context.Context, token string) (string, error) {
	session, err := v.sessions.GetSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", autherr.New(autherr.KindInvalidToken, "session does not exist")
		}
		return "", err
	}

	if session.Expired(time.Now().UTC()) {
		return "", autherr.ForAccount(autherr.KindExpiredToken,
			"session has expired", session.AccountID)
	}
	return session.AccountID, nil
}
