// Package passwordless implements magic-link tokens: a high-entropy opaque
// token is generated, delivered out of band, and consumed exactly once.
package passwordless

import (
	"context"
	"errors"
	"time"

	"github.com/tokensquare/guardian/internal/idp/autherr"
	"github.com/tokensquare/guardian/internal/idp/bus"
	"github.com/tokensquare/guardian/internal/idp/domain"
	"github.com/tokensquare/guardian/internal/idp/events"
	"github.com/tokensquare/guardian/internal/idp/store"
	"github.com/tokensquare/guardian/pkg/cryptox"
	"github.com/tokensquare/guardian/pkg/idx"
)

const TokenType = "passwordless"

type Config struct {
	RandomSize int           `env:"RANDOM_SIZE" envDefault:"32"`
	TokenLife  time.Duration `env:"TOKEN_LIFE" envDefault:"15m"`
}

type Provider struct {
	tokens store.AccountTokens
	bus    *bus.Bus
	cfg    Config
}

func NewProvider(tokens store.AccountTokens, b *bus.Bus, cfg Config) *Provider {
	return &Provider{tokens: tokens, bus: b, cfg: cfg}
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
	record := domain.AccountToken{
		ID:                  idx.New().String(),
		Token:               token,
		AssociatedAccountID: account.ID,
		ExpiresAt:           now.Add(p.cfg.TokenLife),
		CreatedAt:           now,
	}
	if err := p.tokens.CreateAccountToken(ctx, record); err != nil {
		return domain.AuthResponse{}, err
	}

	p.bus.Publish(events.ChannelPasswordless, bus.EventPasswordlessGenerated,
		events.PasswordlessGenerated{Token: record, Account: account})

	return domain.AuthResponse{
		Type:       TokenType,
		Token:      token,
		EntityType: domain.EntityAccount,
		EntityID:   account.ID,
		ValidFor:   p.cfg.TokenLife,
	}, nil
}

// Verifier consumes passwordless tokens. Consumption deletes the record, so
// a token works at most once.
type Verifier struct {
	tokens store.AccountTokens
}

func NewVerifier(tokens store.AccountTokens) *Verifier {
	return &Verifier{tokens: tokens}
}

func (v *Verifier) VerifyAccountToken(ctx context.Context, token string) (string, error) {
	record, err := v.tokens.GetAccountTokenByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", autherr.New(autherr.KindInvalidToken, "passwordless token does not exist")
		}
		return "", err
	}

	if record.Expired(time.Now().UTC()) {
		return "", autherr.ForAccount(autherr.KindExpiredToken,
			"passwordless token has expired", record.AssociatedAccountID)
	}

	if err := v.tokens.DeleteAccountToken(ctx, record.ID); err != nil {
		return "", err
	}
	return record.AssociatedAccountID, nil
}
