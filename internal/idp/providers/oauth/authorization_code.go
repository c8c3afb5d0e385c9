// Package oauth implements the authorization-code leg of an OAuth-style
// flow: short-lived single-use codes that may carry scope/permission
// restrictions for the token eventually minted with them.
package oauth

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

const TokenType = "authorizationCode"

// Keys under which restrictions ride on the stored token record.
const (
	infoKeyScopes      = "scopes"
	infoKeyPermissions = "permissions"
)

type Config struct {
	RandomSize int           `env:"RANDOM_SIZE" envDefault:"32"`
	LifeTime   time.Duration `env:"LIFETIME" envDefault:"2m"`
}

type Provider struct {
	tokens store.AccountTokens
	cfg    Config
}

func NewProvider(tokens store.AccountTokens, cfg Config) *Provider {
	return &Provider{tokens: tokens, cfg: cfg}
}

func (p *Provider) GenerateToken(ctx context.Context, account domain.Account, restrictions *domain.TokenRestrictions) (domain.AuthResponse, error) {
	if !account.Usable() {
		return domain.AuthResponse{}, autherr.ForAccount(autherr.KindAccountInactive,
			"account is inactive or deleted", account.ID)
	}

	code, err := cryptox.GenerateToken(p.cfg.RandomSize)
	if err != nil {
		return domain.AuthResponse{}, err
	}

	var info map[string]string
	if restrictions != nil {
		info = map[string]string{}
		if len(restrictions.Scopes) > 0 {
			info[infoKeyScopes] = strings.Join(restrictions.Scopes, " ")
		}
		if len(restrictions.Permissions) > 0 {
			info[infoKeyPermissions] = strings.Join(restrictions.Permissions, " ")
		}
	}

	now := time.Now().UTC()
	record := domain.AccountToken{
		ID:                  idx.New().String(),
		Token:               code,
		AssociatedAccountID: account.ID,
		ExpiresAt:           now.Add(p.cfg.LifeTime),
		AdditionalInfo:      info,
		CreatedAt:           now,
	}
	if err := p.tokens.CreateAccountToken(ctx, record); err != nil {
		return domain.AuthResponse{}, err
	}

	return domain.AuthResponse{
		Type:       TokenType,
		Token:      code,
		EntityType: domain.EntityAccount,
		EntityID:   account.ID,
		ValidFor:   p.cfg.LifeTime,
	}, nil
}

// Verifier consumes authorization codes. Codes are strictly single-use.
type Verifier struct {
	tokens store.AccountTokens
}

func NewVerifier(tokens store.AccountTokens) *Verifier {
	return &Verifier{tokens: tokens}
}

// Consume redeems a code, returning the bound account id and any restrictions
// recorded at generation time for downstream token minting.
func (v *Verifier) Consume(ctx context.Context, code string) (string, *domain.TokenRestrictions, error) {
	record, err := v.tokens.GetAccountTokenByToken(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, autherr.New(autherr.KindInvalidToken, "authorization code does not exist")
		}
		return "", nil, err
	}

	if record.Expired(time.Now().UTC()) {
		return "", nil, autherr.ForAccount(autherr.KindExpiredToken,
			"authorization code has expired", record.AssociatedAccountID)
	}

	if err := v.tokens.DeleteAccountToken(ctx, record.ID); err != nil {
		return "", nil, err
	}

	var restrictions *domain.TokenRestrictions
	if len(record.AdditionalInfo) > 0 {
		restrictions = &domain.TokenRestrictions{
			Scopes:      strings.Fields(record.AdditionalInfo[infoKeyScopes]),
			Permissions: strings.Fields(record.AdditionalInfo[infoKeyPermissions]),
		}
	}
	return record.AssociatedAccountID, restrictions, nil
}

func (v *Verifier) VerifyAccountToken(ctx context.Context, code string) (string, error) {
	accountID, _, err := v.Consume(ctx, code)
	return accountID, err
}
