package oauth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tokensquare/guardian/internal/idp/autherr"
	"github.com/tokensquare/guardian/internal/idp/domain"
	"github.com/tokensquare/guardian/internal/idp/providers/oauth"
	"github.com/tokensquare/guardian/internal/idp/store/drivers/sqlite"
	"github.com/tokensquare/guardian/pkg/idx"
)

func newFixture(t *testing.T) (*oauth.Provider, *oauth.Verifier, *sqlite.Store, domain.Account) {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	now := time.Now().UTC()
	account := domain.Account{
		ID:        idx.New().String(),
		Email:     idx.New().String() + "@example.com",
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.Accounts().CreateAccount(context.Background(), account))

	cfg := oauth.Config{RandomSize: 32, LifeTime: 2 * time.Minute}
	return oauth.NewProvider(s.AccountTokens(), cfg), oauth.NewVerifier(s.AccountTokens()), s, account
}

func TestAuthorizationCodeRestrictionsRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	provider, verifier, _, account := newFixture(t)

	resp, err := provider.GenerateToken(ctx, account, &domain.TokenRestrictions{
		Scopes:      []string{"openid", "profile"},
		Permissions: []string{"accounts:read"},
	})
	require.NoError(t, err)
	require.Equal(t, "authorizationCode", resp.Type)

	accountID, restrictions, err := verifier.Consume(ctx, resp.Token)
	require.NoError(t, err)
	require.Equal(t, account.ID, accountID)
	require.NotNil(t, restrictions)
	require.Equal(t, []string{"openid", "profile"}, restrictions.Scopes)
	require.Equal(t, []string{"accounts:read"}, restrictions.Permissions)
}

func TestAuthorizationCodeSingleUse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	provider, verifier, _, account := newFixture(t)

	resp, err := provider.GenerateToken(ctx, account, nil)
	require.NoError(t, err)

	accountID, restrictions, err := verifier.Consume(ctx, resp.Token)
	require.NoError(t, err)
	require.Equal(t, account.ID, accountID)
	require.Nil(t, restrictions)

	_, _, err = verifier.Consume(ctx, resp.Token)
	require.ErrorIs(t, err, autherr.ErrInvalidToken)
}

func TestAuthorizationCodeExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, verifier, s, account := newFixture(t)

	now := time.Now().UTC()
	require.NoError(t, s.AccountTokens().CreateAccountToken(ctx, domain.AccountToken{
		ID:                  idx.New().String(),
		Token:               "stale-code",
		AssociatedAccountID: account.ID,
		ExpiresAt:           now.Add(-time.Second),
		CreatedAt:           now.Add(-3 * time.Minute),
	}))

	_, _, err := verifier.Consume(ctx, "stale-code")
	require.ErrorIs(t, err, autherr.ErrExpiredToken)
}

func TestAuthorizationCodeUnknown(t *testing.T) {
	t.Parallel()

	_, verifier, _, _ := newFixture(t)

	_, _, err := verifier.Consume(context.Background(), "never-issued")
	require.ErrorIs(t, err, autherr.ErrInvalidToken)
}
