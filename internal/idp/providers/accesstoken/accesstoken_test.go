package accesstoken_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tokensquare/guardian/internal/idp/autherr"
	"github.com/tokensquare/guardian/internal/idp/domain"
	"github.com/tokensquare/guardian/internal/idp/providers/accesstoken"
	"github.com/tokensquare/guardian/pkg/idx"
)

func newKey(t *testing.T) ed25519.PrivateKey {
	t.Helper()

	_, key, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return key
}

func testAccount() domain.Account {
	now := time.Now().UTC()
	return domain.Account{
		ID:          idx.New().String(),
		Email:       "alice@example.com",
		Roles:       []string{"admin"},
		Permissions: []string{"accounts:read", "accounts:write"},
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	key := newKey(t)
	provider, err := accesstoken.NewProvider(key, accesstoken.Config{Issuer: "guardian", LifeTime: 15 * time.Minute})
	require.NoError(t, err)
	verifier := accesstoken.NewVerifier(key.Public().(ed25519.PublicKey), "guardian")

	account := testAccount()
	resp, err := provider.GenerateToken(ctx, account, nil)
	require.NoError(t, err)
	require.Equal(t, "accessToken", resp.Type)

	claims, err := verifier.Verify(resp.Token)
	require.NoError(t, err)
	require.Equal(t, account.ID, claims.Subject)
	require.Equal(t, account.Roles, claims.Roles)
	require.Equal(t, account.Permissions, claims.Permissions)

	accountID, err := verifier.VerifyAccountToken(ctx, resp.Token)
	require.NoError(t, err)
	require.Equal(t, account.ID, accountID)
}

func TestAccessTokenRestrictionsNarrowPermissions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	key := newKey(t)
	provider, err := accesstoken.NewProvider(key, accesstoken.Config{Issuer: "guardian", LifeTime: 15 * time.Minute})
	require.NoError(t, err)
	verifier := accesstoken.NewVerifier(key.Public().(ed25519.PublicKey), "guardian")

	resp, err := provider.GenerateToken(ctx, testAccount(), &domain.TokenRestrictions{
		// Requesting a permission the account does not hold must not grant it.
		Permissions: []string{"accounts:read", "accounts:delete"},
	})
	require.NoError(t, err)

	claims, err := verifier.Verify(resp.Token)
	require.NoError(t, err)
	require.Equal(t, []string{"accounts:read"}, claims.Permissions)
}

func TestAccessTokenExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	key := newKey(t)
	provider, err := accesstoken.NewProvider(key, accesstoken.Config{Issuer: "guardian", LifeTime: -time.Minute})
	require.NoError(t, err)
	verifier := accesstoken.NewVerifier(key.Public().(ed25519.PublicKey), "guardian")

	resp, err := provider.GenerateToken(ctx, testAccount(), nil)
	require.NoError(t, err)

	_, err = verifier.Verify(resp.Token)
	require.ErrorIs(t, err, autherr.ErrExpiredToken)
}

func TestAccessTokenWrongKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	provider, err := accesstoken.NewProvider(newKey(t), accesstoken.Config{Issuer: "guardian", LifeTime: 15 * time.Minute})
	require.NoError(t, err)

	other := newKey(t)
	verifier := accesstoken.NewVerifier(other.Public().(ed25519.PublicKey), "guardian")

	resp, err := provider.GenerateToken(ctx, testAccount(), nil)
	require.NoError(t, err)

	_, err = verifier.Verify(resp.Token)
	require.ErrorIs(t, err, autherr.ErrInvalidToken)
}

func TestAccessTokenWrongIssuer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	key := newKey(t)
	provider, err := accesstoken.NewProvider(key, accesstoken.Config{Issuer: "other-issuer", LifeTime: 15 * time.Minute})
	require.NoError(t, err)
	verifier := accesstoken.NewVerifier(key.Public().(ed25519.PublicKey), "guardian")

	resp, err := provider.GenerateToken(ctx, testAccount(), nil)
	require.NoError(t, err)

	_, err = verifier.Verify(resp.Token)
	require.ErrorIs(t, err, autherr.ErrInvalidToken)
}

func TestNewProviderRejectsBadKey(t *testing.T) {
	t.Parallel()

	_, err := accesstoken.NewProvider(ed25519.PrivateKey("short"), accesstoken.Config{Issuer: "guardian"})
	require.ErrorIs(t, err, autherr.ErrConfiguration)
}
