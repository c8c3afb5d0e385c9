package apikeys_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/tokensquare/guardian/internal/idp/autherr"
	"github.com/tokensquare/guardian/internal/idp/domain"
	"github.com/tokensquare/guardian/internal/idp/providers/apikeys"
	"github.com/tokensquare/guardian/internal/idp/store/drivers/sqlite"
	"github.com/tokensquare/guardian/pkg/idx"
)

func TestNewHasher(t *testing.T) {
	t.Parallel()

	t.Run("empty key aborts startup", func(t *testing.T) {
		_, err := apikeys.NewHasher("")
		require.ErrorIs(t, err, autherr.ErrConfiguration)
	})

	t.Run("oversized key aborts startup", func(t *testing.T) {
		long := make([]byte, 65)
		for i := range long {
			long[i] = 'k'
		}
		_, err := apikeys.NewHasher(string(long))
		require.ErrorIs(t, err, autherr.ErrConfiguration)
	})

	t.Run("hash is deterministic and key dependent", func(t *testing.T) {
		h1, err := apikeys.NewHasher("server-key-one")
		require.NoError(t, err)
		h2, err := apikeys.NewHasher("server-key-two")
		require.NoError(t, err)

		require.Equal(t, h1.Hash("value"), h1.Hash("value"))
		require.NotEqual(t, h1.Hash("value"), h2.Hash("value"))
		require.NotEqual(t, h1.Hash("value"), h1.Hash("other"))
	})
}

func newDefaultFixture(t *testing.T) (*apikeys.DefaultExchange, *sqlite.Store, domain.App) {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	hasher, err := apikeys.NewHasher("test-hashing-key")
	require.NoError(t, err)

	now := time.Now().UTC()
	app := domain.App{
		ID:        idx.New().String(),
		Name:      "billing-service",
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.Apps().CreateApp(context.Background(), app))

	return apikeys.NewDefaultExchange(hasher, s.ApiKeys(), s.Apps(), 32), s, app
}

func TestDefaultExchangeRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	exchange, s, app := newDefaultFixture(t)

	key, err := exchange.GenerateKey(ctx, app, nil)
	require.NoError(t, err)
	require.Len(t, key, 43)

	appID, err := exchange.VerifyAndGetAppID(ctx, key)
	require.NoError(t, err)
	require.Equal(t, app.ID, appID)

	// Only the hash is at rest, never the plaintext.
	keys, err := s.ApiKeys().ListApiKeysByAppID(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.NotEqual(t, key, keys[0].KeyHash)
}

func TestDefaultExchangeExpiredKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	exchange, _, app := newDefaultFixture(t)

	past := time.Now().UTC().Add(-time.Minute)
	key, err := exchange.GenerateKey(ctx, app, &past)
	require.NoError(t, err)

	_, err = exchange.VerifyAndGetAppID(ctx, key)
	require.ErrorIs(t, err, autherr.ErrExpiredToken)
}

func TestDefaultExchangeRevokedKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	exchange, s, app := newDefaultFixture(t)

	key, err := exchange.GenerateKey(ctx, app, nil)
	require.NoError(t, err)

	keys, err := s.ApiKeys().ListApiKeysByAppID(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.NoError(t, s.ApiKeys().MarkApiKeyDeleted(ctx, keys[0].ID))

	_, err = exchange.VerifyAndGetAppID(ctx, key)
	require.ErrorIs(t, err, autherr.ErrInvalidToken)
}

func TestDefaultExchangeInactiveApp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	exchange, s, app := newDefaultFixture(t)

	key, err := exchange.GenerateKey(ctx, app, nil)
	require.NoError(t, err)

	require.NoError(t, s.Apps().MarkAppDeleted(ctx, app.ID))

	_, err = exchange.VerifyAndGetAppID(ctx, key)
	require.ErrorIs(t, err, autherr.ErrAppInactive)

	// And a dead app cannot mint new keys either.
	app.Deleted = true
	_, err = exchange.GenerateKey(ctx, app, nil)
	require.ErrorIs(t, err, autherr.ErrAppInactive)
}

func TestDefaultExchangeUnknownKey(t *testing.T) {
	t.Parallel()

	exchange, _, _ := newDefaultFixture(t)

	_, err := exchange.VerifyAndGetAppID(context.Background(), "never-issued")
	require.ErrorIs(t, err, autherr.ErrInvalidToken)
}

func TestJwtExchange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, key, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	exchange, err := apikeys.NewJwtExchange(key, "guardian", 0)
	require.NoError(t, err)

	now := time.Now().UTC()
	app := domain.App{ID: idx.New().String(), Name: "reporting", Active: true, CreatedAt: now, UpdatedAt: now}

	t.Run("round trip without expiry", func(t *testing.T) {
		signed, err := exchange.GenerateKey(ctx, app, nil)
		require.NoError(t, err)

		appID, err := exchange.VerifyAndGetAppID(ctx, signed)
		require.NoError(t, err)
		require.Equal(t, app.ID, appID)

		// Zero key life means no exp claim at all.
		var claims jwt.RegisteredClaims
		_, _, err = jwt.NewParser().ParseUnverified(signed, &claims)
		require.NoError(t, err)
		require.Nil(t, claims.ExpiresAt)
	})

	t.Run("configured key life is the default expiry", func(t *testing.T) {
		limited, err := apikeys.NewJwtExchange(key, "guardian", time.Hour)
		require.NoError(t, err)

		signed, err := limited.GenerateKey(ctx, app, nil)
		require.NoError(t, err)

		appID, err := limited.VerifyAndGetAppID(ctx, signed)
		require.NoError(t, err)
		require.Equal(t, app.ID, appID)

		var claims jwt.RegisteredClaims
		_, _, err = jwt.NewParser().ParseUnverified(signed, &claims)
		require.NoError(t, err)
		require.NotNil(t, claims.ExpiresAt)
		require.WithinDuration(t, time.Now().UTC().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)

		// An explicit expiry still wins over the default.
		past := time.Now().UTC().Add(-time.Minute)
		expired, err := limited.GenerateKey(ctx, app, &past)
		require.NoError(t, err)
		_, err = limited.VerifyAndGetAppID(ctx, expired)
		require.ErrorIs(t, err, autherr.ErrExpiredToken)
	})

	t.Run("expired key", func(t *testing.T) {
		past := now.Add(-time.Minute)
		signed, err := exchange.GenerateKey(ctx, app, &past)
		require.NoError(t, err)

		_, err = exchange.VerifyAndGetAppID(ctx, signed)
		require.ErrorIs(t, err, autherr.ErrExpiredToken)
	})

	t.Run("foreign signature", func(t *testing.T) {
		_, otherKey, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		other, err := apikeys.NewJwtExchange(otherKey, "guardian", 0)
		require.NoError(t, err)

		signed, err := other.GenerateKey(ctx, app, nil)
		require.NoError(t, err)

		_, err = exchange.VerifyAndGetAppID(ctx, signed)
		require.ErrorIs(t, err, autherr.ErrInvalidToken)
	})

	t.Run("inactive app cannot mint", func(t *testing.T) {
		dead := app
		dead.Deleted = true
		_, err := exchange.GenerateKey(ctx, dead, nil)
		require.ErrorIs(t, err, autherr.ErrAppInactive)
	})
}
