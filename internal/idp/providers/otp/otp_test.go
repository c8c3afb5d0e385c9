package otp_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tokensquare/guardian/internal/idp/autherr"
	"github.com/tokensquare/guardian/internal/idp/bus"
	"github.com/tokensquare/guardian/internal/idp/domain"
	"github.com/tokensquare/guardian/internal/idp/events"
	"github.com/tokensquare/guardian/internal/idp/providers/otp"
	"github.com/tokensquare/guardian/internal/idp/store/drivers/sqlite"
	"github.com/tokensquare/guardian/pkg/cryptox"
	"github.com/tokensquare/guardian/pkg/idx"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func activeAccount(t *testing.T, s *sqlite.Store) domain.Account {
	t.Helper()

	now := time.Now().UTC()
	account := domain.Account{
		ID:        idx.New().String(),
		Email:     idx.New().String() + "@example.com",
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.Accounts().CreateAccount(context.Background(), account))
	return account
}

func TestOtpLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newStore(t)
	account := activeAccount(t, s)
	b := bus.New(nil)

	delivered := make(chan events.OtpGenerated, 1)
	b.Subscribe(events.ChannelOtp, bus.SubscriberFunc(func(ctx context.Context, msg bus.Message) {
		if body, ok := msg.Body.(events.OtpGenerated); ok {
			delivered <- body
		}
	}))

	provider := otp.NewProvider(s.Otps(), b, otp.Config{
		Length: 6, Mode: cryptox.ModeAlphanumeric, LifeTime: 5 * time.Minute,
	})
	verifier := otp.NewVerifier(s.Otps())

	resp, err := provider.GenerateToken(ctx, account, nil)
	require.NoError(t, err)
	require.Equal(t, "otp", resp.Type)
	require.NotEmpty(t, resp.Token)

	// The password travels only via the event, never in the response.
	b.Wait()
	event := <-delivered
	require.Equal(t, account.ID, event.Account.ID)
	require.Len(t, event.Otp.Password, 6)
	require.NotContains(t, resp.Token, event.Otp.Password)

	t.Run("wrong password", func(t *testing.T) {
		_, err := verifier.VerifyAccountToken(ctx, resp.Token+":wrong")
		require.ErrorIs(t, err, autherr.ErrPasswordsDoNotMatch)

		var authErr *autherr.Error
		require.ErrorAs(t, err, &authErr)
		require.Equal(t, account.ID, authErr.EntityID)
	})

	t.Run("no colon", func(t *testing.T) {
		_, err := verifier.VerifyAccountToken(ctx, "not-a-valid-otp")
		require.ErrorIs(t, err, autherr.ErrInvalidAuthorizationFormat)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := verifier.VerifyAccountToken(ctx, ":123456")
		require.ErrorIs(t, err, autherr.ErrInvalidToken)
	})

	t.Run("correct password consumes the otp", func(t *testing.T) {
		accountID, err := verifier.VerifyAccountToken(ctx, resp.Token+":"+event.Otp.Password)
		require.NoError(t, err)
		require.Equal(t, account.ID, accountID)

		// Replays fail: the otp is gone.
		_, err = verifier.VerifyAccountToken(ctx, resp.Token+":"+event.Otp.Password)
		require.ErrorIs(t, err, autherr.ErrInvalidToken)
	})
}

func TestOtpExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newStore(t)
	account := activeAccount(t, s)
	verifier := otp.NewVerifier(s.Otps())

	record := domain.OneTimePassword{
		ID:        idx.New().String(),
		AccountID: account.ID,
		Password:  "482913",
		ExpiresAt: time.Now().UTC().Add(-time.Second),
		CreatedAt: time.Now().UTC().Add(-5 * time.Minute),
	}
	require.NoError(t, s.Otps().CreateOtp(ctx, record))

	_, err := verifier.VerifyAccountToken(ctx, record.ID+":482913")
	require.ErrorIs(t, err, autherr.ErrExpiredToken)
}

func TestOtpRejectsInactiveAccount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newStore(t)
	account := activeAccount(t, s)
	account.Active = false

	provider := otp.NewProvider(s.Otps(), bus.New(nil), otp.Config{
		Length: 6, Mode: cryptox.ModeNumeric, LifeTime: 5 * time.Minute,
	})

	_, err := provider.GenerateToken(ctx, account, nil)
	require.ErrorIs(t, err, autherr.ErrAccountInactive)
}
