package totp_test

import (
	"context"
	"testing"
	"time"

	pqtotp "github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
	"github.com/tokensquare/guardian/internal/idp/autherr"
	"github.com/tokensquare/guardian/internal/idp/domain"
	"github.com/tokensquare/guardian/internal/idp/providers/totp"
	"github.com/tokensquare/guardian/internal/idp/store/drivers/sqlite"
	"github.com/tokensquare/guardian/pkg/idx"
)

func newFixture(t *testing.T) (*sqlite.Store, domain.Account) {
	t.Helper()
	ctx := context.Background()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	now := time.Now().UTC()
	account := domain.Account{
		ID:        idx.New().String(),
		Email:     "alice@example.com",
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.Accounts().CreateAccount(ctx, account))
	require.NoError(t, s.Credentials().CreateCredentials(ctx, domain.Credentials{
		ID:         idx.New().String(),
		AccountID:  account.ID,
		Identifier: "alice",
		CreatedAt:  now,
		UpdatedAt:  now,
	}))
	return s, account
}

func TestTotpEnrollAndVerify(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, account := newFixture(t)
	verifier := totp.NewVerifier(s.Credentials())

	url, err := totp.GenerateSecret(ctx, s.Credentials(), "guardian", "alice")
	require.NoError(t, err)
	require.Contains(t, url, "otpauth://totp/")

	creds, err := s.Credentials().GetCredentialsByIdentifier(ctx, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, creds.TotpSecret)

	code, err := pqtotp.GenerateCode(creds.TotpSecret, time.Now())
	require.NoError(t, err)

	accountID, err := verifier.VerifyAccountToken(ctx, "alice:"+code)
	require.NoError(t, err)
	require.Equal(t, account.ID, accountID)
}

func TestTotpWrongCode(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, account := newFixture(t)
	verifier := totp.NewVerifier(s.Credentials())

	_, err := totp.GenerateSecret(ctx, s.Credentials(), "guardian", "alice")
	require.NoError(t, err)

	_, err = verifier.VerifyAccountToken(ctx, "alice:000000")
	require.ErrorIs(t, err, autherr.ErrPasswordsDoNotMatch)

	var authErr *autherr.Error
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, account.ID, authErr.EntityID)
}

func TestTotpNotEnrolled(t *testing.T) {
	t.Parallel()

	s, _ := newFixture(t)
	verifier := totp.NewVerifier(s.Credentials())

	_, err := verifier.VerifyAccountToken(context.Background(), "alice:123456")
	require.ErrorIs(t, err, autherr.ErrInvalidToken)
}

func TestTotpMalformedToken(t *testing.T) {
	t.Parallel()

	s, _ := newFixture(t)
	verifier := totp.NewVerifier(s.Credentials())

	_, err := verifier.VerifyAccountToken(context.Background(), "no-colon-here")
	require.ErrorIs(t, err, autherr.ErrInvalidAuthorizationFormat)
}

func TestTotpUnknownIdentifier(t *testing.T) {
	t.Parallel()

	s, _ := newFixture(t)
	verifier := totp.NewVerifier(s.Credentials())

	_, err := verifier.VerifyAccountToken(context.Background(), "bob:123456")
	require.ErrorIs(t, err, autherr.ErrCredentialsDoesNotExist)

	_, err = totp.GenerateSecret(context.Background(), s.Credentials(), "guardian", "bob")
	require.ErrorIs(t, err, autherr.ErrCredentialsDoesNotExist)
}
