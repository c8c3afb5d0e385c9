// Package totp verifies time-based one-time passwords against a secret
// enrolled on the account's credentials. The wire token is
// "<identifier>:<code>".
package totp

import (
	"context"
	"errors"
	"strings"

	"github.com/pquerna/otp/totp"

	"github.com/tokensquare/guardian/internal/idp/autherr"
	"github.com/tokensquare/guardian/internal/idp/store"
)

// GenerateSecret enrolls a new TOTP secret and returns the otpauth:// URL for
// provisioning an authenticator app.
func GenerateSecret(ctx context.Context, credentials store.Credentials, issuer, identifier string) (string, error) {
	creds, err := credentials.GetCredentialsByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", autherr.Newf(autherr.KindCredentialsDoesNotExist,
				"no credentials for identifier %q", identifier)
		}
		return "", err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: identifier,
	})
	if err != nil {
		return "", err
	}

	if err := credentials.SetTotpSecret(ctx, creds.ID, key.Secret()); err != nil {
		return "", err
	}
	return key.URL(), nil
}

// Verifier checks TOTP codes against the enrolled secret.
type Verifier struct {
	credentials store.Credentials
}

func NewVerifier(credentials store.Credentials) *Verifier {
	return &Verifier{credentials: credentials}
}

func (v *Verifier) VerifyAccountToken(ctx context.Context, token string) (string, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return "", autherr.New(autherr.KindInvalidAuthorizationFormat,
			"TOTP token must be 'identifier:code'")
	}
	identifier, code := parts[0], parts[1]

	creds, err := v.credentials.GetCredentialsByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", autherr.Newf(autherr.KindCredentialsDoesNotExist,
				"no credentials for identifier %q", identifier)
		}
		return "", err
	}
	if creds.TotpSecret == "" {
		return "", autherr.New(autherr.KindInvalidToken, "TOTP is not enrolled")
	}

	if !totp.Validate(code, creds.TotpSecret) {
		return "", autherr.ForAccount(autherr.KindPasswordsDoNotMatch,
			"TOTP code does not match", creds.AccountID)
	}
	return creds.AccountID, nil
}
