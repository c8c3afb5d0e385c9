// Package basic implements identifier/password authentication backed by the
// stored credentials and the versioned password provider.
package basic

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"

	"github.com/tokensquare/guardian/internal/idp/autherr"
	"github.com/tokensquare/guardian/internal/idp/domain"
	"github.com/tokensquare/guardian/internal/idp/passwords"
	"github.com/tokensquare/guardian/internal/idp/store"
)

// ParseHeader decodes a "Basic <base64(identifier:password)>" authorization
// value into its two parts. Anything other than exactly two colon-delimited
// parts after decoding is a format error, surfaced before any store lookup.
func ParseHeader(header string) (identifier, password string, err error) {
	scheme, payload, found := strings.Cut(header, " ")
	if !found {
		return "", "", autherr.New(autherr.KindInvalidAuthorizationFormat,
			"authorization value must be '<scheme> <payload>'")
	}
	if !strings.EqualFold(scheme, "Basic") {
		return "", "", autherr.Newf(autherr.KindUnsupportedScheme,
			"unsupported authorization scheme %q", scheme)
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", "", autherr.New(autherr.KindInvalidAuthorizationFormat,
			"authorization payload is not valid base64")
	}

	parts := strings.Split(string(decoded), ":")
	if len(parts) != 2 {
		return "", "", autherr.New(autherr.KindInvalidAuthorizationFormat,
			"credentials must be 'identifier:password'")
	}

	return parts[0], parts[1], nil
}

// Authenticator verifies identifier/password pairs. It is the source side of
// every basic -> X exchange.
type Authenticator struct {
	credentials store.Credentials
	accounts    store.Accounts
	passwords   *passwords.Provider
	logger      *slog.Logger
}

func NewAuthenticator(credentials store.Credentials, accounts store.Accounts, provider *passwords.Provider, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{
		credentials: credentials,
		accounts:    accounts,
		passwords:   provider,
		logger:      logger,
	}
}

// Authenticate resolves the account behind the request. The request carries
// either a pre-split identifier/password pair or a raw basic header token.
func (a *Authenticator) Authenticate(ctx context.Context, req domain.AuthRequest) (domain.Account, error) {
	identifier, password := req.Identifier, req.Password
	if identifier == "" && req.Token != "" {
		var err error
		identifier, password, err = ParseHeader(req.Token)
		if err != nil {
			return domain.Account{}, err
		}
	}

	creds, err := a.credentials.GetCredentialsByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, autherr.Newf(autherr.KindCredentialsDoesNotExist,
				"no credentials for identifier %q", identifier)
		}
		return domain.Account{}, err
	}

	account, err := a.accounts.GetAccountByID(ctx, creds.AccountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, autherr.ForAccount(autherr.KindAccountDoesNotExist,
				"credentials are bound to a missing account", creds.AccountID)
		}
		return domain.Account{}, err
	}
	if !account.Usable() {
		return domain.Account{}, autherr.ForAccount(autherr.KindAccountInactive,
			"account is inactive or deleted", account.ID)
	}

	impl, ok := a.passwords.ForVersion(creds.PasswordVersion)
	if !ok {
		return domain.Account{}, autherr.Configuration(
			"no password configuration for stored version %d", creds.PasswordVersion)
	}
	if !impl.Verify(password, creds.Password) {
		return domain.Account{}, autherr.ForAccount(autherr.KindPasswordsDoNotMatch,
			"password verification failed", account.ID)
	}

	// The rehash itself is the caller's concern; this core only surfaces
	// the signal.
	if a.passwords.BelowMinimum(creds.PasswordVersion) {
		a.logger.Warn("credentials hashed below minimum password version",
			slog.String("account_id", account.ID),
			slog.Int("version", creds.PasswordVersion),
		)
	}

	return account, nil
}
