// Package exchange is the credential-exchange engine: authenticate a caller
// with one scheme, hand back a token of another. Exchanges are registered
// explicitly at the composition root and validated against the configured
// allow-list before the process starts serving.
package exchange

import (
	"context"

	"github.com/tokensquare/guardian/internal/idp/autherr"
	"github.com/tokensquare/guardian/internal/idp/domain"
	"github.com/tokensquare/guardian/internal/idp/store"
)

// Scheme names used as exchange endpoints. Config references these in its
// allow-list.
const (
	SchemeBasic             = "basic"
	SchemeOtp               = "otp"
	SchemeTotp              = "totp"
	SchemePasswordless      = "passwordless"
	SchemeSession           = "session"
	SchemeAuthorizationCode = "authorizationCode"
	SchemeAccessToken       = "accessToken"
	SchemeLdap              = "ldap"
)

// AuthProvider issues a token of its scheme for an already-authenticated
// account. Implementations must refuse inactive or deleted accounts before
// touching any store. Restrictions narrow the issued token; strategies with
// no use for them ignore them.
type AuthProvider interface {
	GenerateToken(ctx context.Context, account domain.Account, restrictions *domain.TokenRestrictions) (domain.AuthResponse, error)
}

// AuthVerifier checks a token of its scheme and recovers the account id it
// is bound to.
type AuthVerifier interface {
	VerifyAccountToken(ctx context.Context, token string) (string, error)
}

// Authenticator is the source side of an exchange: it resolves and vets the
// account behind an AuthRequest. The basic scheme authenticates with
// identifier/password; token schemes wrap their verifier via
// NewVerifierAuthenticator.
type Authenticator interface {
	Authenticate(ctx context.Context, req domain.AuthRequest) (domain.Account, error)
}

// Exchange authenticates with the from scheme and issues a token of the to
// scheme in one call.
type Exchange interface {
	From() string
	To() string
	Exchange(ctx context.Context, req domain.AuthRequest) (domain.AuthResponse, error)
}

type exchange struct {
	from     string
	to       string
	authn    Authenticator
	provider AuthProvider
}

// New builds an Exchange from an authenticator and a target provider. This is
// the only Exchange implementation; strategy behavior lives entirely in the
// two collaborators.
func New(from, to string, authn Authenticator, provider AuthProvider) Exchange {
	return &exchange{from: from, to: to, authn: authn, provider: provider}
}

func (e *exchange) From() string { return e.from }
func (e *exchange) To() string   { return e.to }

func (e *exchange) Exchange(ctx context.Context, req domain.AuthRequest) (domain.AuthResponse, error) {
	account, err := e.authn.Authenticate(ctx, req)
	if err != nil {
		return domain.AuthResponse{}, err
	}

	return e.provider.GenerateToken(ctx, account, req.Restrictions)
}

// verifierAuthenticator adapts a token verifier into the source side of an
// exchange: verify the presented token, load the bound account, vet it.
type verifierAuthenticator struct {
	verifier AuthVerifier
	accounts store.Accounts
}

func NewVerifierAuthenticator(verifier AuthVerifier, accounts store.Accounts) Authenticator {
	return &verifierAuthenticator{verifier: verifier, accounts: accounts}
}

func (a *verifierAuthenticator) Authenticate(ctx context.Context, req domain.AuthRequest) (domain.Account, error) {
	accountID, err := a.verifier.VerifyAccountToken(ctx, req.Token)
	if err != nil {
		return domain.Account{}, err
	}

	account, err := a.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		return domain.Account{}, autherr.ForAccount(autherr.KindAccountDoesNotExist,
			"token is bound to a missing account", accountID)
	}
	if !account.Usable() {
		return domain.Account{}, autherr.ForAccount(autherr.KindAccountInactive,
			"account is inactive or deleted", account.ID)
	}

	return account, nil
}
