package store

import (
	"context"
	"errors"
	"time"

	"github.com/tokensquare/guardian/internal/idp/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable. Every operation here is single-row, so there is no transaction
// surface; if a multi-step flow ever needs atomicity, add it then.
type Store interface {
	Accounts() Accounts
	Apps() Apps
	Credentials() Credentials
	Otps() Otps
	AccountTokens() AccountTokens
	Sessions() Sessions
	ApiKeys() ApiKeys
	ExchangeAttempts() ExchangeAttempts
	AccountLocks() AccountLocks

	ApplyMigrations() error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Accounts interface {
	// GetAccountByID returns an account by id, including soft-deleted ones;
	// callers decide what to do with Deleted.
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// GetAccountByEmail looks an account up by its unique login email.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	// GetAccountByExternalID resolves a directory-backed account by the
	// identifier the external directory knows it by.
	GetAccountByExternalID(ctx context.Context, externalID string) (domain.Account, error)

	// CreateAccount inserts a new account (id is provided by app via ULID).
	CreateAccount(ctx context.Context, a domain.Account) error

	// UpdateAccountActive flips the active flag and bumps updated_at.
	UpdateAccountActive(ctx context.Context, accountID string, active bool) error

	// MarkAccountDeleted soft-deletes; the row stays for audit attribution.
	MarkAccountDeleted(ctx context.Context, accountID string) error
}

type Apps interface {
	// GetAppByID fetches an application by id, including soft-deleted ones.
	GetAppByID(ctx context.Context, id string) (domain.App, error)

	// CreateApp inserts a new application (id is ULID).
	CreateApp(ctx context.Context, a domain.App) error

	// MarkAppDeleted soft-deletes an application.
	MarkAppDeleted(ctx context.Context, appID string) error
}

type Credentials interface {
	// GetCredentialsByIdentifier is used during the basic scheme.
	GetCredentialsByIdentifier(ctx context.Context, identifier string) (domain.Credentials, error)

	// GetCredentialsByAccountID returns the credentials owned by an account.
	GetCredentialsByAccountID(ctx context.Context, accountID string) (domain.Credentials, error)

	// CreateCredentials inserts a new credentials record.
	CreateCredentials(ctx context.Context, c domain.Credentials) error

	// ReplacePassword swaps the whole salt/hash pair, records the version it
	// was hashed under and bumps password_updated_at.
	ReplacePassword(ctx context.Context, credentialsID string, password domain.HashedPassword, version int) error

	// SetTotpSecret enrolls (or clears, with an empty secret) TOTP.
	SetTotpSecret(ctx context.Context, credentialsID string, secret string) error
}

type Otps interface {
	// CreateOtp stores a freshly generated one-time password.
	CreateOtp(ctx context.Context, otp domain.OneTimePassword) error

	// GetOtpByID fetches an OTP by the id half of the wire token.
	GetOtpByID(ctx context.Context, id string) (domain.OneTimePassword, error)

	// DeleteOtp removes a consumed OTP so it cannot be replayed.
	DeleteOtp(ctx context.Context, id string) error

	// DeleteExpiredOtps is housekeeping.
	DeleteExpiredOtps(ctx context.Context, now time.Time) error
}

type AccountTokens interface {
	// CreateAccountToken stores a passwordless or authorization-code token.
	CreateAccountToken(ctx context.Context, t domain.AccountToken) error

	// GetAccountTokenByToken fetches a token record by its opaque value.
	GetAccountTokenByToken(ctx context.Context, token string) (domain.AccountToken, error)

	// DeleteAccountToken removes a consumed single-use token.
	DeleteAccountToken(ctx context.Context, id string) error

	// DeleteExpiredAccountTokens is housekeeping.
	DeleteExpiredAccountTokens(ctx context.Context, now time.Time) error
}

type Sessions interface {
	// CreateSession stores a new server-side session.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByToken fetches a session by its opaque token.
	GetSessionByToken(ctx context.Context, token string) (domain.Session, error)

	// DeleteSessionByToken terminates a session (logout).
	DeleteSessionByToken(ctx context.Context, token string) error

	// DeleteExpiredSessions is housekeeping.
	DeleteExpiredSessions(ctx context.Context, now time.Time) error
}

type ApiKeys interface {
	// CreateApiKey stores a key record; only the keyed hash is persisted.
	CreateApiKey(ctx context.Context, k domain.ApiKey) error

	// GetApiKeyByHash fetches a non-deleted key by its hash when verifying.
	GetApiKeyByHash(ctx context.Context, hash string) (domain.ApiKey, error)

	// ListApiKeysByAppID returns all non-deleted keys for an application.
	ListApiKeysByAppID(ctx context.Context, appID string) ([]domain.ApiKey, error)

	// MarkApiKeyDeleted soft-deletes a key (revocation).
	MarkApiKeyDeleted(ctx context.Context, id string) error

	// DeleteExpiredApiKeys is housekeeping; keys without expiry are kept.
	DeleteExpiredApiKeys(ctx context.Context, now time.Time) error
}

// ExchangeAttempts is the audit trail. It is append-only: there is no update
// or delete operation, and drivers must not grow one.
type ExchangeAttempts interface {
	// SaveExchangeAttempt appends one attempt row.
	SaveExchangeAttempt(ctx context.Context, a domain.ExchangeAttempt) error

	// FindAttemptsByEntitySince returns the attempts recorded for an entity
	// with a timestamp at or after the cutoff, oldest first.
	FindAttemptsByEntitySince(ctx context.Context, entityID string, since time.Time) ([]domain.ExchangeAttempt, error)
}

type AccountLocks interface {
	// CreateAccountLock inserts a lock row. Overlapping locks for the same
	// account are allowed; the longest-lived one wins.
	CreateAccountLock(ctx context.Context, l domain.AccountLock) error

	// GetActiveLockByAccountID returns a lock whose expiry is still in the
	// future, or ErrNotFound when the account is not locked.
	GetActiveLockByAccountID(ctx context.Context, accountID string, now time.Time) (domain.AccountLock, error)

	// DeleteExpiredAccountLocks is housekeeping.
	DeleteExpiredAccountLocks(ctx context.Context, now time.Time) error
}
