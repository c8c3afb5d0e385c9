// Package autherr defines the typed error kinds returned by providers,
// verifiers and exchanges. Request-time failures are values of *Error and are
// matched by kind with errors.Is; configuration kinds abort startup and never
// appear at request time.
package autherr

import (
	"fmt"

	"github.com/tokensquare/guardian/internal/idp/domain"
)

// Kind discriminates authentication failures. The REST layer (out of scope
// here) maps kinds to status codes.
type Kind string

const (
	KindInvalidAuthorizationFormat Kind = "invalid_authorization_format"
	KindUnsupportedScheme          Kind = "unsupported_scheme"
	KindCredentialsDoesNotExist    Kind = "credentials_does_not_exist"
	KindPasswordsDoNotMatch        Kind = "passwords_do_not_match"
	KindAccountDoesNotExist        Kind = "account_does_not_exist"
	KindAccountInactive            Kind = "account_inactive"
	KindAppDoesNotExist            Kind = "app_does_not_exist"
	KindAppInactive                Kind = "app_inactive"
	KindInvalidToken               Kind = "invalid_token"
	KindExpiredToken               Kind = "expired_token"
	KindUnknownExchange            Kind = "unknown_exchange"
	KindConfiguration              Kind = "configuration_error"
)

// Error carries a failure kind plus optional entity attribution. Attribution
// is what lets the audit trail and the account locker tie a failed exchange
// back to the account that caused it.
type Error struct {
	Kind       Kind
	Message    string
	EntityType domain.EntityType
	EntityID   string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches any *Error of the same kind, so callers can write
// errors.Is(err, autherr.ErrInvalidToken) without caring about the message
// or attribution.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Kind sentinels for errors.Is matching.
var (
	ErrInvalidAuthorizationFormat = &Error{Kind: KindInvalidAuthorizationFormat}
	ErrUnsupportedScheme          = &Error{Kind: KindUnsupportedScheme}
	ErrCredentialsDoesNotExist    = &Error{Kind: KindCredentialsDoesNotExist}
	ErrPasswordsDoNotMatch        = &Error{Kind: KindPasswordsDoNotMatch}
	ErrAccountDoesNotExist        = &Error{Kind: KindAccountDoesNotExist}
	ErrAccountInactive            = &Error{Kind: KindAccountInactive}
	ErrAppDoesNotExist            = &Error{Kind: KindAppDoesNotExist}
	ErrAppInactive                = &Error{Kind: KindAppInactive}
	ErrInvalidToken               = &Error{Kind: KindInvalidToken}
	ErrExpiredToken               = &Error{Kind: KindExpiredToken}
	ErrUnknownExchange            = &Error{Kind: KindUnknownExchange}
	ErrConfiguration              = &Error{Kind: KindConfiguration}
)

// New builds an unattributed error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ForAccount builds an error attributed to an account. Attributed failures
// produce audit rows; unattributed ones only produce events.
func ForAccount(kind Kind, message, accountID string) *Error {
	return &Error{
		Kind:       kind,
		Message:    message,
		EntityType: domain.EntityAccount,
		EntityID:   accountID,
	}
}

// Configuration builds a boot-time configuration error. These must abort
// process startup and never be returned on a request path.
func Configuration(format string, args ...any) *Error {
	return Newf(KindConfiguration, format, args...)
}
