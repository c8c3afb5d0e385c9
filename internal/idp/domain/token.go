package domain

import "time"

// EntityType tags which kind of principal a token or error refers to.
type EntityType string

const (
	EntityAccount     EntityType = "ACCOUNT"
	EntityApplication EntityType = "APPLICATION"
)

// TokenRestrictions narrows what an issued token may be used for. Strategies
// that have no use for restrictions ignore them.
type TokenRestrictions struct {
	Scopes      []string
	Permissions []string
}

// AuthRequest is the input to an exchange: either an opaque/composite token
// or an identifier/password pair, depending on the source scheme.
type AuthRequest struct {
	Token        string
	Identifier   string
	Password     string
	Restrictions *TokenRestrictions
}

// AuthResponse is the output of a provider: the generated token plus the
// entity it is bound to.
type AuthResponse struct {
	Type       string // token type tag, e.g. "otp", "session_token"
	Token      string
	EntityType EntityType
	EntityID   string
	ValidFor   time.Duration // zero when the token does not expire
}

// AccountToken is the unified credential token record shared by the
// passwordless and authorization-code schemes. Single-use tokens are deleted
// on consumption; expired ones are logically dead either way.
type AccountToken struct {
	ID                  string
	Token               string
	AssociatedAccountID string
	ExpiresAt           time.Time
	AdditionalInfo      map[string]string
	CreatedAt           time.Time
}

// Expired reports whether the token is past its expiry at the given instant.
func (t AccountToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
