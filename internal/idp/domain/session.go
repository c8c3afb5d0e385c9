package domain

import "time"

// Keys used in the session data snapshot. The snapshot lets downstream
// checks read roles and permissions without a fresh account lookup.
const (
	SessionKeyAccountID   = "accountId"
	SessionKeyRoles       = "roles"
	SessionKeyPermissions = "permissions"
)

// Session is a server-side login session addressed by an opaque token.
type Session struct {
	ID           string
	SessionToken string
	AccountID    string
	ExpiresAt    time.Time
	Data         map[string]string
	CreatedAt    time.Time
}

// Expired reports whether the session is past its expiry at the given instant.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
