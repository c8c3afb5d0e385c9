package domain

import "time"

// Account is a principal that can authenticate and hold tokens. Role and
// permission snapshots from here end up inside sessions and signed tokens.
type Account struct {
	ID          string
	ExternalID  string // identifier in an external directory (LDAP), if any
	Email       string
	Roles       []string
	Permissions []string
	Active      bool
	Deleted     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Usable reports whether tokens may be issued for this account. Providers
// must check this before touching any store.
func (a Account) Usable() bool {
	return a.Active && !a.Deleted
}
