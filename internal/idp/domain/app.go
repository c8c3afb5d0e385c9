package domain

import "time"

// App is a non-human principal (an application or client) that authenticates
// with API keys rather than credentials.
type App struct {
	ID        string
	Name      string
	AccountID string // owning account, if any
	Active    bool
	Deleted   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Usable reports whether API keys may be issued for this app.
func (a App) Usable() bool {
	return a.Active && !a.Deleted
}
