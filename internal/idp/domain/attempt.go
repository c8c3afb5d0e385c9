package domain

import "time"

// ExchangeAttempt is one row of the indelible authentication audit trail.
// Attempts are append-only: no update or delete path exists anywhere.
type ExchangeAttempt struct {
	ID           string
	EntityID     string
	ExchangeFrom string
	ExchangeTo   string
	Successful   bool
	Timestamp    time.Time
}

// AccountLock blocks an account from authenticating until it expires.
// A lock is active iff now < ExpiresAt; there is no explicit unlock.
type AccountLock struct {
	ID        string
	AccountID string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Active reports whether the lock is still in force at the given instant.
func (l AccountLock) Active(now time.Time) bool {
	return now.Before(l.ExpiresAt)
}
