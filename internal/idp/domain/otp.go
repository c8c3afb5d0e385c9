package domain

import "time"

// OneTimePassword is a short-lived password delivered out of band. The wire
// token presented back by the caller is "<id>:<password>".
type OneTimePassword struct {
	ID        string
	AccountID string
	Password  string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the OTP is past its expiry at the given instant.
func (o OneTimePassword) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
