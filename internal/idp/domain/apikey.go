package domain

import "time"

// ApiKey is an opaque application key at rest. Only the keyed hash of the
// key material is stored; the plaintext is returned once at generation time.
type ApiKey struct {
	ID        string
	AppID     string
	KeyHash   string
	ExpiresAt *time.Time // nil means the key does not expire
	Deleted   bool
	CreatedAt time.Time
}

// Valid reports whether the key may still be used at the given instant.
func (k ApiKey) Valid(now time.Time) bool {
	if k.Deleted {
		return false
	}
	if k.ExpiresAt == nil {
		return true
	}
	return now.Before(*k.ExpiresAt)
}
