package domain

import "time"

// HashedPassword is a salt/digest pair produced by one of the secure password
// algorithms. The algorithm and its parameters are implied by the
// PasswordVersion on the owning credentials record.
type HashedPassword struct {
	Salt string
	Hash string
}

// Credentials binds a login identifier to a hashed password for an account.
// The password is replaced wholesale on rotation, never mutated in place.
type Credentials struct {
	ID                string
	AccountID         string
	Identifier        string
	Password          HashedPassword
	PasswordVersion   int
	PasswordUpdatedAt time.Time
	TotpSecret        string // empty when TOTP is not enrolled
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
