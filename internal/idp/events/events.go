// Package events holds the typed bodies published on the bus.
package events

import (
	"github.com/tokensquare/guardian/internal/idp/domain"
)

// Channel names.
const (
	ChannelAuth         = "auth"
	ChannelOtp          = "otp"
	ChannelPasswordless = "passwordless"
)

// Auth describes the outcome of one exchange attempt. Published on the auth
// channel for every exchange, success or failure.
type Auth struct {
	From       string
	To         string
	EntityType domain.EntityType
	EntityID   string
	Successful bool
	ErrorKind  string // empty on success
}

// OtpGenerated is published when an OTP is created; an external delivery
// subscriber (email/SMS) turns it into a message to the user. The password
// itself rides on the event because it is never part of the returned token.
type OtpGenerated struct {
	Otp     domain.OneTimePassword
	Account domain.Account
}

// PasswordlessGenerated is published when a passwordless token is created,
// for external delivery as a magic link.
type PasswordlessGenerated struct {
	Token   domain.AccountToken
	Account domain.Account
}
