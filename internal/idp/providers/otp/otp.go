// Package otp implements one-time passwords delivered out of band. The
// returned token is the OTP record id; the caller proves possession later
// with the composite "<id>:<password>" wire token.
package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/tokensquare/guardian/internal/idp/autherr"
	"github.com/tokensquare/guardian/internal/idp/bus"
	"github.com/tokensquare/guardian/internal/idp/domain"
	"github.com/tokensquare/guardian/internal/idp/events"
	"github.com/tokensquare/guardian/internal/idp/store"
	"github.com/tokensquare/guardian/pkg/cryptox"
	"github.com/tokensquare/guardian/pkg/idx"
)

const TokenType = "otp"

type Config struct {
	Length   int                `env:"LENGTH" envDefault:"6"`
	Mode     cryptox.StringMode `env:"MODE" envDefault:"NUMERIC"`
	LifeTime time.Duration      `env:"LIFETIME" envDefault:"5m"`
}

// Provider generates and persists OTPs and publishes the generated event for
// external delivery (email/SMS).
type Provider struct {
	otps store.Otps
	bus  *bus.Bus
	cfg  Config
}

func NewProvider(otps store.Otps, b *bus.Bus, cfg Config) *Provider {
	return &Provider{otps: otps, bus: b, cfg: cfg}
}

func (p *Provider) GenerateToken(ctx context.Context, account domain.Account, _ *domain.TokenRestrictions) (domain.AuthResponse, error) {
	if !account.Usable() {
		return domain.AuthResponse{}, autherr.ForAccount(autherr.KindAccountInactive,
			"account is inactive or deleted", account.ID)
	}

	password, err := cryptox.RandomString(p.cfg.Length, p.cfg.Mode)
	if err != nil {
		return domain.AuthResponse{}, err
	}

	now := time.Now().UTC()
	record := domain.OneTimePassword{
		ID:        idx.New().String(),
		AccountID: account.ID,
		Password:  password,
		ExpiresAt: now.Add(p.cfg.LifeTime),
		CreatedAt: now,
	}
	if err := p.otps.CreateOtp(ctx, record); err != nil {
		return domain.AuthResponse{}, err
	}

	p.bus.Publish(events.ChannelOtp, bus.EventOtpGenerated, events.OtpGenerated{
		Otp:     record,
		Account: account,
	})

	// Only the id leaves the system; the password travels via the event.
	return domain.AuthResponse{
		Type:       TokenType,
		Token:      record.ID,
		EntityType: domain.EntityAccount,
		EntityID:   account.ID,
		ValidFor:   p.cfg.LifeTime,
	}, nil
}

// Verifier consumes "<id>:<password>" wire tokens. A consumed OTP is deleted
// so it cannot be replayed.
type Verifier struct {
	otps store.Otps
}

func NewVerifier(otps store.Otps) *Verifier {
	return &Verifier{otps: otps}
}

func (v *Verifier) VerifyAccountToken(ctx context.Context, token string) (string, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return "", autherr.New(autherr.KindInvalidAuthorizationFormat,
			"OTP token must be 'id:password'")
	}
	id, candidate := parts[0], parts[1]
	if id == "" {
		return "", autherr.New(autherr.KindInvalidToken, "OTP token has no id")
	}

	record, err := v.otps.GetOtpByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", autherr.New(autherr.KindInvalidToken, "OTP does not exist")
		}
		return "", err
	}

	if record.Expired(time.Now().UTC()) {
		return "", autherr.ForAccount(autherr.KindExpiredToken,
			"OTP has expired", record.AccountID)
	}
	if subtle.ConstantTimeCompare([]byte(candidate), []byte(record.Password)) != 1 {
		return "", autherr.ForAccount(autherr.KindPasswordsDoNotMatch,
			"OTP does not match", record.AccountID)
	}

	if err := v.otps.DeleteOtp(ctx, record.ID); err != nil {
		return "", err
	}
	return record.AccountID, nil
}
