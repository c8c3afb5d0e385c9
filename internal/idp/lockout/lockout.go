// Package lockout implements the account locker: a bus subscriber that
// counts recent failed exchange attempts and locks accounts that cross the
// configured threshold.
package lockout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tokensquare/guardian/internal/idp/bus"
	"github.com/tokensquare/guardian/internal/idp/domain"
	"github.com/tokensquare/guardian/internal/idp/events"
	"github.com/tokensquare/guardian/internal/idp/store"
	"github.com/tokensquare/guardian/pkg/idx"
)

type Config struct {
	MaxAttempts int           `env:"MAX_ATTEMPTS" envDefault:"3"`
	CheckPeriod time.Duration `env:"CHECK_PERIOD" envDefault:"30m"`
	LockPeriod  time.Duration `env:"LOCK_PERIOD" envDefault:"1h"`
}

// Locker applies a sliding-window failure-count policy. It is deliberately
// best effort: concurrent evaluations may double-lock (a second lock just
// extends protection) or briefly under-count, and neither is guarded by a
// transaction.
type Locker struct {
	attempts store.ExchangeAttempts
	locks    store.AccountLocks
	cfg      Config
	logger   *slog.Logger
}

func NewLocker(attempts store.ExchangeAttempts, locks store.AccountLocks, cfg Config, logger *slog.Logger) *Locker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locker{attempts: attempts, locks: locks, cfg: cfg, logger: logger}
}

// Notify implements bus.Subscriber on the auth channel. Non-authentication
// events and non-account entities are ignored.
func (l *Locker) Notify(ctx context.Context, msg bus.Message) {
	if msg.EventType != bus.EventAuthentication {
		return
	}
	event, ok := msg.Body.(events.Auth)
	if !ok || event.EntityType != domain.EntityAccount || event.EntityID == "" {
		return
	}

	if err := l.evaluate(ctx, event.EntityID); err != nil {
		l.logger.Error("account lock evaluation failed",
			slog.String("account_id", event.EntityID),
			slog.Any("error", err),
		)
	}
}

func (l *Locker) evaluate(ctx context.Context, accountID string) error {
	now := time.Now().UTC()

	attempts, err := l.attempts.FindAttemptsByEntitySince(ctx, accountID, now.Add(-l.cfg.CheckPeriod))
	if err != nil {
		return err
	}

	failures := 0
	for _, attempt := range attempts {
		if !attempt.Successful {
			failures++
		}
	}
	if failures < l.cfg.MaxAttempts {
		return nil
	}

	lock := domain.AccountLock{
		ID:        idx.New().String(),
		AccountID: accountID,
		ExpiresAt: now.Add(l.cfg.LockPeriod),
		CreatedAt: now,
	}
	if err := l.locks.CreateAccountLock(ctx, lock); err != nil {
		// A concurrent evaluation already locked; that lock stands.
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil
		}
		return err
	}

	l.logger.Warn("account locked after repeated authentication failures",
		slog.String("account_id", accountID),
		slog.Int("failures", failures),
		slog.Time("expires_at", lock.ExpiresAt),
	)
	return nil
}

// IsLocked reports whether an account currently has an active lock. The
// exchange surface consults this before authenticating account entities.
func (l *Locker) IsLocked(ctx context.Context, accountID string) (bool, error) {
	_, err := l.locks.GetActiveLockByAccountID(ctx, accountID, time.Now().UTC())
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
