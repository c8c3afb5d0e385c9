package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/tokensquare/guardian/internal/idp/store"
)

// Housekeeping periodically deletes expired token records so the tables do
// not grow without bound. The exchange-attempt audit trail is deliberately
// excluded: it is indelible.
type Housekeeping struct {
	store    store.Store
	logger   *slog.Logger
	interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewHousekeeping(s store.Store, logger *slog.Logger, interval time.Duration) *Housekeeping {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Housekeeping{
		store:    s,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background worker. Call Stop to shut it down.
func (h *Housekeeping) Start() {
	go h.run()
	h.logger.Info("housekeeping started", "interval", h.interval)
}

// Stop blocks until any in-progress cleanup finishes.
func (h *Housekeeping) Stop() {
	close(h.stopCh)
	<-h.doneCh
	h.logger.Info("housekeeping stopped")
}

func (h *Housekeeping) run() {
	defer close(h.doneCh)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.cleanup()

	for {
		select {
		case <-ticker.C:
			h.cleanup()
		case <-h.stopCh:
			return
		}
	}
}

// cleanup runs each deletion independently; one failure never stops the
// others.
func (h *Housekeeping) cleanup() {
	ctx := context.Background()
	now := time.Now().UTC()

	steps := []struct {
		name string
		fn   func(context.Context, time.Time) error
	}{
		{"otps", h.store.Otps().DeleteExpiredOtps},
		{"account_tokens", h.store.AccountTokens().DeleteExpiredAccountTokens},
		{"sessions", h.store.Sessions().DeleteExpiredSessions},
		{"api_keys", h.store.ApiKeys().DeleteExpiredApiKeys},
		{"account_locks", h.store.AccountLocks().DeleteExpiredAccountLocks},
	}

	for _, step := range steps {
		if err := step.fn(ctx, now); err != nil {
			h.logger.Error("housekeeping step failed", "step", step.name, "error", err)
		}
	}
}
