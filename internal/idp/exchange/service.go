package exchange

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tokensquare/guardian/internal/idp/autherr"
	"github.com/tokensquare/guardian/internal/idp/bus"
	"github.com/tokensquare/guardian/internal/idp/domain"
	"github.com/tokensquare/guardian/internal/idp/events"
	"github.com/tokensquare/guardian/internal/idp/store"
	"github.com/tokensquare/guardian/pkg/idx"
)

// TokenRevoker explicitly invalidates a token of its type (logout). Providers
// whose tokens can be revoked register themselves with the service.
type TokenRevoker interface {
	TokenType() string
	Revoke(ctx context.Context, token string) error
}

// Service dispatches exchanges through the registry, records the audit trail
// and publishes the authentication event stream.
type Service struct {
	registry *Registry
	attempts store.ExchangeAttempts
	bus      *bus.Bus
	revokers map[string]TokenRevoker
	logger   *slog.Logger
}

func NewService(registry *Registry, attempts store.ExchangeAttempts, b *bus.Bus, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry: registry,
		attempts: attempts,
		bus:      b,
		revokers: make(map[string]TokenRevoker),
		logger:   logger,
	}
}

// RegisterRevoker wires a provider's revocation path into Delete dispatch.
func (s *Service) RegisterRevoker(r TokenRevoker) {
	s.revokers[r.TokenType()] = r
}

// Exchange performs one from -> to credential exchange. Whatever the outcome,
// an authentication event is published on the auth channel. Failed attempts
// are only written to the audit trail when the failure is attributed to an
// account; successes are always written.
func (s *Service) Exchange(ctx context.Context, from, to string, req domain.AuthRequest) (domain.AuthResponse, error) {
	e, err := s.registry.Get(from, to)
	if err != nil {
		return domain.AuthResponse{}, err
	}

	resp, err := e.Exchange(ctx, req)
	if err != nil {
		s.recordFailure(ctx, from, to, err)
		return domain.AuthResponse{}, err
	}

	s.recordSuccess(ctx, from, to, resp)
	return resp, nil
}

// Delete invalidates a previously issued token by its type (e.g. session
// logout). Token types without a registered revoker are rejected.
func (s *Service) Delete(ctx context.Context, tokenType, token string) error {
	r, ok := s.revokers[tokenType]
	if !ok {
		return autherr.Newf(autherr.KindUnsupportedScheme,
			"tokens of type %q cannot be deleted", tokenType)
	}
	return r.Revoke(ctx, token)
}

func (s *Service) recordSuccess(ctx context.Context, from, to string, resp domain.AuthResponse) {
	s.saveAttempt(ctx, domain.ExchangeAttempt{
		ID:           idx.New().String(),
		EntityID:     resp.EntityID,
		ExchangeFrom: from,
		ExchangeTo:   to,
		Successful:   true,
		Timestamp:    time.Now().UTC(),
	})

	s.bus.Publish(events.ChannelAuth, bus.EventAuthentication, events.Auth{
		From:       from,
		To:         to,
		EntityType: resp.EntityType,
		EntityID:   resp.EntityID,
		Successful: true,
	})
}

func (s *Service) recordFailure(ctx context.Context, from, to string, cause error) {
	event := events.Auth{From: from, To: to, Successful: false}

	var authErr *autherr.Error
	if errors.As(cause, &authErr) {
		event.EntityType = authErr.EntityType
		event.EntityID = authErr.EntityID
		event.ErrorKind = string(authErr.Kind)

		// Only account-attributed failures leave an audit row; the lockout
		// policy counts these.
		if authErr.EntityType == domain.EntityAccount && authErr.EntityID != "" {
			s.saveAttempt(ctx, domain.ExchangeAttempt{
				ID:           idx.New().String(),
				EntityID:     authErr.EntityID,
				ExchangeFrom: from,
				ExchangeTo:   to,
				Successful:   false,
				Timestamp:    time.Now().UTC(),
			})
		}
	}

	s.bus.Publish(events.ChannelAuth, bus.EventAuthentication, event)
}

// The audit trail is best effort from the caller's point of view: a write
// failure is logged, never surfaced into the request path.
func (s *Service) saveAttempt(ctx context.Context, attempt domain.ExchangeAttempt) {
	if err := s.attempts.SaveExchangeAttempt(ctx, attempt); err != nil {
		s.logger.Error("failed to record exchange attempt",
			slog.String("entity_id", attempt.EntityID),
			slog.String("from", attempt.ExchangeFrom),
			slog.String("to", attempt.ExchangeTo),
			slog.Any("error", err),
		)
	}
}
