package exchange_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tokensquare/guardian/internal/idp/autherr"
	"github.com/tokensquare/guardian/internal/idp/bus"
	"github.com/tokensquare/guardian/internal/idp/domain"
	"github.com/tokensquare/guardian/internal/idp/events"
	"github.com/tokensquare/guardian/internal/idp/exchange"
	"github.com/tokensquare/guardian/internal/idp/store/drivers/sqlite"
	"github.com/tokensquare/guardian/pkg/idx"
)

type capture struct {
	mu   sync.Mutex
	msgs []bus.Message
}

func (c *capture) Notify(ctx context.Context, msg bus.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

func (c *capture) all() []bus.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]bus.Message(nil), c.msgs...)
}

func newServiceFixture(t *testing.T, e exchange.Exchange) (*exchange.Service, *sqlite.Store, *bus.Bus, *capture) {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	builder := exchange.NewBuilder()
	builder.Register(e)
	registry, err := builder.Build([]exchange.Pair{{From: e.From(), To: e.To()}})
	require.NoError(t, err)

	b := bus.New(nil)
	sink := &capture{}
	b.Subscribe(events.ChannelAuth, sink)

	return exchange.NewService(registry, s.ExchangeAttempts(), b, nil), s, b, sink
}

func TestServiceRecordsSuccess(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	accountID := idx.New().String()
	svc, s, b, sink := newServiceFixture(t, &staticExchange{
		from: "basic", to: "session",
		resp: domain.AuthResponse{
			Type:       "session_token",
			Token:      "issued",
			EntityType: domain.EntityAccount,
			EntityID:   accountID,
		},
	})

	resp, err := svc.Exchange(ctx, "basic", "session", domain.AuthRequest{})
	require.NoError(t, err)
	require.Equal(t, "issued", resp.Token)

	attempts, err := s.ExchangeAttempts().FindAttemptsByEntitySince(ctx, accountID, time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	require.True(t, attempts[0].Successful)
	require.Equal(t, "basic", attempts[0].ExchangeFrom)
	require.Equal(t, "session", attempts[0].ExchangeTo)

	b.Wait()
	msgs := sink.all()
	require.Len(t, msgs, 1)
	event, ok := msgs[0].Body.(events.Auth)
	require.True(t, ok)
	require.True(t, event.Successful)
	require.Equal(t, accountID, event.EntityID)
}

func TestServiceRecordsAttributedFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	accountID := idx.New().String()
	svc, s, b, sink := newServiceFixture(t, &staticExchange{
		from: "basic", to: "session",
		err: autherr.ForAccount(autherr.KindPasswordsDoNotMatch, "password verification failed", accountID),
	})

	_, err := svc.Exchange(ctx, "basic", "session", domain.AuthRequest{})
	require.ErrorIs(t, err, autherr.ErrPasswordsDoNotMatch)

	attempts, err := s.ExchangeAttempts().FindAttemptsByEntitySince(ctx, accountID, time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	require.False(t, attempts[0].Successful)

	b.Wait()
	msgs := sink.all()
	require.Len(t, msgs, 1)
	event := msgs[0].Body.(events.Auth)
	require.False(t, event.Successful)
	require.Equal(t, string(autherr.KindPasswordsDoNotMatch), event.ErrorKind)
}

func TestServiceUnattributedFailureSkipsAudit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, s, b, sink := newServiceFixture(t, &staticExchange{
		from: "basic", to: "session",
		err: autherr.New(autherr.KindCredentialsDoesNotExist, "no credentials"),
	})

	_, err := svc.Exchange(ctx, "basic", "session", domain.AuthRequest{})
	require.ErrorIs(t, err, autherr.ErrCredentialsDoesNotExist)

	// No entity attribution means no audit row, but the event still flows.
	attempts, err := s.ExchangeAttempts().FindAttemptsByEntitySince(ctx, "", time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)
	require.Empty(t, attempts)

	b.Wait()
	require.Len(t, sink.all(), 1)
}

func TestServiceUnknownExchange(t *testing.T) {
	t.Parallel()

	svc, _, b, sink := newServiceFixture(t, &staticExchange{from: "basic", to: "session"})

	_, err := svc.Exchange(context.Background(), "basic", "otp", domain.AuthRequest{})
	require.ErrorIs(t, err, autherr.ErrUnknownExchange)

	// Unknown pairs never reach the audit or event paths.
	b.Wait()
	require.Empty(t, sink.all())
}

type fakeRevoker struct {
	tokenType string
	revoked   []string
}

func (r *fakeRevoker) TokenType() string { return r.tokenType }
func (r *fakeRevoker) Revoke(ctx context.Context, token string) error {
	r.revoked = append(r.revoked, token)
	return nil
}

func TestServiceDeleteDispatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _, _, _ := newServiceFixture(t, &staticExchange{from: "basic", to: "session"})

	revoker := &fakeRevoker{tokenType: "session_token"}
	svc.RegisterRevoker(revoker)

	require.NoError(t, svc.Delete(ctx, "session_token", "some-token"))
	require.Equal(t, []string{"some-token"}, revoker.revoked)

	err := svc.Delete(ctx, "otp", "anything")
	require.ErrorIs(t, err, autherr.ErrUnsupportedScheme)
}
