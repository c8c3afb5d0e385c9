// Package bus is the in-process message bus connecting the exchange service
// to its subscribers (account locker, delivery notifiers). Delivery is
// fire-and-forget per channel: a failing subscriber never interrupts the
// publisher or its peers.
package bus

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Wildcard subscribes a handler to every channel, present and future.
const Wildcard = "*"

// EventType tags what a message is about.
type EventType string

const (
	EventAuthentication        EventType = "AUTHENTICATION"
	EventOtpGenerated          EventType = "OTP_GENERATED"
	EventPasswordlessGenerated EventType = "PASSWORDLESS_GENERATED"
	EventEntityCreated         EventType = "ENTITY_CREATED"
	EventEntityUpdated         EventType = "ENTITY_UPDATED"
	EventEntityDeleted         EventType = "ENTITY_DELETED"
)

// Message is the envelope delivered to subscribers. Body is one of the typed
// event structs from the events package; subscribers type-assert to downcast.
type Message struct {
	Channel   string
	EventType EventType
	Body      any
	Timestamp time.Time
}

// Subscriber handles messages from a channel. Implementations must tolerate
// messages they do not understand.
type Subscriber interface {
	Notify(ctx context.Context, msg Message)
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(ctx context.Context, msg Message)

func (f SubscriberFunc) Notify(ctx context.Context, msg Message) { f(ctx, msg) }

// Bus fans messages out to channel subscribers. Safe for concurrent use.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Subscriber
	global      []Subscriber
	logger      *slog.Logger

	wg sync.WaitGroup
}

func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subscribers: make(map[string][]Subscriber),
		logger:      logger,
	}
}

// Subscribe registers a subscriber on a channel. Subscribing to Wildcard
// receives messages from all channels.
func (b *Bus) Subscribe(channel string, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if channel == Wildcard {
		b.global = append(b.global, sub)
		return
	}
	b.subscribers[channel] = append(b.subscribers[channel], sub)
}

// Publish delivers a message to every subscriber of the channel plus all
// wildcard subscribers. Each delivery runs in its own goroutine with panic
// recovery, so Publish never blocks on or fails because of a subscriber.
func (b *Bus) Publish(channel string, eventType EventType, body any) {
	msg := Message{
		Channel:   channel,
		EventType: eventType,
		Body:      body,
		Timestamp: time.Now().UTC(),
	}

	b.mu.RLock()
	targets := make([]Subscriber, 0, len(b.subscribers[channel])+len(b.global))
	targets = append(targets, b.subscribers[channel]...)
	targets = append(targets, b.global...)
	b.mu.RUnlock()

	for _, sub := range targets {
		b.wg.Add(1)
		go b.deliver(sub, msg)
	}
}

// Wait blocks until all in-flight deliveries finish. Tests and graceful
// shutdown use this.
func (b *Bus) Wait() {
	b.wg.Wait()
}

func (b *Bus) deliver(sub Subscriber, msg Message) {
	defer b.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("message subscriber panicked",
				slog.String("channel", msg.Channel),
				slog.String("event_type", string(msg.EventType)),
				slog.Any("panic", r),
			)
		}
	}()

	sub.Notify(context.Background(), msg)
}
