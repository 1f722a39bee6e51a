package events

import (
	"sync"

	"github.com/tabfm/tabfm/internal/models"
)

// DefaultSubscriberBuffer is the per-subscriber queue depth used when a
// caller passes a non-positive buffer size.
const DefaultSubscriberBuffer = 64

// Bus is an in-process publish/subscribe channel for state-change events.
//
// Each subscriber owns a bounded queue. Publish never blocks: events for a
// subscriber whose queue is full are dropped for that subscriber only, and
// delivery to every other subscriber continues. Events arrive per subscriber
// in publish order.
type Bus struct {
	mu     sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool

	logger *Logger
}

// Subscription is one subscriber's view of the bus, starting from the
// moment of subscription. No backlog is replayed.
type Subscription struct {
	id  uint64
	bus *Bus
	ch  chan models.StateChangeEvent

	mu     sync.Mutex
	closed bool

	// Dropped counts events discarded because the queue was full.
	dropped uint64
}

// NewBus creates an event bus.
func NewBus(logger *Logger) *Bus {
	return &Bus{
		subs:   make(map[uint64]*Subscription),
		logger: logger.WithField("component", "event_bus"),
	}
}

// Subscribe registers a new subscriber with the given queue depth.
func (b *Bus) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{
		id:  b.nextID,
		bus: b,
		ch:  make(chan models.StateChangeEvent, buffer),
	}
	if b.closed {
		// A subscription to a closed bus delivers nothing.
		sub.closed = true
		close(sub.ch)
		return sub
	}

	b.nextID++
	b.subs[sub.id] = sub
	return sub
}

// Publish delivers event to every current subscriber. Publishing with no
// subscribers is a no-op.
func (b *Bus) Publish(event models.StateChangeEvent) {
	b.mu.Lock()
	subs := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(event, b.logger)
	}
}

// SubscriberCount returns the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close shuts down the bus and closes every subscriber channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		sub.markClosed()
		delete(b.subs, id)
	}
}

// C returns the channel events arrive on. It is closed on unsubscribe or
// bus shutdown.
func (s *Subscription) C() <-chan models.StateChangeEvent {
	return s.ch
}

// Dropped reports how many events were discarded for this subscriber.
func (s *Subscription) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() {
	s.bus.mu.Lock()
	delete(s.bus.subs, s.id)
	s.bus.mu.Unlock()

	s.markClosed()
}

func (s *Subscription) markClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

func (s *Subscription) deliver(event models.StateChangeEvent, logger *Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	select {
	case s.ch <- event:
	default:
		// Lossy on saturation; a slow subscriber must not stall the rest.
		s.dropped++
		logger.WithFields(map[string]interface{}{
			"subscriber": s.id,
			"event":      string(event.Type),
		}).Warn("Subscriber queue full, dropping event")
	}
}
