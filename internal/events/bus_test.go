package events_test

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabfm/tabfm/internal/events"
	"github.com/tabfm/tabfm/internal/models"
)

func newTestBus() *events.Bus {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)
	return events.NewBus(logger)
}

func TestPublishSubscribe(t *testing.T) {
	bus := newTestBus()
	defer bus.Close()

	sub := bus.Subscribe(8)
	defer sub.Close()

	event := models.StateChangeEvent{
		Type:  models.EventTabAdded,
		TabID: "tab-1",
		Path:  "/home",
	}
	bus.Publish(event)

	select {
	case got := <-sub.C():
		assert.Equal(t, event.Type, got.Type)
		assert.Equal(t, "tab-1", got.TabID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := newTestBus()
	defer bus.Close()

	// Must not panic or block.
	bus.Publish(models.StateChangeEvent{Type: models.EventModeChanged})
	assert.Zero(t, bus.SubscriberCount())
}

func TestPerSubscriberOrdering(t *testing.T) {
	bus := newTestBus()
	defer bus.Close()

	sub := bus.Subscribe(64)
	defer sub.Close()

	for i := 0; i < 50; i++ {
		bus.Publish(models.StateChangeEvent{
			Type: models.EventTabNavigated,
			Path: fmt.Sprintf("/dir/%03d", i),
		})
	}

	for i := 0; i < 50; i++ {
		select {
		case got := <-sub.C():
			assert.Equal(t, fmt.Sprintf("/dir/%03d", i), got.Path)
		case <-time.After(time.Second):
			t.Fatalf("event %d not delivered", i)
		}
	}
}

func TestSlowSubscriberDropsWithoutStallingOthers(t *testing.T) {
	bus := newTestBus()
	defer bus.Close()

	slow := bus.Subscribe(2)
	defer slow.Close()
	fast := bus.Subscribe(64)
	defer fast.Close()

	for i := 0; i < 10; i++ {
		bus.Publish(models.StateChangeEvent{Type: models.EventListingReady})
	}

	// The fast subscriber saw everything.
	received := 0
	for len(fast.C()) > 0 {
		<-fast.C()
		received++
	}
	assert.Equal(t, 10, received)

	// The slow one kept its buffer depth and counted the rest as dropped.
	assert.Equal(t, 2, len(slow.C()))
	assert.Equal(t, uint64(8), slow.Dropped())
}

func TestSubscriptionClose(t *testing.T) {
	bus := newTestBus()
	defer bus.Close()

	sub := bus.Subscribe(8)
	require.Equal(t, 1, bus.SubscriberCount())

	sub.Close()
	assert.Zero(t, bus.SubscriberCount())

	// Channel closes so range loops terminate.
	_, ok := <-sub.C()
	assert.False(t, ok)

	// Double close is safe.
	sub.Close()
}

func TestBusClose(t *testing.T) {
	bus := newTestBus()

	sub := bus.Subscribe(8)
	bus.Close()

	_, ok := <-sub.C()
	assert.False(t, ok)

	// Subscribing after close yields a closed subscription.
	late := bus.Subscribe(8)
	_, ok = <-late.C()
	assert.False(t, ok)

	// Publish after close is a no-op.
	bus.Publish(models.StateChangeEvent{Type: models.EventModeChanged})
}
