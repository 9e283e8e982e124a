package service

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusFanout(t *testing.T) {
	bus := NewEventBus()
	a := bus.Subscribe()
	b := bus.Subscribe()
	defer bus.Unsubscribe(a)
	defer bus.Unsubscribe(b)

	sessionID := uint(7)
	published := bus.Publish(EventSessionCreated, &sessionID, "session created", map[string]interface{}{"title": "Physics"})

	require.NotEmpty(t, published.EventID)
	assert.Equal(t, EventSessionCreated, published.EventType)
	require.NotNil(t, published.SessionID)
	assert.Equal(t, uint(7), *published.SessionID)
	assert.WithinDuration(t, time.Now().UTC(), published.CreatedAt, time.Second)

	for _, sub := range []*Subscriber{a, b} {
		select {
		case got := <-sub.C:
			assert.Equal(t, published.EventID, got.EventID)
			assert.Equal(t, "session created", got.Message)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestEventBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewEventBus()
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer+10; i++ {
			bus.Publish(EventChunkAdded, nil, "chunk", nil)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a full subscriber")
	}

	assert.Len(t, sub.C, subscriberBuffer)
}

func TestEventBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewEventBus()
	sub := bus.Subscribe()
	require.Equal(t, 1, bus.SubscriberCount())

	bus.Unsubscribe(sub)
	assert.Equal(t, 0, bus.SubscriberCount())

	_, open := <-sub.C
	assert.False(t, open)

	// a second unsubscribe must not panic on the closed channel
	bus.Unsubscribe(sub)
}

func TestEventBusConcurrentPublishAndChurn(t *testing.T) {
	bus := NewEventBus()
	stop := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					bus.Publish(EventChunkAdded, nil, "chunk", nil)
				}
			}
		}()
	}

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					sub := bus.Subscribe()
					bus.Unsubscribe(sub)
				}
			}
		}()
	}

	time.Sleep(200 * time.Millisecond)
	close(stop)
	wg.Wait()

	assert.Equal(t, 0, bus.SubscriberCount())
}

func TestEventBusLateSubscriberMissesPastEvents(t *testing.T) {
	bus := NewEventBus()
	for i := 0; i < 3; i++ {
		bus.Publish(EventChunkAdded, nil, "chunk", nil)
	}

	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)
	assert.Empty(t, sub.C)

	bus.Publish(EventSessionEnded, nil, "session ended", nil)
	select {
	case got := <-sub.C:
		assert.Equal(t, EventSessionEnded, got.EventType)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive the post-subscribe event")
	}
}

func TestEventOmitsEmptyFieldsOnTheWire(t *testing.T) {
	bus := NewEventBus()
	event := bus.Publish(EventChunkAdded, nil, "", nil)

	raw, err := json.Marshal(event)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"message"`)
	assert.NotContains(t, string(raw), `"session_id"`)
	assert.NotContains(t, string(raw), `"data"`)
}

func TestEventBusPublishWithoutSubscribers(t *testing.T) {
	bus := NewEventBus()
	event := bus.Publish(EventSummaryGenerated, nil, "summary ready", nil)
	assert.Equal(t, EventSummaryGenerated, event.EventType)
}
