package service

import (
	"noted_backend/pkg/monitoring"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types broadcast on the bus. The bus itself does not validate the
// taxonomy; producers own their names.
const (
	EventSessionCreated       = "session.created"
	EventSessionEnded         = "session.ended"
	EventSessionDeleted       = "session.deleted"
	EventChunkAdded           = "chunk.added"
	EventAssetUploaded        = "asset.uploaded"
	EventFlashcardsGenerated  = "flashcards.generated"
	EventSummaryGenerated     = "summary.generated"
	EventExplanationGenerated = "explanation.generated"
	EventCourseAssigned       = "course.assigned"
	EventQuizSubmitted        = "quiz.submitted"
	EventProposalCreated      = "proposal.created"
	EventProposalConfirmed    = "proposal.confirmed"
	EventProposalRejected     = "proposal.rejected"
)

const subscriberBuffer = 64

type Event struct {
	EventID   string      `json:"event_id"`
	EventType string      `json:"event_type"`
	SessionID *uint       `json:"session_id,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Subscriber receives events on C until Unsubscribe is called. The channel
// is buffered; a subscriber that stops draining loses events instead of
// blocking the publisher.
type Subscriber struct {
	C chan Event
}

// EventBus fans application events out to all connected subscribers.
// Delivery happens under the read lock while Unsubscribe closes channels
// under the write lock, so a publish can never hit a closed channel.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[*Subscriber]struct{}
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[*Subscriber]struct{}),
	}
}

func (b *EventBus) Subscribe() *Subscriber {
	sub := &Subscriber{
		C: make(chan Event, subscriberBuffer),
	}

	b.mu.Lock()
	b.subscribers[sub] = struct{}{}
	b.mu.Unlock()

	monitoring.EventSubscribers.Inc()
	return sub
}

func (b *EventBus) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	_, ok := b.subscribers[sub]
	if ok {
		delete(b.subscribers, sub)
		close(sub.C)
	}
	b.mu.Unlock()

	if ok {
		monitoring.EventSubscribers.Dec()
	}
}

func (b *EventBus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Publish builds the event and delivers it to every current subscriber
// without blocking. Sends stay inside the read lock; each send is a
// non-blocking select, so a full inbox drops the event rather than stalling
// registration or other deliveries.
func (b *EventBus) Publish(eventType string, sessionID *uint, message string, data interface{}) Event {
	event := Event{
		EventID:   uuid.New().String(),
		EventType: eventType,
		SessionID: sessionID,
		Message:   message,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}

	b.mu.RLock()
	for sub := range b.subscribers {
		select {
		case sub.C <- event:
		default:
			monitoring.EventsDropped.Inc()
		}
	}
	b.mu.RUnlock()

	monitoring.EventsBroadcast.WithLabelValues(eventType).Inc()
	return event
}
