// Package events implements the small status/progress/transcript event
// surface the view shell observes (spec §9 "Event model"). It is a plain
// in-process broadcaster: any number of subscribers, each with its own
// buffered channel, never blocking the publisher.
package events

import "sync"

// Kind identifies what changed.
type Kind string

const (
	KindStatus             Kind = "status"
	KindProgress           Kind = "progress"
	KindMessageAppended    Kind = "message.appended"
	KindMessageDelta       Kind = "message.deltaAppended"
	KindMessageMetaReplace Kind = "message.metaReplaced"
	KindDocsChanged        Kind = "docs.changed"
)

// Event is a single notification published on the bus. Only the fields
// relevant to Kind are populated; the rest are zero.
type Event struct {
	Kind      Kind
	Status    string
	Progress  float64
	MessageID string
	Delta     string
	Payload   interface{} // entities.Message, []entities.Document, etc.
}

// subscriberBuffer bounds how many events a slow subscriber can lag behind
// before it starts missing events; publishers never block on it.
const subscriberBuffer = 64

// Bus is a fan-out publisher of Events to any number of subscribers.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a new listener and returns its channel along with an
// unsubscribe function. The caller must call unsubscribe when done, or the
// channel leaks.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, unsubscribe
}

// Publish fans Event out to every current subscriber. A subscriber whose
// buffer is full drops the event rather than stalling the publisher — the
// event stream is best-effort, the Store/Index remain the source of truth.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Status is a convenience helper for the common "status text changed" event.
func (b *Bus) Status(text string) {
	b.Publish(Event{Kind: KindStatus, Status: text})
}

// Progress is a convenience helper for progress-fraction events.
func (b *Bus) Progress(fraction float64) {
	b.Publish(Event{Kind: KindProgress, Progress: fraction})
}
