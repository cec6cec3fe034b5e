// Package analytics implements the AnalyticsBus: a fan-out broadcaster of
// structured runtime events to zero or more subscribers (the WebSocket
// façade, the Kafka sink), with per-subscriber error isolation.
package analytics

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// recentEventBacklog bounds how many events Recent returns to a newly
// connected subscriber.
const recentEventBacklog = 50

// Event is a single structured analytics record.
type Event struct {
	Type      string
	Payload   map[string]any
	Timestamp time.Time
}

// MarshalJSON renders the event in the wire shape documented by spec.md §6:
// a single-key object keyed by the event type, e.g. {"self_criticism": {...}}.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{e.Type: e.Payload})
}

// Sink receives broadcast events. A Sink that errors or blocks must not
// prevent delivery to other sinks.
type Sink interface {
	Send(ctx context.Context, ev Event) error
}

// Bus holds the subscriber list and fans out Publish calls to all of them
// concurrently. The subscriber list is guarded by a lock that Publish
// releases before actually sending, so a slow or blocked sink never holds
// up Subscribe/Unsubscribe.
type Bus struct {
	mu     sync.Mutex
	subs   map[string]Sink
	recent []Event
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[string]Sink)}
}

// Recent returns the most recently published events, oldest first, capped
// at recentEventBacklog. Used to build the snapshot a newly connected
// subscriber receives before any live event.
func (b *Bus) Recent() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.recent))
	copy(out, b.recent)
	return out
}

// Subscribe registers sink under name, replacing any prior sink with the
// same name.
func (b *Bus) Subscribe(name string, sink Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[name] = sink
}

// Unsubscribe removes a previously registered sink.
func (b *Bus) Unsubscribe(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, name)
}

// Publish broadcasts ev to every current subscriber concurrently. The
// subscriber snapshot is taken under lock and the lock is released before
// any Send call, so sinks never block registration. A sink whose Send
// returns an error is logged and skipped; it never blocks or cancels
// delivery to the others.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	b.mu.Lock()
	snapshot := make(map[string]Sink, len(b.subs))
	for name, s := range b.subs {
		snapshot[name] = s
	}
	b.recent = append(b.recent, ev)
	if len(b.recent) > recentEventBacklog {
		b.recent = b.recent[len(b.recent)-recentEventBacklog:]
	}
	b.mu.Unlock()

	var wg sync.WaitGroup
	for name, sink := range snapshot {
		wg.Add(1)
		go func(name string, sink Sink) {
			defer wg.Done()
			if err := sink.Send(ctx, ev); err != nil {
				log.Warn().Err(err).Str("subscriber", name).Str("event_type", ev.Type).Msg("analytics: subscriber delivery failed")
			}
		}(name, sink)
	}
	wg.Wait()
}

// SubscriberCount reports how many sinks are currently registered.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
