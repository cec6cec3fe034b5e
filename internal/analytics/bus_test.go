package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

type recordingSink struct {
	mu  sync.Mutex
	got []Event
	err error
}

func (s *recordingSink) Send(ctx context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, ev)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func TestPublish_DeliversToAllSubscribers(t *testing.T) {
	b := New()
	a := &recordingSink{}
	c := &recordingSink{}
	b.Subscribe("a", a)
	b.Subscribe("c", c)

	b.Publish(context.Background(), Event{Type: "tick"})

	if a.count() != 1 || c.count() != 1 {
		t.Fatalf("expected both subscribers to receive the event, got a=%d c=%d", a.count(), c.count())
	}
}

func TestPublish_FailingSinkDoesNotBlockOthers(t *testing.T) {
	b := New()
	failing := &recordingSink{err: errors.New("boom")}
	ok := &recordingSink{}
	b.Subscribe("failing", failing)
	b.Subscribe("ok", ok)

	b.Publish(context.Background(), Event{Type: "tick"})

	if ok.count() != 1 {
		t.Fatalf("expected the healthy sink to still receive the event")
	}
}

func TestUnsubscribe_StopsFurtherDelivery(t *testing.T) {
	b := New()
	s := &recordingSink{}
	b.Subscribe("s", s)
	b.Unsubscribe("s")

	b.Publish(context.Background(), Event{Type: "tick"})

	if s.count() != 0 {
		t.Fatalf("expected no delivery after unsubscribe, got %d", s.count())
	}
	if b.SubscriberCount() != 0 {
		t.Fatalf("SubscriberCount() = %d, want 0", b.SubscriberCount())
	}
}

func TestSubscribe_ReplacesExistingName(t *testing.T) {
	b := New()
	first := &recordingSink{}
	second := &recordingSink{}
	b.Subscribe("s", first)
	b.Subscribe("s", second)

	b.Publish(context.Background(), Event{Type: "tick"})

	if first.count() != 0 {
		t.Fatalf("expected replaced sink to receive nothing")
	}
	if second.count() != 1 {
		t.Fatalf("expected replacement sink to receive the event")
	}
	if b.SubscriberCount() != 1 {
		t.Fatalf("SubscriberCount() = %d, want 1", b.SubscriberCount())
	}
}

func TestEvent_MarshalJSON_SingleKeyShape(t *testing.T) {
	ev := Event{Type: "self_criticism", Payload: map[string]any{"critique": "too vague"}}
	body, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	var decoded map[string]map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("expected single-key object, got %s: %v", body, err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected exactly one key, got %d: %s", len(decoded), body)
	}
	payload, ok := decoded["self_criticism"]
	if !ok {
		t.Fatalf("expected key %q, got %s", "self_criticism", body)
	}
	if payload["critique"] != "too vague" {
		t.Fatalf("payload = %+v, want critique=too vague", payload)
	}
}

func TestRecent_ReturnsPublishedEventsCappedAtBacklog(t *testing.T) {
	b := New()
	for i := 0; i < recentEventBacklog+10; i++ {
		b.Publish(context.Background(), Event{Type: "tick"})
	}
	recent := b.Recent()
	if len(recent) != recentEventBacklog {
		t.Fatalf("Recent() len = %d, want %d", len(recent), recentEventBacklog)
	}
}
