package httpapi

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"noesis/internal/analytics"
	"noesis/internal/engine"
	"noesis/internal/orchestrator"
)

func TestHandleAnalyticsStream_SendsSnapshotBeforeLiveEvents(t *testing.T) {
	bus := analytics.New()
	bus.Publish(context.Background(), analytics.Event{Type: "self_criticism", Payload: map[string]any{"critique": "past run"}})

	orch := &orchestrator.Orchestrator{}
	eng := engine.New(map[string]engine.Pipeline{}, nil, nil)
	s := NewServer(orch, eng, bus)

	srv := httptest.NewServer(s)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/analytics"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, body, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("expected a snapshot message on connect: %v", err)
	}
	if !strings.Contains(string(body), `"self_criticism"`) {
		t.Fatalf("snapshot message = %s, want it to contain the pre-connect event", body)
	}

	bus.Publish(context.Background(), analytics.Event{Type: "potential_problems", Payload: map[string]any{"problems": "live"}})
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, body, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("expected a live event after the snapshot: %v", err)
	}
	if !strings.Contains(string(body), `"potential_problems"`) {
		t.Fatalf("live message = %s, want it to contain the post-connect event", body)
	}
}
