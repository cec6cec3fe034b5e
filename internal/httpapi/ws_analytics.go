package httpapi

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"noesis/internal/analytics"
)

// wsEventSink adapts one websocket connection into an analytics.Sink.
// gorilla/websocket forbids concurrent writers on a single connection, so
// every Send is serialized through mu.
type wsEventSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsEventSink) Send(_ context.Context, ev analytics.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, body)
}

// handleAnalyticsStream upgrades the connection and subscribes it to the
// AnalyticsBus for the connection's lifetime, unsubscribing on close. The
// client is not expected to send anything; ReadMessage is only polled to
// detect the connection closing.
func (s *Server) handleAnalyticsStream(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	sink := &wsEventSink{conn: conn}
	id := uuid.NewString()
	if s.analytics != nil {
		for _, ev := range s.analytics.Recent() {
			if err := sink.Send(c.Request().Context(), ev); err != nil {
				log.Debug().Str("subscriber", id).Msg("httpapi: analytics websocket closed before snapshot finished sending")
				return nil
			}
		}
		s.analytics.Subscribe(id, sink)
		defer s.analytics.Unsubscribe(id)
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Debug().Str("subscriber", id).Msg("httpapi: analytics websocket closed")
			return nil
		}
	}
}
