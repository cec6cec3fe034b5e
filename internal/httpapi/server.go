// Package httpapi exposes the runtime's two network surfaces named in
// spec.md §6: the request API (POST /api/v1/chat) and the analytics
// broadcast stream (GET /ws/analytics).
package httpapi

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"noesis/internal/analytics"
	"noesis/internal/engine"
	"noesis/internal/orchestrator"
)

// Server wires the echo front door to the Orchestrator, Engine, and
// AnalyticsBus.
type Server struct {
	echo         *echo.Echo
	orchestrator *orchestrator.Orchestrator
	engine       *engine.Engine
	analytics    *analytics.Bus
	upgrader     websocket.Upgrader
}

// NewServer builds the HTTP/WS façade.
func NewServer(orch *orchestrator.Orchestrator, eng *engine.Engine, bus *analytics.Bus) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	s := &Server{
		echo:         e,
		orchestrator: orch,
		engine:       eng,
		analytics:    bus,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.registerRoutes()
	return s
}

// ServeHTTP satisfies http.Handler so cmd/runtime can hand this straight to
// http.Server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	s.echo.POST("/api/v1/chat", s.handleChat)
	s.echo.GET("/ws/analytics", s.handleAnalyticsStream)
}
