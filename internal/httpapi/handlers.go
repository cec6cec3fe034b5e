package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"noesis/internal/analytics"
)

// ChatRequest is the POST /api/v1/chat request body (spec.md §6).
type ChatRequest struct {
	Query     string `json:"query"`
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse mirrors engine.MasterResponse over the wire.
type ChatResponse struct {
	FinalAnswer       string `json:"final_answer"`
	SelfCriticism     string `json:"self_criticism,omitempty"`
	PotentialProblems string `json:"potential_problems,omitempty"`
	RetrievedInfo     string `json:"retrieved_info,omitempty"`
}

func (s *Server) handleChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Query) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query must not be empty"})
	}

	ctx := c.Request().Context()
	decision := s.orchestrator.Route(ctx, req.Query)
	resp := s.engine.Run(ctx, req.Query, decision)

	if s.analytics != nil {
		go s.analytics.Publish(context.Background(), analytics.Event{
			Type: "chat_response",
			Payload: map[string]any{
				"query":      req.Query,
				"user_id":    req.UserID,
				"session_id": req.SessionID,
				"mode":       decision.ChosenMode,
			},
			Timestamp: time.Now(),
		})
	}

	return c.JSON(http.StatusOK, ChatResponse{
		FinalAnswer:       resp.FinalAnswer,
		SelfCriticism:     resp.SelfCriticism,
		PotentialProblems: resp.PotentialProblems,
		RetrievedInfo:     resp.RetrievedInfo,
	})
}
