package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tastebud-ai/tastebud/internal/chat"
	"github.com/tastebud-ai/tastebud/models"
)

// ChatRequest is the request/response chat payload. RestaurantID only
// takes effect when the request starts a new session.
type ChatRequest struct {
	Message      string `json:"message"`
	RestaurantID string `json:"restaurant_id,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
}

// ChatResponse carries the answer, the session id to continue with, and
// the retrieved chunks the answer was grounded on.
type ChatResponse struct {
	Response  string          `json:"response"`
	SessionID string          `json:"session_id"`
	QueryType string          `json:"query_type,omitempty"`
	Sources   []models.Source `json:"sources,omitempty"`
}

type ChatHandler struct {
	Orch *chat.Orchestrator
}

func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("/chat", h.chat)
	g.GET("/chat/:session_id/history", h.history)
}

func (h *ChatHandler) chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	turn, err := h.Orch.Chat(c.Request().Context(), req.SessionID, req.RestaurantID, req.Message)
	if errors.Is(err, chat.ErrEmptyMessage) {
		return echo.NewHTTPError(http.StatusBadRequest, "message required")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ChatResponse{
		Response:  turn.Answer,
		SessionID: turn.SessionID,
		QueryType: turn.QueryType,
		Sources:   turn.Sources,
	})
}

func (h *ChatHandler) history(c echo.Context) error {
	msgs, err := h.Orch.History(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"messages": msgs})
}
