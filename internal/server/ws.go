package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/tastebud-ai/tastebud/internal/chat"
	"github.com/tastebud-ai/tastebud/models"
)

// WSFrame is one inbound websocket message. It mirrors ChatRequest so a
// client can resume its session after a reconnect by echoing session_id.
type WSFrame struct {
	Message      string `json:"message"`
	RestaurantID string `json:"restaurant_id,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
}

// WSReply is one outbound websocket message. Exactly one of Response or
// Error is set.
type WSReply struct {
	Response  string          `json:"response,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	QueryType string          `json:"query_type,omitempty"`
	Sources   []models.Source `json:"sources,omitempty"`
	Error     string          `json:"error,omitempty"`
}

type WSHandler struct {
	Orch     *chat.Orchestrator
	Logger   *log.Logger
	upgrader websocket.Upgrader
}

func (h *WSHandler) Register(g *echo.Group) {
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	g.GET("/ws/chat", h.serve)
}

// serve runs the read loop for one connection. The connection carries one
// logical session: the first turn fixes it, later frames may omit the id.
func (h *WSHandler) serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx := c.Request().Context()
	var sessionID string

	for {
		var frame WSFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.Logger.Printf("connection closed: %v", err)
			}
			return nil
		}

		id := frame.SessionID
		if id == "" {
			id = sessionID
		}

		turn, err := h.Orch.Chat(ctx, id, frame.RestaurantID, frame.Message)
		if err != nil {
			reply := WSReply{Error: "internal error"}
			if errors.Is(err, chat.ErrEmptyMessage) {
				reply.Error = "message required"
			} else {
				h.Logger.Printf("turn failed: %v", err)
			}
			if err := conn.WriteJSON(reply); err != nil {
				return nil
			}
			continue
		}

		sessionID = turn.SessionID
		reply := WSReply{
			Response:  turn.Answer,
			SessionID: turn.SessionID,
			QueryType: turn.QueryType,
			Sources:   turn.Sources,
		}
		if err := conn.WriteJSON(reply); err != nil {
			return nil
		}
	}
}
