package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	messageevent "github.com/bbdeals/wacrm/internal/message/event"
)

const (
	socketWriteWait  = 10 * time.Second
	socketPongWait   = 60 * time.Second
	socketPingPeriod = socketPongWait * 9 / 10
	socketReadLimit  = 8 * 1024
)

var socketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Admin auth already ran in the JWT middleware.
	CheckOrigin: func(*http.Request) bool { return true },
}

type socketFrame struct {
	Type           messageevent.Type `json:"type"`
	ConversationID string            `json:"conversation_id"`
	Message        json.RawMessage   `json:"message,omitempty"`
	Status         json.RawMessage   `json:"status,omitempty"`
}

// StreamMessageSocket pushes the same conversation events as the SSE stream over a websocket.
// Client frames are read only to observe close and pong.
func (h *MessageHandler) StreamMessageSocket(c echo.Context) error {
	conversationID, err := h.requireConversation(c)
	if err != nil {
		return err
	}
	if h.events == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "message events not configured")
	}
	conn, err := socketUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		return nil
	}
	defer conn.Close()

	_, stream, cancel := h.events.Subscribe(conversationID, 128)
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(socketReadLimit)
		_ = conn.SetReadDeadline(time.Now().Add(socketPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(socketPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(socketPingPeriod)
	defer ticker.Stop()
	sent := map[string]struct{}{}

	for {
		select {
		case <-closed:
			return nil
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case event, ok := <-stream:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return nil
			}
			frame, ok := newSocketFrame(conversationID, event, sent)
			if !ok {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
			if err := conn.WriteJSON(frame); err != nil {
				h.logger.Debug("websocket write failed", slog.Any("error", err))
				return nil
			}
		}
	}
}

// newSocketFrame converts a hub event. Repeated message_created events for one message id are dropped.
func newSocketFrame(conversationID string, event messageevent.Event, sent map[string]struct{}) (socketFrame, bool) {
	if len(event.Data) == 0 {
		return socketFrame{}, false
	}
	frame := socketFrame{Type: event.Type, ConversationID: conversationID}
	switch event.Type {
	case messageevent.TypeMessageCreated:
		var ref struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(event.Data, &ref); err != nil {
			return socketFrame{}, false
		}
		if id := strings.TrimSpace(ref.ID); id != "" {
			if _, exists := sent[id]; exists {
				return socketFrame{}, false
			}
			sent[id] = struct{}{}
		}
		frame.Message = event.Data
	case messageevent.TypeMessageStatus:
		frame.Status = event.Data
	default:
		return socketFrame{}, false
	}
	return frame, true
}
