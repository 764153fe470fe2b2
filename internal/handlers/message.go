package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bbdeals/wacrm/internal/auth"
	"github.com/bbdeals/wacrm/internal/conversation"
	messagepkg "github.com/bbdeals/wacrm/internal/message"
	messageevent "github.com/bbdeals/wacrm/internal/message/event"
	"github.com/bbdeals/wacrm/internal/outbound"
)

const sseHeartbeat = 20 * time.Second

// MessageLister reads conversation history.
type MessageLister interface {
	ListByConversation(ctx context.Context, conversationID string, before *time.Time, limit int32) ([]messagepkg.Message, error)
}

// TextSender sends operator messages.
type TextSender interface {
	SendText(ctx context.Context, conversationID, text string) (messagepkg.Message, error)
}

type conversationReader interface {
	Get(ctx context.Context, conversationID string) (conversation.Conversation, error)
}

// MessageHandler serves conversation history, outbound sends and the live event stream.
type MessageHandler struct {
	conversations conversationReader
	messages      MessageLister
	sender        TextSender
	events        messageevent.Subscriber
	logger        *slog.Logger
}

func NewMessageHandler(log *slog.Logger, conversations conversationReader, messages MessageLister, sender TextSender, events messageevent.Subscriber) *MessageHandler {
	return &MessageHandler{
		conversations: conversations,
		messages:      messages,
		sender:        sender,
		events:        events,
		logger:        log.With(slog.String("handler", "message")),
	}
}

// Register registers the message routes under a conversation.
func (h *MessageHandler) Register(e *echo.Echo) {
	group := e.Group("/conversations/:id/messages")
	group.GET("", h.ListMessages)
	group.POST("", h.SendMessage)
	group.GET("/stream", h.StreamMessageEvents)
	group.GET("/ws", h.StreamMessageSocket)
}

func writeSSEData(writer *bufio.Writer, flusher http.Flusher, payload string) error {
	if _, err := writer.WriteString(fmt.Sprintf("data: %s\n\n", payload)); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func writeSSEJSON(writer *bufio.Writer, flusher http.Flusher, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return writeSSEData(writer, flusher, string(data))
}

func parseSinceParam(raw string) (time.Time, bool, error) {
	t, ok := parseTimeParam(raw)
	if !ok && strings.TrimSpace(raw) != "" {
		return time.Time{}, false, fmt.Errorf("invalid since parameter")
	}
	return t, ok, nil
}

func parseBeforeParam(s string) (time.Time, bool) {
	return parseTimeParam(s)
}

// parseTimeParam accepts RFC3339 or epoch milliseconds.
func parseTimeParam(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC(), true
		}
	}
	if epochMillis, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return time.UnixMilli(epochMillis).UTC(), true
	}
	return time.Time{}, false
}

func reverseMessages(m []messagepkg.Message) {
	for i, j := 0, len(m)-1; i < j; i, j = i+1, j-1 {
		m[i], m[j] = m[j], m[i]
	}
}

// ListMessages returns a page of history in chronological order. ?before= pages backwards.
func (h *MessageHandler) ListMessages(c echo.Context) error {
	conversationID, err := h.requireConversation(c)
	if err != nil {
		return err
	}
	limit := int32(30)
	if n := queryInt32(c, "limit"); n > 0 && n <= 100 {
		limit = n
	}
	var before *time.Time
	if t, ok := parseBeforeParam(c.QueryParam("before")); ok {
		before = &t
	}
	items, err := h.messages.ListByConversation(c.Request().Context(), conversationID, before, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	reverseMessages(items)
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// SendMessage sends operator text to the conversation's contact.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	conversationID, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	log := h.logger.With(slog.String("conversation_id", conversationID))
	if subject, err := auth.SubjectFromContext(c); err == nil {
		log = log.With(slog.String("operator", subject))
	}
	msg, err := h.sender.SendText(c.Request().Context(), conversationID, req.Text)
	if err != nil {
		log.Warn("operator send failed", slog.Any("error", err))
		switch {
		case errors.Is(err, outbound.ErrEmptyText):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, conversation.ErrConversationNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
		case errors.Is(err, outbound.ErrSendFailed):
			return c.JSON(http.StatusBadGateway, map[string]any{"message": err.Error(), "item": msg})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	log.Info("operator message sent", slog.String("message_id", msg.ID))
	return c.JSON(http.StatusCreated, msg)
}

// StreamMessageEvents streams conversation-scoped message events as SSE.
// ?since= replays recent history newer than the given time before going live.
func (h *MessageHandler) StreamMessageEvents(c echo.Context) error {
	conversationID, err := h.requireConversation(c)
	if err != nil {
		return err
	}
	if h.events == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "message events not configured")
	}
	since, hasSince, err := parseSinceParam(c.QueryParam("since"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming not supported")
	}
	_, stream, cancel := h.events.Subscribe(conversationID, 128)
	defer cancel()

	var backlog []messagepkg.Message
	if hasSince {
		backlog, err = h.messages.ListByConversation(c.Request().Context(), conversationID, nil, 100)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		reverseMessages(backlog)
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().WriteHeader(http.StatusOK)
	flusher.Flush()
	writer := bufio.NewWriter(c.Response().Writer)

	sent := map[string]struct{}{}
	writeCreated := func(message messagepkg.Message) error {
		if id := strings.TrimSpace(message.ID); id != "" {
			if _, exists := sent[id]; exists {
				return nil
			}
			sent[id] = struct{}{}
		}
		return writeSSEJSON(writer, flusher, map[string]any{
			"type":            string(messageevent.TypeMessageCreated),
			"conversation_id": conversationID,
			"message":         message,
		})
	}
	for _, message := range backlog {
		if !message.CreatedAt.After(since) {
			continue
		}
		if err := writeCreated(message); err != nil {
			return nil
		}
	}

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case <-heartbeat.C:
			if err := writeSSEJSON(writer, flusher, map[string]any{"type": "ping"}); err != nil {
				return nil
			}
		case event, ok := <-stream:
			if !ok {
				return nil
			}
			if len(event.Data) == 0 {
				continue
			}
			switch event.Type {
			case messageevent.TypeMessageCreated:
				var message messagepkg.Message
				if err := json.Unmarshal(event.Data, &message); err != nil {
					h.logger.Warn("decode message event failed", slog.Any("error", err))
					continue
				}
				err = writeCreated(message)
			case messageevent.TypeMessageStatus:
				err = writeSSEJSON(writer, flusher, map[string]any{
					"type":            string(event.Type),
					"conversation_id": conversationID,
					"status":          event.Data,
				})
			default:
				continue
			}
			if err != nil {
				return nil
			}
		}
	}
}

func (h *MessageHandler) requireConversation(c echo.Context) (string, error) {
	id, err := requireParam(c, "id")
	if err != nil {
		return "", err
	}
	conv, err := h.conversations.Get(c.Request().Context(), id)
	if err != nil {
		return "", conversationError(err)
	}
	return conv.ID, nil
}
