package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bbdeals/wacrm/internal/conversation"
)

// ConversationService is the admin view of the conversation store.
type ConversationService interface {
	Get(ctx context.Context, conversationID string) (conversation.Conversation, error)
	List(ctx context.Context, req conversation.ListRequest) ([]conversation.ListItem, error)
	MarkRead(ctx context.Context, conversationID string) (conversation.Conversation, error)
	AssignAssistant(ctx context.Context, conversationID string, req conversation.AssistantRequest) (conversation.Conversation, error)
	Archive(ctx context.Context, conversationID string) (conversation.Conversation, error)
}

// ConversationsHandler serves the admin conversation routes.
type ConversationsHandler struct {
	service ConversationService
	logger  *slog.Logger
}

func NewConversationsHandler(log *slog.Logger, service ConversationService) *ConversationsHandler {
	return &ConversationsHandler{
		service: service,
		logger:  log.With(slog.String("handler", "conversations")),
	}
}

func (h *ConversationsHandler) Register(e *echo.Echo) {
	group := e.Group("/conversations")
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.POST("/:id/read", h.MarkRead)
	group.PUT("/:id/assistant", h.AssignAssistant)
	group.POST("/:id/archive", h.Archive)
}

// List returns conversations, most recently active first. ?status= filters.
func (h *ConversationsHandler) List(c echo.Context) error {
	limit, offset := pageParams(c)
	status := strings.TrimSpace(c.QueryParam("status"))
	if status != "" && status != conversation.StatusActive && status != conversation.StatusArchived {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	items, err := h.service.List(c.Request().Context(), conversation.ListRequest{
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

func (h *ConversationsHandler) Get(c echo.Context) error {
	return h.apply(c, h.service.Get)
}

func (h *ConversationsHandler) MarkRead(c echo.Context) error {
	return h.apply(c, h.service.MarkRead)
}

func (h *ConversationsHandler) Archive(c echo.Context) error {
	return h.apply(c, h.service.Archive)
}

func (h *ConversationsHandler) AssignAssistant(c echo.Context) error {
	var req conversation.AssistantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Enabled && strings.TrimSpace(req.AssistantID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "assistant_id is required when enabling AI")
	}
	return h.apply(c, func(ctx context.Context, id string) (conversation.Conversation, error) {
		return h.service.AssignAssistant(ctx, id, req)
	})
}

func (h *ConversationsHandler) apply(c echo.Context, fn func(ctx context.Context, id string) (conversation.Conversation, error)) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	item, err := fn(c.Request().Context(), id)
	if err != nil {
		return conversationError(err)
	}
	return c.JSON(http.StatusOK, item)
}

func conversationError(err error) error {
	if errors.Is(err, conversation.ErrConversationNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
