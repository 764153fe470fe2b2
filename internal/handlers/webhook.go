package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bbdeals/wacrm/internal/config"
	"github.com/bbdeals/wacrm/internal/webhook"
	"github.com/bbdeals/wacrm/internal/whatsapp"
)

const maxWebhookBody = 1 << 20

// WebhookReconciler applies provider events.
type WebhookReconciler interface {
	Upsert(ctx context.Context, data json.RawMessage) (webhook.UpsertResult, error)
	UpdateStatuses(ctx context.Context, data json.RawMessage) (webhook.StatusResult, error)
}

// WebhookHandler receives provider callbacks on /webhooks/whatsapp.
type WebhookHandler struct {
	reconciler WebhookReconciler
	secret     []byte
	header     string
	logger     *slog.Logger
}

type webhookTestResponse struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	Timestamp    string          `json:"timestamp"`
	ReceivedData json.RawMessage `json:"received_data"`
}

type upsertResponse struct {
	Success bool `json:"success"`
	webhook.UpsertResult
}

type statusResponse struct {
	Success bool `json:"success"`
	webhook.StatusResult
}

// NewWebhookHandler creates the webhook handler. An empty secret accepts unsigned requests.
func NewWebhookHandler(log *slog.Logger, reconciler WebhookReconciler, cfg config.WebhookConfig) *WebhookHandler {
	h := &WebhookHandler{
		reconciler: reconciler,
		secret:     []byte(strings.TrimSpace(cfg.Secret)),
		header:     strings.TrimSpace(cfg.SignatureHeader),
		logger:     log.With(slog.String("handler", "webhook")),
	}
	if h.header == "" {
		h.header = config.DefaultSignatureHeader
	}
	if len(h.secret) == 0 {
		h.logger.Warn("webhook secret not configured, signature validation disabled")
	}
	return h
}

func (h *WebhookHandler) Register(e *echo.Echo) {
	e.POST("/webhooks/whatsapp", h.Receive)
	e.HEAD("/webhooks/whatsapp", h.Verify)
}

// Verify answers the provider's verification request.
func (h *WebhookHandler) Verify(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// Receive validates the signature and dispatches on the event type.
func (h *WebhookHandler) Receive(c echo.Context) error {
	if !h.authorized(c.Request().Header.Get(h.header)) {
		h.logger.Warn("webhook signature rejected", slog.String("remote_ip", c.RealIP()))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
	}
	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("webhook body too large", slog.Int64("limit", tooLarge.Limit))
			return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Payload too large"})
		}
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unable to read body"})
	}
	var envelope whatsapp.Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON"})
	}

	ctx := c.Request().Context()
	switch envelope.Event {
	case whatsapp.EventTest:
		received := envelope.Data
		if len(received) == 0 {
			received = json.RawMessage("null")
		}
		return c.JSON(http.StatusOK, webhookTestResponse{
			Success:      true,
			Message:      "Webhook test received",
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
			ReceivedData: received,
		})
	case whatsapp.EventMessagesUpsert:
		result, err := h.reconciler.Upsert(ctx, envelope.Data)
		if err != nil {
			return h.failure(c, envelope.Event, err)
		}
		return c.JSON(http.StatusOK, upsertResponse{Success: true, UpsertResult: result})
	case whatsapp.EventMessagesUpdate:
		result, err := h.reconciler.UpdateStatuses(ctx, envelope.Data)
		if err != nil {
			return h.failure(c, envelope.Event, err)
		}
		return c.JSON(http.StatusOK, statusResponse{Success: true, StatusResult: result})
	default:
		h.logger.Info("unknown webhook event", slog.String("event", string(envelope.Event)))
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unknown event type"})
	}
}

func (h *WebhookHandler) authorized(signature string) bool {
	if len(h.secret) == 0 {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(signature), h.secret) == 1
}

func (h *WebhookHandler) failure(c echo.Context, event whatsapp.EventType, err error) error {
	if errors.Is(err, webhook.ErrInvalidPayload) {
		h.logger.Warn("webhook payload rejected", slog.String("event", string(event)), slog.Any("error", err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid payload"})
	}
	h.logger.Error("webhook processing failed", slog.String("event", string(event)), slog.Any("error", err))
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
}
