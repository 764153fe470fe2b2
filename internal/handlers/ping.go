package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bbdeals/wacrm/internal/version"
)

const healthTimeout = 2 * time.Second

// Pinger checks a backing dependency; *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingHandler serves /ping and HEAD /health for liveness.
type PingHandler struct {
	db     Pinger
	logger *slog.Logger
}

// NewPingHandler creates a ping handler. db may be nil, in which case /health only reports liveness.
func NewPingHandler(log *slog.Logger, db Pinger) *PingHandler {
	return &PingHandler{db: db, logger: log.With(slog.String("handler", "ping"))}
}

// Register mounts GET /ping and HEAD /health on the Echo instance.
func (h *PingHandler) Register(e *echo.Echo) {
	e.GET("/ping", h.Ping)
	e.HEAD("/health", h.PingHead)
}

// Ping returns 200 JSON {"status":"ok","version":...}.
func (h *PingHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.GetInfo(),
	})
}

// PingHead returns 200 when the database answers, 503 otherwise.
func (h *PingHandler) PingHead(c echo.Context) error {
	if h.db == nil {
		return c.NoContent(http.StatusOK)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", slog.Any("error", err))
		return c.NoContent(http.StatusServiceUnavailable)
	}
	return c.NoContent(http.StatusOK)
}
