// Package aigateway triggers the downstream AI processor for conversations that mention the bot.
package aigateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/bbdeals/wacrm/internal/config"
)

// ErrNotConfigured is returned when no gateway URL is set.
var ErrNotConfigured = errors.New("ai gateway url not configured")

// TriggerRequest is the body posted to the AI processor.
type TriggerRequest struct {
	ChatID  string `json:"chatId"`
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// Client posts trigger requests, throttled by a token bucket.
type Client struct {
	url     string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a gateway client. A non-positive rate disables throttling.
func NewClient(log *slog.Logger, cfg config.AIGatewayConfig) *Client {
	if log == nil {
		log = slog.Default()
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		url:     strings.TrimSpace(cfg.URL),
		token:   strings.TrimSpace(cfg.Token),
		http:    &http.Client{Timeout: cfg.Timeout()},
		limiter: rate.NewLimiter(limit, burst),
		logger:  log.With(slog.String("client", "aigateway")),
	}
}

// Enabled reports whether a gateway URL is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.url != ""
}

// Trigger sends one request. It waits for the limiter, so ctx bounds the total time.
func (c *Client) Trigger(ctx context.Context, req TriggerRequest) error {
	if !c.Enabled() {
		return ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("trigger request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("trigger failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	c.logger.Debug("ai trigger accepted", slog.String("chat_id", req.ChatID), slog.Int("status", resp.StatusCode))
	return nil
}
