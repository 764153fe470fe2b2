package whatsapp

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

	"github.com/bbdeals/wacrm/internal/config"
)

// ErrSendNotConfigured is returned by SendText when no send URL is configured.
var ErrSendNotConfigured = errors.New("whatsapp send endpoint not configured")

// SendResult is the provider's answer to a send call.
type SendResult struct {
	ProviderMessageID string
}

// Client calls the messaging provider's send endpoint with bearer auth.
type Client struct {
	sendURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a provider client from config.
func NewClient(log *slog.Logger, cfg config.WhatsAppConfig) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		sendURL: strings.TrimSpace(cfg.SendURL),
		token:   strings.TrimSpace(cfg.Token),
		http:    &http.Client{Timeout: cfg.Timeout()},
		logger:  log.With(slog.String("client", "whatsapp")),
	}
}

type sendRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// SendText posts {to, text}. The provider message id is read from key.id, id or message_id when present.
func (c *Client) SendText(ctx context.Context, to, text string) (SendResult, error) {
	if c.sendURL == "" {
		return SendResult{}, ErrSendNotConfigured
	}
	body, err := json.Marshal(sendRequest{To: PhoneDigits(to), Text: text})
	if err != nil {
		return SendResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sendURL, bytes.NewReader(body))
	if err != nil {
		return SendResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return SendResult{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return SendResult{}, fmt.Errorf("read send response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return SendResult{}, fmt.Errorf("send failed: status %d: %s", resp.StatusCode, truncate(string(payload), 256))
	}

	var decoded struct {
		Key       Key    `json:"key"`
		ID        string `json:"id"`
		MessageID string `json:"message_id"`
	}
	if len(bytes.TrimSpace(payload)) > 0 {
		if err := json.Unmarshal(payload, &decoded); err != nil {
			c.logger.Warn("decode send response failed", slog.Any("error", err))
		}
	}
	id := decoded.Key.ID
	if id == "" {
		id = decoded.ID
	}
	if id == "" {
		id = decoded.MessageID
	}
	return SendResult{ProviderMessageID: strings.TrimSpace(id)}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
