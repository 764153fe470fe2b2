package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Addr != DefaultHTTPAddr {
		t.Fatalf("expected addr %q, got %q", DefaultHTTPAddr, cfg.Server.Addr)
	}
	if cfg.Webhook.SignatureHeader != DefaultSignatureHeader {
		t.Fatalf("expected signature header %q, got %q", DefaultSignatureHeader, cfg.Webhook.SignatureHeader)
	}
	if cfg.Webhook.MentionMarker != "@bb" {
		t.Fatalf("expected mention marker @bb, got %q", cfg.Webhook.MentionMarker)
	}
	if got := cfg.Webhook.Window(); got != 30*time.Second {
		t.Fatalf("expected 30s dedup window, got %s", got)
	}
	if cfg.Webhook.Secret != "" {
		t.Fatalf("expected empty secret, got %q", cfg.Webhook.Secret)
	}
	if cfg.Maintenance.ArchiveCron != "@daily" {
		t.Fatalf("expected @daily archive cron, got %q", cfg.Maintenance.ArchiveCron)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
addr = ":9090"

[webhook]
secret = "s3cret"
mention_marker = "@deals"
dedup_window = "45s"

[ai_gateway]
url = "http://ai.internal/process"
timeout_seconds = 3

[maintenance]
archive_cron = ""
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("expected addr :9090, got %q", cfg.Server.Addr)
	}
	if cfg.Webhook.Secret != "s3cret" {
		t.Fatalf("expected secret s3cret, got %q", cfg.Webhook.Secret)
	}
	if cfg.Webhook.MentionMarker != "@deals" {
		t.Fatalf("expected marker @deals, got %q", cfg.Webhook.MentionMarker)
	}
	if cfg.Webhook.SignatureHeader != DefaultSignatureHeader {
		t.Fatalf("expected default signature header kept, got %q", cfg.Webhook.SignatureHeader)
	}
	if got := cfg.Webhook.Window(); got != 45*time.Second {
		t.Fatalf("expected 45s window, got %s", got)
	}
	if got := cfg.AIGateway.Timeout(); got != 3*time.Second {
		t.Fatalf("expected 3s ai timeout, got %s", got)
	}
	if cfg.Maintenance.ArchiveCron != "" {
		t.Fatalf("expected archiver disabled, got %q", cfg.Maintenance.ArchiveCron)
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server\naddr="), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestDurationFallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"bad window", WebhookConfig{DedupWindow: "soon"}.Window(), 30 * time.Second},
		{"negative window", WebhookConfig{DedupWindow: "-5s"}.Window(), 30 * time.Second},
		{"archive after", MaintenanceConfig{ArchiveAfter: "48h"}.After(), 48 * time.Hour},
		{"jwt default", AuthConfig{}.ExpiresIn(), 24 * time.Hour},
		{"whatsapp timeout default", WhatsAppConfig{}.Timeout(), 15 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, tt.got)
			}
		})
	}
}
