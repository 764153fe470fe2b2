// Package config loads and exposes application configuration (TOML).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath      = "config.toml"
	DefaultHTTPAddr        = ":8080"
	DefaultJWTExpiresIn    = "24h"
	DefaultPGHost          = "127.0.0.1"
	DefaultPGPort          = 5432
	DefaultPGUser          = "postgres"
	DefaultPGDatabase      = "wacrm"
	DefaultPGSSLMode       = "disable"
	DefaultSignatureHeader = "X-Webhook-Signature"
	DefaultMentionMarker   = "@bb"
	DefaultDedupWindow     = "30s"
	DefaultArchiveCron     = "@daily"
	DefaultArchiveAfter    = "720h"
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log         LogConfig         `toml:"log"`
	Server      ServerConfig      `toml:"server"`
	Auth        AuthConfig        `toml:"auth"`
	Postgres    PostgresConfig    `toml:"postgres"`
	Webhook     WebhookConfig     `toml:"webhook"`
	AIGateway   AIGatewayConfig   `toml:"ai_gateway"`
	WhatsApp    WhatsAppConfig    `toml:"whatsapp"`
	Maintenance MaintenanceConfig `toml:"maintenance"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP server listen address.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// AuthConfig holds the admin API JWT secret and token expiry (e.g. 24h).
type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// WebhookConfig controls inbound provider callbacks.
// An empty Secret disables signature checking.
type WebhookConfig struct {
	Secret          string `toml:"secret"`
	SignatureHeader string `toml:"signature_header"`
	MentionMarker   string `toml:"mention_marker"`
	DedupWindow     string `toml:"dedup_window"`
}

// AIGatewayConfig points at the downstream AI processing endpoint.
type AIGatewayConfig struct {
	URL            string  `toml:"url"`
	Token          string  `toml:"token"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RatePerSecond  float64 `toml:"rate_per_second"`
	Burst          int     `toml:"burst"`
}

// WhatsAppConfig holds the messaging provider send endpoint and bearer token.
type WhatsAppConfig struct {
	SendURL        string `toml:"send_url"`
	Token          string `toml:"token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// MaintenanceConfig schedules the inactive conversation archiver. Empty ArchiveCron disables it.
type MaintenanceConfig struct {
	ArchiveCron  string `toml:"archive_cron"`
	ArchiveAfter string `toml:"archive_after"`
}

// Window returns the parsed dedup window, falling back to the default on bad input.
func (c WebhookConfig) Window() time.Duration {
	return parseDurationOr(c.DedupWindow, 30*time.Second)
}

// Timeout returns the AI gateway request timeout.
func (c AIGatewayConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Timeout returns the provider send timeout.
func (c WhatsAppConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// After returns how long a conversation may stay idle before it is archived.
func (c MaintenanceConfig) After() time.Duration {
	return parseDurationOr(c.ArchiveAfter, 720*time.Hour)
}

// ExpiresIn returns the parsed JWT lifetime.
func (c AuthConfig) ExpiresIn() time.Duration {
	return parseDurationOr(c.JWTExpiresIn, 24*time.Hour)
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

// Load reads and parses the TOML config file at path and applies default values for missing fields.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpiresIn,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Webhook: WebhookConfig{
			SignatureHeader: DefaultSignatureHeader,
			MentionMarker:   DefaultMentionMarker,
			DedupWindow:     DefaultDedupWindow,
		},
		AIGateway: AIGatewayConfig{
			TimeoutSeconds: 10,
			RatePerSecond:  5,
			Burst:          10,
		},
		WhatsApp: WhatsAppConfig{
			TimeoutSeconds: 15,
		},
		Maintenance: MaintenanceConfig{
			ArchiveCron:  DefaultArchiveCron,
			ArchiveAfter: DefaultArchiveAfter,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}

	if strings.TrimSpace(cfg.Webhook.SignatureHeader) == "" {
		cfg.Webhook.SignatureHeader = DefaultSignatureHeader
	}
	if strings.TrimSpace(cfg.Webhook.MentionMarker) == "" {
		cfg.Webhook.MentionMarker = DefaultMentionMarker
	}

	return cfg, nil
}
