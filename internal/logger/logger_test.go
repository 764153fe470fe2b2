package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewJSONWritesStructuredRecord(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "debug", "JSON")

	if !l.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug level to be enabled")
	}
	l.Info("webhook received", slog.String("event", "messages.upsert"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if record["msg"] != "webhook received" || record["event"] != "messages.upsert" {
		t.Fatalf("unexpected record: %#v", record)
	}
}

func TestNewTextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn", "text")
	l.Info("dropped")
	l.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	custom := New(&buf, "info", "text").With("request_id", "12345")

	ctx := WithContext(context.Background(), custom)
	if FromContext(ctx) != custom {
		t.Fatal("expected logger stored in context")
	}
	if FromContext(context.Background()) != L {
		t.Fatal("expected global logger without context value")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.expected {
			t.Errorf("parseLevel(%s) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}
