package aigateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bbdeals/wacrm/internal/config"
)

func TestTriggerPostsJSONWithBearer(t *testing.T) {
	t.Parallel()

	var got TriggerRequest
	var auth, contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		contentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewClient(nil, config.AIGatewayConfig{URL: srv.URL, Token: "secret"})
	if err := client.Trigger(context.Background(), TriggerRequest{ChatID: "c1", Message: "@bb hi", UserID: "u1"}); err != nil {
		t.Fatalf("trigger failed: %v", err)
	}
	if auth != "Bearer secret" {
		t.Fatalf("expected bearer header, got %q", auth)
	}
	if contentType != "application/json" {
		t.Fatalf("expected json content type, got %q", contentType)
	}
	if want := (TriggerRequest{ChatID: "c1", Message: "@bb hi", UserID: "u1"}); got != want {
		t.Fatalf("expected %#v, got %#v", want, got)
	}
}

func TestTriggerNon2xxIsError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(nil, config.AIGatewayConfig{URL: srv.URL})
	err := client.Trigger(context.Background(), TriggerRequest{ChatID: "c1"})
	if err == nil {
		t.Fatalf("expected error for 503")
	}
	if !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("expected status and body in error, got %q", err.Error())
	}
}

func TestTriggerNotConfigured(t *testing.T) {
	t.Parallel()

	client := NewClient(nil, config.AIGatewayConfig{})
	if client.Enabled() {
		t.Fatalf("expected client without url to be disabled")
	}
	if err := client.Trigger(context.Background(), TriggerRequest{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestTriggerRespectsLimiterAndContext(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(nil, config.AIGatewayConfig{URL: srv.URL, RatePerSecond: 0.001, Burst: 1})
	if err := client.Trigger(context.Background(), TriggerRequest{ChatID: "c1"}); err != nil {
		t.Fatalf("first trigger failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := client.Trigger(ctx, TriggerRequest{ChatID: "c1"})
	if err == nil || !strings.Contains(err.Error(), "rate limit") {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}
}
