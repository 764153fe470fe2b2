package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestPingHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		path   string
		db     Pinger
		want   int
	}{
		{name: "ping", method: http.MethodGet, path: "/ping", want: http.StatusOK},
		{name: "health without db", method: http.MethodHead, path: "/health", want: http.StatusOK},
		{name: "health db ok", method: http.MethodHead, path: "/health", db: pingerFunc(func(context.Context) error { return nil }), want: http.StatusOK},
		{name: "health db down", method: http.MethodHead, path: "/health", db: pingerFunc(func(context.Context) error { return errors.New("refused") }), want: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			NewPingHandler(discardLogger(), tt.db).Register(e)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
