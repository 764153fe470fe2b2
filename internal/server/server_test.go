package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type routes struct{}

func (routes) Register(e *echo.Echo) {
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/ping", ok)
	e.POST("/webhooks/whatsapp", ok)
	e.GET("/contacts", ok)
}

func TestPublicPath(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"/ping":              true,
		"/health":            true,
		"/webhooks/whatsapp": true,
		"/webhooks":          false,
		"/contacts":          false,
	}
	for path, want := range cases {
		if got := PublicPath(path); got != want {
			t.Fatalf("PublicPath(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestServerGuardsAdminRoutes(t *testing.T) {
	t.Parallel()

	srv := NewServer(slog.New(slog.NewTextHandler(io.Discard, nil)), "", "secret", routes{}, nil)

	for path, want := range map[string]int{
		"/ping":     http.StatusOK,
		"/contacts": http.StatusUnauthorized,
	} {
		rec := httptest.NewRecorder()
		srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != want {
			t.Fatalf("GET %s: expected status %d, got %d", path, want, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected unauthenticated webhook to pass, got %d", rec.Code)
	}
}
