package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const testSecret = "test-secret-key"

func TestGenerateTokenClaims(t *testing.T) {
	t.Parallel()

	signed, expiresAt, err := GenerateToken("ops@bbdeals", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if drift := time.Until(expiresAt) - time.Hour; drift > 5*time.Second || drift < -5*time.Second {
		t.Fatalf("expected expiry about an hour out, got %s", expiresAt)
	}

	parsed, err := jwt.ParseWithClaims(signed, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return []byte(testSecret), nil
	})
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		t.Fatalf("subject: %v", err)
	}
	if sub != "ops@bbdeals" {
		t.Fatalf("expected subject ops@bbdeals, got %q", sub)
	}
}

func TestGenerateTokenValidation(t *testing.T) {
	t.Parallel()

	if _, _, err := GenerateToken(" ", testSecret, time.Hour); !errors.Is(err, ErrMissingSubject) {
		t.Fatalf("expected ErrMissingSubject, got %v", err)
	}
	if _, _, err := GenerateToken("ops", "", time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
	if _, _, err := GenerateToken("ops", testSecret, 0); err == nil {
		t.Fatalf("expected error for zero lifetime")
	}
}

func newProtectedEcho() *echo.Echo {
	e := echo.New()
	e.Use(JWTMiddleware(testSecret, func(c echo.Context) bool {
		return c.Request().URL.Path == "/ping"
	}))
	e.GET("/me", func(c echo.Context) error {
		sub, err := SubjectFromContext(c)
		if err != nil {
			return err
		}
		return c.String(http.StatusOK, sub)
	})
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	return e
}

func TestJWTMiddleware(t *testing.T) {
	t.Parallel()

	e := newProtectedEcho()
	valid, _, err := GenerateToken("ops", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	wrongKey, _, err := GenerateToken("ops", "other-secret", time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{name: "valid token", path: "/me", header: "Bearer " + valid, status: http.StatusOK},
		{name: "missing token", path: "/me", status: http.StatusUnauthorized},
		{name: "wrong key", path: "/me", header: "Bearer " + wrongKey, status: http.StatusUnauthorized},
		{name: "query token", path: "/me?token=" + valid, status: http.StatusOK},
		{name: "skipped path", path: "/ping", status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rec.Code)
			}
			if tt.status == http.StatusOK && tt.path == "/me" && rec.Body.String() != "ops" {
				t.Fatalf("expected subject ops, got %q", rec.Body.String())
			}
		})
	}
}
