// Package auth issues and verifies the HS256 tokens that guard the admin API.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const contextKey = "user"

// ErrMissingSubject is returned when a token carries no subject.
var ErrMissingSubject = errors.New("token subject missing")

// GenerateToken signs a token for subject valid for ttl.
func GenerateToken(subject, secret string, ttl time.Duration) (string, time.Time, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", time.Time{}, ErrMissingSubject
	}
	if strings.TrimSpace(secret) == "" {
		return "", time.Time{}, fmt.Errorf("jwt secret not configured")
	}
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("token ttl must be positive")
	}
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// JWTMiddleware validates bearer tokens (header, or ?token= for websockets) on every route not matched by skipper.
func JWTMiddleware(secret string, skipper middleware.Skipper) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		Skipper:       skipper,
		SigningKey:    []byte(secret),
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		ContextKey:    contextKey,
		TokenLookup:   "header:Authorization:Bearer ,query:token",
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return &jwt.RegisteredClaims{}
		},
		ErrorHandler: func(_ echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing token").SetInternal(err)
		},
	})
}

// SubjectFromContext returns the subject of the validated token.
func SubjectFromContext(c echo.Context) (string, error) {
	token, ok := c.Get(contextKey).(*jwt.Token)
	if !ok || token == nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	subject, err := token.Claims.GetSubject()
	if err != nil || strings.TrimSpace(subject) == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, ErrMissingSubject.Error())
	}
	return subject, nil
}
