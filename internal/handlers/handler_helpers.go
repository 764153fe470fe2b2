package handlers

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// pageParams reads limit and offset query parameters. Invalid values fall back to zero
// so the service applies its own defaults.
func pageParams(c echo.Context) (int32, int32) {
	return queryInt32(c, "limit"), queryInt32(c, "offset")
}

func queryInt32(c echo.Context, name string) int32 {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || n < 0 {
		return 0
	}
	return int32(n)
}

func requireParam(c echo.Context, name string) (string, error) {
	value := strings.TrimSpace(c.Param(name))
	if value == "" {
		return "", echo.NewHTTPError(400, name+" is required")
	}
	return value, nil
}
