package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bbdeals/wacrm/internal/contacts"
)

// ContactService is the admin view of the contact store.
type ContactService interface {
	List(ctx context.Context, req contacts.ListRequest) ([]contacts.Contact, error)
	GetByID(ctx context.Context, contactID string) (contacts.Contact, error)
	Update(ctx context.Context, contactID string, req contacts.UpdateRequest) (contacts.Contact, error)
}

// ContactsHandler serves the admin contact routes.
type ContactsHandler struct {
	service ContactService
	logger  *slog.Logger
}

func NewContactsHandler(log *slog.Logger, service ContactService) *ContactsHandler {
	return &ContactsHandler{
		service: service,
		logger:  log.With(slog.String("handler", "contacts")),
	}
}

func (h *ContactsHandler) Register(e *echo.Echo) {
	group := e.Group("/contacts")
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.PATCH("/:id", h.Update)
}

// List returns contacts filtered by ?q= on phone or name.
func (h *ContactsHandler) List(c echo.Context) error {
	limit, offset := pageParams(c)
	items, err := h.service.List(c.Request().Context(), contacts.ListRequest{
		Query:  c.QueryParam("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

func (h *ContactsHandler) Get(c echo.Context) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	item, err := h.service.GetByID(c.Request().Context(), id)
	if err != nil {
		return contactError(err)
	}
	return c.JSON(http.StatusOK, item)
}

// Update patches display name and active flag.
func (h *ContactsHandler) Update(c echo.Context) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		DisplayName *string `json:"display_name"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.DisplayName == nil && req.IsActive == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "nothing to update")
	}
	item, err := h.service.Update(c.Request().Context(), id, contacts.UpdateRequest{
		DisplayName: req.DisplayName,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return contactError(err)
	}
	return c.JSON(http.StatusOK, item)
}

func contactError(err error) error {
	if errors.Is(err, contacts.ErrContactNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "contact not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
