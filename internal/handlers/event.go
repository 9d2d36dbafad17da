package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/festiva/festiva/internal/apperr"
	"github.com/festiva/festiva/internal/logging"
	"github.com/festiva/festiva/internal/service"
)

type EventHandler struct {
	Svc *service.EventService
}

func (h *EventHandler) List(c echo.Context) error {
	events, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, events)
}

func (h *EventHandler) Get(c echo.Context) error {
	id, err := eventID(c)
	if err != nil {
		return err
	}
	event, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, event)
}

func (h *EventHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "event_create")

	var in service.EventInput
	if err := c.Bind(&in); err != nil {
		l.Warn("event_create_error", "status", 400, "error", err)
		return fmt.Errorf("%w: invalid body", apperr.ErrValidation)
	}

	event, err := h.Svc.Create(ctx, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, event)
}

func (h *EventHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "event_update")

	id, err := eventID(c)
	if err != nil {
		return err
	}

	var in service.EventInput
	if err := c.Bind(&in); err != nil {
		l.Warn("event_update_error", "status", 400, "error", err)
		return fmt.Errorf("%w: invalid body", apperr.ErrValidation)
	}

	event, err := h.Svc.Update(ctx, id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, event)
}

func (h *EventHandler) Delete(c echo.Context) error {
	id, err := eventID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func eventID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid event id", apperr.ErrValidation)
	}
	return uint(id), nil
}
