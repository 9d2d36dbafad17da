package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/festiva/festiva/internal/apperr"
	"github.com/festiva/festiva/internal/logging"
	authmw "github.com/festiva/festiva/internal/middleware/auth"
	"github.com/festiva/festiva/internal/search"
	"github.com/festiva/festiva/internal/service"
)

type OrderHandler struct {
	Svc *service.OrderService
}

type placeOrderRequest struct {
	Items []service.CartLine `json:"items"`
}

func (h *OrderHandler) Place(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order_place")

	userID, ok := authmw.UserID(c)
	if !ok {
		return fmt.Errorf("%w: no authenticated user", apperr.ErrMissingCredential)
	}

	var req placeOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("order_place_error", "status", 400, "error", err)
		return fmt.Errorf("%w: invalid body", apperr.ErrValidation)
	}

	outcome, err := h.Svc.PlaceOrder(ctx, userID, req.Items)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"orderId":     outcome.OrderID,
		"totalAmount": outcome.TotalAmount,
		"notified":    outcome.Notified,
	})
}

func (h *OrderHandler) List(c echo.Context) error {
	userID, ok := authmw.UserID(c)
	if !ok {
		return fmt.Errorf("%w: no authenticated user", apperr.ErrMissingCredential)
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	offset, limit := search.Paginate(page, size)

	orders, err := h.Svc.ListOrders(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}
