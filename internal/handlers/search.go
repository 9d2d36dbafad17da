package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/festiva/festiva/internal/apperr"
	"github.com/festiva/festiva/internal/models"
	"github.com/festiva/festiva/internal/search"
)

type Searcher interface {
	Search(ctx context.Context, query string, from, size int) (int64, []models.Event, error)
}

type SearchHandler struct {
	Index Searcher
}

func (h *SearchHandler) Search(c echo.Context) error {
	if h.Index == nil {
		return fmt.Errorf("%w: search backend not configured", apperr.ErrDependency)
	}

	query := c.QueryParam("q")
	if query == "" {
		return fmt.Errorf("%w: q is required", apperr.ErrValidation)
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, limit := search.Paginate(page, size)

	total, events, err := h.Index.Search(c.Request().Context(), query, from, limit)
	if err != nil {
		return fmt.Errorf("%w: search backend: %v", apperr.ErrDependency, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total":  total,
		"events": events,
	})
}
