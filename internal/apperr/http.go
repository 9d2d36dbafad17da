package apperr

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/festiva/festiva/internal/logging"
)

type errorBody struct {
	Error string `json:"error"`
}

// HTTPErrorHandler renders every error as {"error": "<code>"}. echo.HTTPError
// values produced by middleware keep their status; their message is replaced
// by the matching enumerated code so raw error text never reaches a client.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, status := Code(err)
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		if s, ok := he.Message.(string); ok && isKnownCode(s) {
			code = s
		} else {
			code = defaultCodeForStatus(status)
		}
	}

	if status >= 500 {
		logging.FromContext(c.Request().Context()).Error("request_error", "status", status, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, errorBody{Error: code})
}

func isKnownCode(s string) bool {
	switch s {
	case "validation_error", "missing_credential", "invalid_credentials",
		"invalid_token", "insufficient_permission", "not_found", "conflict",
		"insufficient_inventory", "missing_contact_info", "dependency_failure",
		"internal_error":
		return true
	}
	return false
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusUnauthorized:
		return "missing_credential"
	case http.StatusForbidden:
		return "insufficient_permission"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	default:
		return "internal_error"
	}
}
