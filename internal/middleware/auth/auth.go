package authmw

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/festiva/festiva/internal/apperr"
	"github.com/festiva/festiva/internal/policy"
	"github.com/festiva/festiva/internal/tokens"
)

// Echo context keys populated by RequireAuth.
const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
	CtxEmail    = "email"
	CtxRole     = "role"
)

type BearerAuth struct {
	AccessSecret []byte
}

func NewBearerAuth(secret []byte) *BearerAuth {
	return &BearerAuth{AccessSecret: secret}
}

// RequireAuth admits only requests with a valid Bearer access token. A
// missing or malformed Authorization header is a credential absence (401);
// a header that is present but does not verify is a forbidden token (403).
func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return fmt.Errorf("%w: authorization header required", apperr.ErrMissingCredential)
		}
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return fmt.Errorf("%w: bearer token required", apperr.ErrMissingCredential)
		}

		claims, err := tokens.ParseAccess(token, m.AccessSecret)
		if err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrInvalidToken, err)
		}
		userID, err := claims.UserID()
		if err != nil {
			return fmt.Errorf("%w: malformed subject", apperr.ErrInvalidToken)
		}

		c.Set(CtxUserID, userID)
		c.Set(CtxUsername, claims.Username)
		c.Set(CtxEmail, claims.Email)
		c.Set(CtxRole, claims.Role)

		return next(c)
	}
}

// Require layers an operation check on top of RequireAuth; the role comes
// from the verified access claims.
func (m *BearerAuth) Require(op policy.Operation) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return m.RequireAuth(func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(string)
			if !policy.Allows(op, policy.Role(role)) {
				return fmt.Errorf("%w: role %q cannot %s", apperr.ErrInsufficientRole, role, op)
			}
			return next(c)
		})
	}
}

// UserID returns the authenticated user's id set by RequireAuth.
func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get(CtxUserID).(uint)
	return id, ok
}
