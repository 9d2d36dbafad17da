package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/festiva/festiva/internal/apperr"
	"github.com/festiva/festiva/internal/logging"
	"github.com/festiva/festiva/internal/service"
	"github.com/festiva/festiva/internal/tokens"
)

type AuthHandler struct {
	Svc *service.AuthService

	// SecureCookies controls the Secure flag on the refresh cookie.
	SecureCookies bool
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return fmt.Errorf("%w: invalid body", apperr.ErrValidation)
	}

	res, err := h.Svc.Register(ctx, req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success":     true,
		"user":        res.User,
		"accessToken": res.AccessToken,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return fmt.Errorf("%w: invalid body", apperr.ErrValidation)
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}

	c.SetCookie(tokens.RefreshCookie(res.RefreshToken, res.RefreshExp, h.SecureCookies))

	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"accessToken": res.AccessToken,
		"user":        res.User,
	})
}

// Refresh rotates the pair presented in the refresh cookie. An absent cookie
// is a missing credential; a cookie that does not verify is forbidden.
func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	cookie, err := c.Cookie("refreshToken")
	if err != nil || cookie.Value == "" {
		return fmt.Errorf("%w: refresh cookie required", apperr.ErrMissingCredential)
	}

	res, err := h.Svc.Rotate(ctx, cookie.Value)
	if err != nil {
		// only a rejected token loses the cookie; transient failures keep it
		// so the client can retry
		if errors.Is(err, apperr.ErrInvalidToken) {
			c.SetCookie(tokens.DeleteRefreshCookie(h.SecureCookies))
		}
		return err
	}

	c.SetCookie(tokens.RefreshCookie(res.RefreshToken, res.RefreshExp, h.SecureCookies))

	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"accessToken": res.AccessToken,
	})
}

// Logout revokes the stored refresh token and clears the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	cookie, err := c.Cookie("refreshToken")
	if err != nil || cookie.Value == "" {
		return fmt.Errorf("%w: refresh cookie required", apperr.ErrMissingCredential)
	}

	if err := h.Svc.Logout(ctx, cookie.Value); err != nil {
		c.SetCookie(tokens.DeleteRefreshCookie(h.SecureCookies))
		l.Error("logout_failed", "status", 500, "error", err)
		return err
	}

	c.SetCookie(tokens.DeleteRefreshCookie(h.SecureCookies))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
