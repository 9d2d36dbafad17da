package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/festiva/festiva/internal/handlers"
	authmw "github.com/festiva/festiva/internal/middleware/auth"
	"github.com/festiva/festiva/internal/policy"
)

type Deps struct {
	DB            *gorm.DB
	Auth          *authmw.BearerAuth
	AuthHandler   *handlers.AuthHandler
	EventHandler  *handlers.EventHandler
	OrderHandler  *handlers.OrderHandler
	SearchHandler *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error {
		if sqlDB, err := d.DB.DB(); err != nil || sqlDB.Ping() != nil {
			return c.NoContent(503)
		}
		return c.NoContent(200)
	})

	auth := e.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)

	events := e.Group("/events")
	events.GET("", d.EventHandler.List)
	events.GET("/search", d.SearchHandler.Search)
	events.GET("/:id", d.EventHandler.Get)
	events.POST("", d.EventHandler.Create, d.Auth.Require(policy.OpEventCreate))
	events.PUT("/:id", d.EventHandler.Update, d.Auth.Require(policy.OpEventUpdate))
	events.DELETE("/:id", d.EventHandler.Delete, d.Auth.Require(policy.OpEventDelete))

	e.POST("/orders", d.OrderHandler.Place, d.Auth.Require(policy.OpOrderPlace))
	e.GET("/orders", d.OrderHandler.List, d.Auth.RequireAuth)
}
