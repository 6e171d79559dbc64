package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/resto_admin/internal/middleware/auth"
	"github.com/Skotchmaster/resto_admin/pkg/domain"
)

type Deps struct {
	AuthHandler      *AuthHTTP
	MenuHandler      *MenuHTTP
	OrderHandler     *OrderHTTP
	DashboardHandler *DashboardHTTP
	Auth             *authmw.Middleware

	// Ready backs /health/ready. Nil means always ready.
	Ready func(ctx context.Context) error
}

// Paths that run without a session cookie and so skip CSRF.
var PublicAuthPaths = []string{
	"/api/v1/auth/login",
	"/api/v1/auth/refresh",
	"/api/v1/auth/password-reset",
	"/api/v1/auth/password-reset/confirm",
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})

	api := e.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.POST("/password-reset", d.AuthHandler.RequestPasswordReset)
	auth.POST("/password-reset/confirm", d.AuthHandler.ConfirmPasswordReset)

	private := auth.Group("", d.Auth.RequireAuth)
	private.GET("/session", d.AuthHandler.Session)
	private.POST("/session/last-login", d.AuthHandler.TouchLastLogin)
	private.GET("/operators/:uid", d.AuthHandler.GetOperator)
	private.POST("/operators", d.AuthHandler.RegisterOperator, d.Auth.RequireRole(domain.RoleSuperAdmin))

	ops := api.Group("", d.Auth.RequireAuth, d.Auth.RequireOperator)

	menu := ops.Group("/menu")
	menu.GET("/items", d.MenuHandler.ListItems)
	menu.POST("/items", d.MenuHandler.CreateItem)
	menu.GET("/items/search", d.MenuHandler.SearchItems)
	menu.GET("/items/:id", d.MenuHandler.GetItem)
	menu.PATCH("/items/:id", d.MenuHandler.PatchItem)
	menu.DELETE("/items/:id", d.MenuHandler.DeleteItem)
	menu.GET("/categories", d.MenuHandler.ListCategories)
	menu.POST("/categories", d.MenuHandler.CreateCategory)
	menu.PATCH("/categories/:id", d.MenuHandler.RenameCategory)
	menu.DELETE("/categories/:id", d.MenuHandler.DeleteCategory)

	orders := ops.Group("/orders")
	orders.GET("", d.OrderHandler.ListOrders)
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.PATCH("/:id", d.OrderHandler.PatchOrder)
	orders.DELETE("/:id", d.OrderHandler.DeleteOrder)
	orders.POST("/:id/status", d.OrderHandler.UpdateStatus)
	orders.GET("/:id/history", d.OrderHandler.History)

	ops.GET("/dashboard/stats", d.DashboardHandler.Stats)
}
