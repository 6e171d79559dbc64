package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/resto_admin/internal/logging"
	authmw "github.com/Skotchmaster/resto_admin/internal/middleware/auth"
	"github.com/Skotchmaster/resto_admin/internal/service"
	"github.com/Skotchmaster/resto_admin/internal/transport"
	"github.com/Skotchmaster/resto_admin/internal/util"
	"github.com/Skotchmaster/resto_admin/pkg/domain"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_orders")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	f := transport.OrderFilter{
		Status: domain.OrderStatus(c.QueryParam("status")),
		UserID: c.QueryParam("user_id"),
	}
	total, orders, err := h.Svc.ListOrders(ctx, f, offset, limit)
	if err != nil {
		return fail(l, "list_orders_failed", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": orders,
		"meta": util.Meta(page, offset, limit, total),
	})
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	o, err := h.Svc.GetOrder(ctx, c.Param("id"))
	if err != nil {
		return fail(l, "get_order_failed", err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "create_order_failed", err)
	}

	o, err := h.Svc.CreateOrder(ctx, authmw.UserID(c), req)
	if err != nil {
		return fail(l, "create_order_failed", err)
	}

	l.Info("create_order_success", "id", o.ID, "total", o.TotalPrice)
	return c.JSON(http.StatusCreated, o)
}

func (h *OrderHTTP) PatchOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.patch_order")

	var req transport.PatchOrderRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "patch_order_failed", err)
	}

	o, err := h.Svc.PatchOrder(ctx, authmw.UserID(c), req, c.Param("id"))
	if err != nil {
		return fail(l, "patch_order_failed", err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	var req transport.StatusRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "update_status_failed", err)
	}

	o, err := h.Svc.Transition(ctx, authmw.UserID(c), c.Param("id"), req.Status)
	if err != nil {
		return fail(l, "update_status_failed", err)
	}

	l.Info("update_status_success", "id", o.ID, "status", string(o.Status))
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) History(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.history")

	hist, err := h.Svc.History(ctx, c.Param("id"))
	if err != nil {
		return fail(l, "history_failed", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": hist})
}

func (h *OrderHTTP) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.delete_order")

	if err := h.Svc.DeleteOrder(ctx, authmw.UserID(c), c.Param("id")); err != nil {
		return fail(l, "delete_order_failed", err)
	}

	l.Info("delete_order_success", "id", c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

type DashboardHTTP struct {
	Svc *service.DashboardService
}

func (h *DashboardHTTP) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "dashboard.stats")

	stats, err := h.Svc.Stats(ctx)
	if err != nil {
		return fail(l, "stats_failed", err)
	}
	return c.JSON(http.StatusOK, stats)
}
