package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/resto_admin/internal/logging"
	authmw "github.com/Skotchmaster/resto_admin/internal/middleware/auth"
	"github.com/Skotchmaster/resto_admin/internal/service"
	"github.com/Skotchmaster/resto_admin/internal/transport"
	"github.com/Skotchmaster/resto_admin/internal/util"
)

type MenuHTTP struct {
	Svc *service.CatalogService
}

func (h *MenuHTTP) ListItems(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "menu.list_items")

	items, err := h.Svc.ListMenuItems(ctx, c.QueryParam("category"))
	if err != nil {
		return fail(l, "list_items_failed", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items})
}

func (h *MenuHTTP) GetItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "menu.get_item")

	item, err := h.Svc.GetMenuItem(ctx, c.Param("id"))
	if err != nil {
		return fail(l, "get_item_failed", err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *MenuHTTP) SearchItems(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "menu.search_items")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.SearchMenu(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(l, "search_items_failed", err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": util.Meta(page, offset, limit, total),
	})
}

func (h *MenuHTTP) CreateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "menu.create_item")

	var req transport.CreateMenuItemRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "create_item_failed", err)
	}

	item, err := h.Svc.CreateMenuItem(ctx, authmw.UserID(c), req)
	if err != nil {
		return fail(l, "create_item_failed", err)
	}

	l.Info("create_item_success", "id", item.ID)
	return c.JSON(http.StatusCreated, item)
}

func (h *MenuHTTP) PatchItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "menu.patch_item")

	var req transport.PatchMenuItemRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "patch_item_failed", err)
	}

	item, err := h.Svc.PatchMenuItem(ctx, authmw.UserID(c), req, c.Param("id"))
	if err != nil {
		return fail(l, "patch_item_failed", err)
	}

	l.Info("patch_item_success", "id", item.ID)
	return c.JSON(http.StatusOK, item)
}

func (h *MenuHTTP) DeleteItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "menu.delete_item")

	if err := h.Svc.DeleteMenuItem(ctx, authmw.UserID(c), c.Param("id")); err != nil {
		return fail(l, "delete_item_failed", err)
	}

	l.Info("delete_item_success", "id", c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

func (h *MenuHTTP) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "menu.list_categories")

	cats, err := h.Svc.ListCategories(ctx)
	if err != nil {
		return fail(l, "list_categories_failed", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": cats})
}

func (h *MenuHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "menu.create_category")

	var req transport.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "create_category_failed", err)
	}

	cat, err := h.Svc.CreateCategory(ctx, authmw.UserID(c), req.Name)
	if err != nil {
		return fail(l, "create_category_failed", err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *MenuHTTP) RenameCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "menu.rename_category")

	var req transport.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "rename_category_failed", err)
	}

	cat, err := h.Svc.RenameCategory(ctx, authmw.UserID(c), c.Param("id"), req.Name)
	if err != nil {
		return fail(l, "rename_category_failed", err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *MenuHTTP) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "menu.delete_category")

	if err := h.Svc.DeleteCategory(ctx, authmw.UserID(c), c.Param("id")); err != nil {
		return fail(l, "delete_category_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}
