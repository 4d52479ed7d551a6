package httpapi

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/set-night/copydesk/internal/domain"
)

// ListTools returns active tools, featured first.
// GET /v1/tools?category=&featured=&search=
func (h *Handler) ListTools(c echo.Context) error {
	var f domain.ToolFilter
	if cat := c.QueryParam("category"); cat != "" {
		if id, err := uuid.Parse(cat); err == nil {
			f.CategoryID = &id
		} else {
			f.CategoryName = cat
		}
	}
	if v := c.QueryParam("featured"); v != "" {
		f.FeaturedOnly, _ = strconv.ParseBool(v)
	}
	f.Search = c.QueryParam("search")

	tools, err := h.catalog.ListTools(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, tools)
}

// GET /v1/tools/:id
func (h *Handler) GetTool(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	tool, err := h.catalog.GetActiveTool(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, tool)
}

// GET /v1/categories
func (h *Handler) ListCategories(c echo.Context) error {
	cats, err := h.catalog.ListCategories(c.Request().Context(), false)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, cats)
}

// GET /v1/categories/:id
func (h *Handler) GetCategory(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	cat, err := h.catalog.GetCategory(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if !cat.Active {
		return domain.ErrCategoryNotFound
	}
	return ok(c, http.StatusOK, cat)
}
