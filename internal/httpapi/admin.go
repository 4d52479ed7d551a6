package httpapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/set-night/copydesk/internal/domain"
	"github.com/set-night/copydesk/internal/service"
)

// Categories

func (h *Handler) AdminListCategories(c echo.Context) error {
	cats, err := h.catalog.ListCategories(c.Request().Context(), true)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, cats)
}

type createCategoryRequest struct {
	Name   string `json:"name"`
	Active *bool  `json:"active"`
}

func (h *Handler) AdminCreateCategory(c echo.Context) error {
	var req createCategoryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	cat, err := h.catalog.CreateCategory(c.Request().Context(), req.Name, req.Active)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, cat)
}

func (h *Handler) AdminUpdateCategory(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var in service.CategoryInput
	if err := bind(c, &in); err != nil {
		return err
	}
	cat, err := h.catalog.UpdateCategory(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, cat)
}

func (h *Handler) AdminDeleteCategory(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteCategory(c.Request().Context(), id); err != nil {
		return err
	}
	return ok(c, http.StatusOK, nil)
}

type reorderRequest struct {
	IDs []uuid.UUID `json:"categoryIds"`
}

// PUT /v1/admin/categories/order
func (h *Handler) AdminReorderCategories(c echo.Context) error {
	var req reorderRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.catalog.ReorderCategories(ctx, req.IDs); err != nil {
		return err
	}
	cats, err := h.catalog.ListCategories(ctx, true)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, cats)
}

// Tools

func (h *Handler) AdminListTools(c echo.Context) error {
	tools, err := h.catalog.ListAllTools(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, tools)
}

func (h *Handler) AdminCreateTool(c echo.Context) error {
	var in service.ToolInput
	if err := bind(c, &in); err != nil {
		return err
	}
	tool, err := h.catalog.CreateTool(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, tool)
}

func (h *Handler) AdminUpdateTool(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var in service.ToolInput
	if err := bind(c, &in); err != nil {
		return err
	}
	tool, err := h.catalog.UpdateTool(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, tool)
}

func (h *Handler) AdminDeleteTool(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteTool(c.Request().Context(), id); err != nil {
		return err
	}
	return ok(c, http.StatusOK, nil)
}

// Users

func (h *Handler) AdminListUsers(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, users)
}

type inviteRequest struct {
	Email  string          `json:"email"`
	Name   string          `json:"name"`
	Role   domain.UserRole `json:"role"`
	Active *bool           `json:"active"`
}

func (h *Handler) AdminInviteUser(c echo.Context) error {
	var req inviteRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	u, err := h.users.Invite(c.Request().Context(), req.Email, req.Name, req.Role, req.Active)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, u)
}

func (h *Handler) AdminUpdateUser(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var in service.UserUpdate
	if err := bind(c, &in); err != nil {
		return err
	}
	u, err := h.users.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, u)
}

func (h *Handler) AdminDeleteUser(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.Request().Context(), currentUser(c).ID, id); err != nil {
		return err
	}
	return ok(c, http.StatusOK, nil)
}

// GET /v1/admin/stats
func (h *Handler) AdminStats(c echo.Context) error {
	stats, err := h.stats.Today(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, stats)
}
