package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type projectRequest struct {
	Name *string  `json:"name"`
	Tags []string `json:"tags"`
}

// GET /v1/projects
func (h *Handler) ListProjects(c echo.Context) error {
	projects, err := h.projects.List(c.Request().Context(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, projects)
}

// GET /v1/projects/:id
func (h *Handler) GetProject(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.projects.Get(c.Request().Context(), currentUser(c).ID, id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, p)
}

// POST /v1/projects
func (h *Handler) CreateProject(c echo.Context) error {
	var req projectRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	var name string
	if req.Name != nil {
		name = *req.Name
	}
	p, err := h.projects.Create(c.Request().Context(), currentUser(c).ID, name, req.Tags)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, p)
}

// PUT /v1/projects/:id
func (h *Handler) UpdateProject(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req projectRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := h.projects.Update(c.Request().Context(), currentUser(c).ID, id, req.Name, req.Tags)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, p)
}

// DELETE /v1/projects/:id
func (h *Handler) DeleteProject(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.projects.Delete(c.Request().Context(), currentUser(c).ID, id); err != nil {
		return err
	}
	return ok(c, http.StatusOK, nil)
}
