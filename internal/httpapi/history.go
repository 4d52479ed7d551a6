package httpapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/set-night/copydesk/internal/service"
)

// ListSavedSessions returns the caller's saved transcripts, newest first.
// GET /v1/chat/sessions?projectId=
func (h *Handler) ListSavedSessions(c echo.Context) error {
	var projectID *uuid.UUID
	if v := c.QueryParam("projectId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid projectId")
		}
		projectID = &id
	}
	sessions, err := h.history.List(c.Request().Context(), currentUser(c).ID, projectID)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, sessions)
}

// GET /v1/chat/sessions/:id
func (h *Handler) GetSavedSession(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	s, err := h.history.Get(c.Request().Context(), currentUser(c).ID, id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, s)
}

// POST /v1/chat/sessions
func (h *Handler) CreateSavedSession(c echo.Context) error {
	var in service.SessionInput
	if err := bind(c, &in); err != nil {
		return err
	}
	s, err := h.history.Create(c.Request().Context(), currentUser(c).ID, in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, s)
}

// PUT /v1/chat/sessions/:id
func (h *Handler) UpdateSavedSession(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var in service.SessionInput
	if err := bind(c, &in); err != nil {
		return err
	}
	s, err := h.history.Update(c.Request().Context(), currentUser(c).ID, id, in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, s)
}

// DELETE /v1/chat/sessions/:id
func (h *Handler) DeleteSavedSession(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.history.Delete(c.Request().Context(), currentUser(c).ID, id); err != nil {
		return err
	}
	return ok(c, http.StatusOK, nil)
}
