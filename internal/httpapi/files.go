package httpapi

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/set-night/copydesk/internal/config"
	"github.com/set-night/copydesk/internal/document"
	"github.com/set-night/copydesk/internal/domain"
)

type uploadResponse struct {
	*domain.KnowledgeFile
	Preview string `json:"contentPreview"`
}

// UploadFile stores a knowledge file and returns it with a preview of its text.
// POST /v1/files/upload
func (h *Handler) UploadFile(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fmt.Errorf("%w: file is required", domain.ErrInvalidInput)
	}
	if fh.Size > h.cfg.MaxFileSize {
		return fmt.Errorf("%w: limit is %d bytes", domain.ErrFileTooLarge, h.cfg.MaxFileSize)
	}

	var toolID *uuid.UUID
	if v := c.FormValue("toolId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid toolId")
		}
		toolID = &id
	}

	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open form file: %w", err)
	}
	defer src.Close()

	f, err := h.files.Upload(c.Request().Context(), currentUser(c).ID, toolID, fh.Filename, src)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, uploadResponse{
		KnowledgeFile: f,
		Preview:       document.Preview(f.Content, config.UploadPreviewLen),
	})
}

// GET /v1/files/:id
func (h *Handler) GetFile(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	f, err := h.files.Get(c.Request().Context(), currentUser(c).ID, id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, uploadResponse{
		KnowledgeFile: f,
		Preview:       document.Preview(f.Content, config.UploadPreviewLen),
	})
}

// GET /v1/files/:id/download
func (h *Handler) DownloadFile(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	f, err := h.files.Get(c.Request().Context(), currentUser(c).ID, id)
	if err != nil {
		return err
	}
	return c.Attachment(f.StoredPath, f.Filename)
}

// DELETE /v1/files/:id
func (h *Handler) DeleteFile(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.files.Delete(c.Request().Context(), currentUser(c).ID, id); err != nil {
		return err
	}
	return ok(c, http.StatusOK, nil)
}
