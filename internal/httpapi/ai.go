package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/set-night/copydesk/internal/domain"
)

type generateRequest struct {
	ToolID        uuid.UUID        `json:"toolId"`
	Messages      []domain.Message `json:"messages"`
	KnowledgeBase string           `json:"knowledgeBase"`
	FileIDs       []uuid.UUID      `json:"fileIds"`
}

// Generate runs a single gateway call over a client-held transcript.
// POST /v1/ai/generate
func (h *Handler) Generate(c echo.Context) error {
	var req generateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if len(req.Messages) == 0 {
		return fmt.Errorf("%w: messages are required", domain.ErrInvalidInput)
	}
	for _, m := range req.Messages {
		if m.Role != domain.RoleUser && m.Role != domain.RoleAssistant {
			return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, m.Role)
		}
	}

	ctx := c.Request().Context()
	user := currentUser(c)

	tool, err := h.catalog.GetActiveTool(ctx, req.ToolID)
	if err != nil {
		return err
	}

	docs := []string{}
	if kb := strings.TrimSpace(req.KnowledgeBase); kb != "" {
		docs = append(docs, kb)
	}
	for _, id := range req.FileIDs {
		name, text, _, err := h.files.Attachment(ctx, user.ID, id)
		if err != nil {
			return err
		}
		if text != "" {
			docs = append(docs, fmt.Sprintf("[%s]\n%s", name, text))
		}
	}

	text, err := h.gateway.Generate(ctx, tool, req.Messages, strings.Join(docs, "\n\n"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, map[string]string{"response": text})
}

// ModelsStatus reports which providers have credentials.
// GET /v1/ai/models/status
func (h *Handler) ModelsStatus(c echo.Context) error {
	return ok(c, http.StatusOK, h.gateway.Status())
}
