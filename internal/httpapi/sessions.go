package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/set-night/copydesk/internal/chatflow"
	"github.com/set-night/copydesk/internal/config"
	"github.com/set-night/copydesk/internal/document"
	"github.com/set-night/copydesk/internal/domain"
	"github.com/set-night/copydesk/internal/service"
)

type createSessionRequest struct {
	ToolID    uuid.UUID  `json:"toolId"`
	ProjectID *uuid.UUID `json:"projectId"`
}

type submitRequest struct {
	Text   string     `json:"text"`
	FileID *uuid.UUID `json:"fileId"`
}

// CreateSession activates a tool and returns the session after its greeting.
// POST /v1/sessions
func (h *Handler) CreateSession(c echo.Context) error {
	var req createSessionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.ToolID == uuid.Nil {
		return fmt.Errorf("%w: toolId is required", domain.ErrInvalidInput)
	}

	s, err := h.sessions.Activate(c.Request().Context(), currentUser(c).ID, req.ToolID, req.ProjectID)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, s.Snapshot())
}

// GET /v1/sessions/:id
func (h *Handler) GetSession(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	s, err := h.sessions.Get(currentUser(c).ID, id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, s.Snapshot())
}

// SubmitMessage answers the current question or asks for a revision.
// Accepts JSON {text, fileId} or multipart with text and file fields.
// POST /v1/sessions/:id/messages
func (h *Handler) SubmitMessage(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	user := currentUser(c)
	ctx := c.Request().Context()

	var (
		text string
		att  *chatflow.Attachment
	)
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		text = c.FormValue("text")
		att, err = h.formAttachment(c)
	} else {
		var req submitRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		text = req.Text
		if req.FileID != nil {
			att, err = h.storedAttachment(ctx, user.ID, *req.FileID)
		}
	}
	if err != nil {
		return err
	}

	s, err := h.sessions.Submit(ctx, user.ID, id, text, att)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, s.Snapshot())
}

// formAttachment reads the optional multipart file field. Its text is extracted by the session.
func (h *Handler) formAttachment(c echo.Context) (*chatflow.Attachment, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	name := filepath.Base(fh.Filename)
	mimeType, err := document.Validate(name, fh.Size, h.cfg.MaxFileSize)
	if err != nil {
		return nil, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open form file: %w", err)
	}
	defer f.Close()

	data, err := service.ReadAll(f, h.cfg.MaxFileSize)
	if err != nil {
		return nil, err
	}
	return &chatflow.Attachment{Name: name, MimeType: mimeType, Data: data}, nil
}

// storedAttachment reuses the extracted text of a previously uploaded file.
func (h *Handler) storedAttachment(ctx context.Context, userID, fileID uuid.UUID) (*chatflow.Attachment, error) {
	name, text, size, err := h.files.Attachment(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}
	return &chatflow.Attachment{Name: name, Text: text, Size: size}, nil
}

// POST /v1/sessions/:id/retry
func (h *Handler) RetrySession(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	s, err := h.sessions.Retry(c.Request().Context(), currentUser(c).ID, id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, s.Snapshot())
}

// EndSession tears the session down, saving its transcript when it has one.
// DELETE /v1/sessions/:id
func (h *Handler) EndSession(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	saved, err := h.sessions.Teardown(c.Request().Context(), currentUser(c).ID, id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, map[string]bool{"saved": saved})
}

type snapshotEvent struct {
	Kind    string        `json:"kind"`
	Session chatflow.View `json:"session"`
}

// SessionEvents streams session events over a websocket, starting with a snapshot.
// GET /v1/sessions/:id/ws
func (h *Handler) SessionEvents(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	s, err := h.sessions.Get(currentUser(c).ID, id)
	if err != nil {
		return err
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.WarnContext(c.Request().Context(), "websocket upgrade failed", "error", err)
		return nil
	}

	events, cancel := s.Subscribe()
	done := make(chan struct{})
	go readPump(ws, done)
	writePump(c.Request().Context(), ws, s.Snapshot(), events, done)
	cancel()
	return nil
}

// readPump discards client frames and closes done when the peer goes away.
func readPump(ws *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	ws.SetReadLimit(512)
	ws.SetReadDeadline(time.Now().Add(config.WSPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(config.WSPongWait))
	})
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(ctx context.Context, ws *websocket.Conn, first chatflow.View, events <-chan chatflow.Event, done <-chan struct{}) {
	ticker := time.NewTicker(config.WSPingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	ws.SetWriteDeadline(time.Now().Add(config.WSWriteWait))
	if err := ws.WriteJSON(snapshotEvent{Kind: "snapshot", Session: first}); err != nil {
		return
	}

	for {
		select {
		case ev, ok := <-events:
			ws.SetWriteDeadline(time.Now().Add(config.WSWriteWait))
			if !ok {
				ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			if err := ws.WriteJSON(ev); err != nil {
				slog.DebugContext(ctx, "websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(config.WSWriteWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}
}
