package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/copydesk/internal/domain"
)

type sessionRow struct {
	ID        uuid.UUID                    `db:"id"`
	UserID    uuid.UUID                    `db:"user_id"`
	ToolID    uuid.UUID                    `db:"tool_id"`
	ToolTitle string                       `db:"tool_title"`
	Messages  jsonColumn[[]domain.Message] `db:"messages"`
	ProjectID uuid.NullUUID                `db:"project_id"`
	CreatedAt time.Time                    `db:"created_at"`
	UpdatedAt time.Time                    `db:"updated_at"`
}

func (r sessionRow) toDomain() domain.ChatSession {
	msgs := r.Messages.V
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return domain.ChatSession{
		ID:        r.ID,
		UserID:    r.UserID,
		ToolID:    r.ToolID,
		ToolTitle: r.ToolTitle,
		Messages:  msgs,
		ProjectID: nullUUIDToPtr(r.ProjectID),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func nullUUIDToPtr(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

func ptrToNullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

const sessionColumns = "id, user_id, tool_id, tool_title, messages, project_id, created_at, updated_at"

func (s *Store) SaveSession(ctx context.Context, cs *domain.ChatSession) error {
	msgs := cs.Messages
	if msgs == nil {
		msgs = []domain.Message{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			tool_title = excluded.tool_title,
			messages = excluded.messages,
			project_id = excluded.project_id,
			updated_at = excluded.updated_at`,
		cs.ID, cs.UserID, cs.ToolID, cs.ToolTitle, jsonColumn[[]domain.Message]{V: msgs},
		ptrToNullUUID(cs.ProjectID), cs.CreatedAt.UTC(), cs.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (*domain.ChatSession, error) {
	var row sessionRow
	if err := s.db.GetContext(ctx, &row, "SELECT "+sessionColumns+" FROM chat_sessions WHERE id = ?", id); err != nil {
		return nil, notFound(err, domain.ErrSessionNotFound)
	}
	cs := row.toDomain()
	return &cs, nil
}

func (s *Store) ListSessions(ctx context.Context, userID uuid.UUID, projectID *uuid.UUID) ([]domain.ChatSession, error) {
	var w where
	w.add("user_id = ?", userID)
	if projectID != nil {
		w.add("project_id = ?", *projectID)
	}
	var rows []sessionRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT "+sessionColumns+" FROM chat_sessions"+w.String()+
		" ORDER BY created_at DESC", w.args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	out := make([]domain.ChatSession, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *Store) DeleteSession(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM chat_sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return affected(res, domain.ErrSessionNotFound)
}
