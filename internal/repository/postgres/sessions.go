package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/set-night/copydesk/internal/domain"
)

type sessionRow struct {
	ID        uuid.UUID          `db:"id"`
	UserID    uuid.UUID          `db:"user_id"`
	ToolID    uuid.UUID          `db:"tool_id"`
	ToolTitle string             `db:"tool_title"`
	Messages  []domain.Message   `db:"messages"`
	ProjectID pgtype.UUID        `db:"project_id"`
	CreatedAt pgtype.Timestamptz `db:"created_at"`
	UpdatedAt pgtype.Timestamptz `db:"updated_at"`
}

func rowToSession(r sessionRow) domain.ChatSession {
	msgs := r.Messages
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return domain.ChatSession{
		ID:        r.ID,
		UserID:    r.UserID,
		ToolID:    r.ToolID,
		ToolTitle: r.ToolTitle,
		Messages:  msgs,
		ProjectID: pgUUIDToPtr(r.ProjectID),
		CreatedAt: pgTimestamptzToTime(r.CreatedAt),
		UpdatedAt: pgTimestamptzToTime(r.UpdatedAt),
	}
}

const sessionColumns = "id, user_id, tool_id, tool_title, messages, project_id, created_at, updated_at"

func (s *Store) SaveSession(ctx context.Context, cs *domain.ChatSession) error {
	msgs := cs.Messages
	if msgs == nil {
		msgs = []domain.Message{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chat_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			tool_title = EXCLUDED.tool_title,
			messages = EXCLUDED.messages,
			project_id = EXCLUDED.project_id,
			updated_at = EXCLUDED.updated_at`,
		cs.ID, cs.UserID, cs.ToolID, cs.ToolTitle, msgs, ptrToPgUUID(cs.ProjectID),
		timeToPgTimestamptz(cs.CreatedAt), timeToPgTimestamptz(cs.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (*domain.ChatSession, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+sessionColumns+" FROM chat_sessions WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	r, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[sessionRow])
	if err != nil {
		return nil, notFound(err, domain.ErrSessionNotFound)
	}
	cs := rowToSession(r)
	return &cs, nil
}

func (s *Store) ListSessions(ctx context.Context, userID uuid.UUID, projectID *uuid.UUID) ([]domain.ChatSession, error) {
	var w where
	w.add("user_id = ?", userID)
	if projectID != nil {
		w.add("project_id = ?", *projectID)
	}
	rows, err := s.pool.Query(ctx, "SELECT "+sessionColumns+" FROM chat_sessions"+w.String()+
		" ORDER BY created_at DESC", w.args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	srs, err := pgx.CollectRows(rows, pgx.RowToStructByName[sessionRow])
	if err != nil {
		return nil, fmt.Errorf("scan sessions: %w", err)
	}
	out := make([]domain.ChatSession, len(srs))
	for i, r := range srs {
		out[i] = rowToSession(r)
	}
	return out, nil
}

func (s *Store) DeleteSession(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM chat_sessions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}
