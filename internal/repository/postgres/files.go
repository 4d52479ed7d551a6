package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/set-night/copydesk/internal/domain"
)

type fileRow struct {
	ID         uuid.UUID          `db:"id"`
	UserID     uuid.UUID          `db:"user_id"`
	ToolID     pgtype.UUID        `db:"tool_id"`
	Filename   string             `db:"filename"`
	StoredPath string             `db:"stored_path"`
	Size       int64              `db:"size"`
	MimeType   string             `db:"mime_type"`
	Content    string             `db:"content"`
	CreatedAt  pgtype.Timestamptz `db:"created_at"`
}

func (s *Store) CreateFile(ctx context.Context, f *domain.KnowledgeFile) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO knowledge_files (id, user_id, tool_id, filename, stored_path, size, mime_type, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		f.ID, f.UserID, ptrToPgUUID(f.ToolID), f.Filename, f.StoredPath, f.Size, f.MimeType, f.Content,
		timeToPgTimestamptz(f.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

func (s *Store) GetFile(ctx context.Context, id uuid.UUID) (*domain.KnowledgeFile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, tool_id, filename, stored_path, size, mime_type, content, created_at
		FROM knowledge_files WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	r, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[fileRow])
	if err != nil {
		return nil, notFound(err, domain.ErrFileNotFound)
	}
	return &domain.KnowledgeFile{
		ID:         r.ID,
		UserID:     r.UserID,
		ToolID:     pgUUIDToPtr(r.ToolID),
		Filename:   r.Filename,
		StoredPath: r.StoredPath,
		Size:       r.Size,
		MimeType:   r.MimeType,
		Content:    r.Content,
		CreatedAt:  pgTimestamptzToTime(r.CreatedAt),
	}, nil
}

func (s *Store) DeleteFile(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM knowledge_files WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrFileNotFound
	}
	return nil
}
