package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/copydesk/internal/domain"
)

type fileRow struct {
	ID         uuid.UUID     `db:"id"`
	UserID     uuid.UUID     `db:"user_id"`
	ToolID     uuid.NullUUID `db:"tool_id"`
	Filename   string        `db:"filename"`
	StoredPath string        `db:"stored_path"`
	Size       int64         `db:"size"`
	MimeType   string        `db:"mime_type"`
	Content    string        `db:"content"`
	CreatedAt  time.Time     `db:"created_at"`
}

func (s *Store) CreateFile(ctx context.Context, f *domain.KnowledgeFile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO knowledge_files (id, user_id, tool_id, filename, stored_path, size, mime_type, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.UserID, ptrToNullUUID(f.ToolID), f.Filename, f.StoredPath, f.Size, f.MimeType, f.Content,
		f.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

func (s *Store) GetFile(ctx context.Context, id uuid.UUID) (*domain.KnowledgeFile, error) {
	var r fileRow
	err := s.db.GetContext(ctx, &r, `
		SELECT id, user_id, tool_id, filename, stored_path, size, mime_type, content, created_at
		FROM knowledge_files WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, domain.ErrFileNotFound)
	}
	return &domain.KnowledgeFile{
		ID:         r.ID,
		UserID:     r.UserID,
		ToolID:     nullUUIDToPtr(r.ToolID),
		Filename:   r.Filename,
		StoredPath: r.StoredPath,
		Size:       r.Size,
		MimeType:   r.MimeType,
		Content:    r.Content,
		CreatedAt:  r.CreatedAt,
	}, nil
}

func (s *Store) DeleteFile(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM knowledge_files WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return affected(res, domain.ErrFileNotFound)
}
