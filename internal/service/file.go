package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/copydesk/internal/document"
	"github.com/set-night/copydesk/internal/domain"
	"github.com/set-night/copydesk/internal/repository"
)

// FileService keeps uploaded knowledge files on local disk with their extracted text in the store.
type FileService struct {
	store   repository.FileStore
	reader  *document.Reader
	dir     string
	maxSize int64
}

func NewFileService(store repository.FileStore, reader *document.Reader, dir string, maxSize int64) *FileService {
	return &FileService{store: store, reader: reader, dir: dir, maxSize: maxSize}
}

// Upload validates, stores and extracts a file. Unsupported formats are kept with empty text.
func (s *FileService) Upload(ctx context.Context, userID uuid.UUID, toolID *uuid.UUID, filename string, r io.Reader) (*domain.KnowledgeFile, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	mimeType, err := document.Validate(filename, 0, s.maxSize)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", domain.ErrFileTooLarge, s.maxSize)
	}

	content, err := s.reader.Extract(ctx, filename, mimeType, data)
	if err != nil {
		slog.WarnContext(ctx, "upload stored without text", "file", filename, "error", err)
		content = ""
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	id := uuid.New()
	path := filepath.Join(s.dir, id.String()+strings.ToLower(filepath.Ext(filename)))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}

	f := &domain.KnowledgeFile{
		ID:         id,
		UserID:     userID,
		ToolID:     toolID,
		Filename:   filename,
		StoredPath: path,
		Size:       int64(len(data)),
		MimeType:   mimeType,
		Content:    content,
		CreatedAt:  time.Now(),
	}
	if err := s.store.CreateFile(ctx, f); err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			slog.ErrorContext(ctx, "remove orphaned upload", "path", path, "error", rmErr)
		}
		return nil, fmt.Errorf("create file: %w", err)
	}
	return f, nil
}

// Get returns a file owned by userID whose bytes are still on disk.
func (s *FileService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.KnowledgeFile, error) {
	f, err := s.store.GetFile(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.UserID != userID {
		return nil, domain.ErrFileNotFound
	}
	if _, err := os.Stat(f.StoredPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: missing on disk", domain.ErrFileNotFound)
		}
		return nil, fmt.Errorf("stat upload: %w", err)
	}
	return f, nil
}

// Attachment loads a stored file as session input, reusing its extracted text.
func (s *FileService) Attachment(ctx context.Context, userID, id uuid.UUID) (name, text string, size int64, err error) {
	f, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", "", 0, err
	}
	return f.Filename, f.Content, f.Size, nil
}

func (s *FileService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	f, err := s.store.GetFile(ctx, id)
	if err != nil {
		return err
	}
	if f.UserID != userID {
		return domain.ErrFileNotFound
	}
	if err := s.store.DeleteFile(ctx, id); err != nil {
		return err
	}
	if err := os.Remove(f.StoredPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.ErrorContext(ctx, "remove upload", "path", f.StoredPath, "error", err)
	}
	return nil
}

// ReadAll is used by callers that stream an attachment straight into a session.
func ReadAll(r io.Reader, limit int64) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	if n > limit {
		return nil, fmt.Errorf("%w: limit is %d bytes", domain.ErrFileTooLarge, limit)
	}
	return buf.Bytes(), nil
}
