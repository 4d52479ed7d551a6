package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/copydesk/internal/domain"
)

type CatalogStore interface {
	ListTools(ctx context.Context, f domain.ToolFilter) ([]domain.Tool, error)
	GetTool(ctx context.Context, id uuid.UUID) (*domain.Tool, error)
	CreateTool(ctx context.Context, t *domain.Tool) error
	// UpdateTool rewrites the tool row; questions are replaced only when replaceQuestions is set.
	UpdateTool(ctx context.Context, t *domain.Tool, replaceQuestions bool) error
	DeleteTool(ctx context.Context, id uuid.UUID) error

	ListCategories(ctx context.Context, includeInactive bool) ([]domain.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*domain.Category, error)
	CreateCategory(ctx context.Context, c *domain.Category) error
	UpdateCategory(ctx context.Context, c *domain.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	// ReorderCategories assigns display order 1..n following ids.
	ReorderCategories(ctx context.Context, ids []uuid.UUID) error
	MaxCategoryOrder(ctx context.Context) (int, error)
}

type SessionStore interface {
	// SaveSession inserts or replaces a transcript keyed by its id.
	SaveSession(ctx context.Context, s *domain.ChatSession) error
	GetSession(ctx context.Context, id uuid.UUID) (*domain.ChatSession, error)
	ListSessions(ctx context.Context, userID uuid.UUID, projectID *uuid.UUID) ([]domain.ChatSession, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
}

type ProjectStore interface {
	ListProjects(ctx context.Context, userID uuid.UUID) ([]domain.Project, error)
	GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	CreateProject(ctx context.Context, p *domain.Project) error
	UpdateProject(ctx context.Context, p *domain.Project) error
	DeleteProject(ctx context.Context, id uuid.UUID) error
}

type UserStore interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, u *domain.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type FileStore interface {
	CreateFile(ctx context.Context, f *domain.KnowledgeFile) error
	GetFile(ctx context.Context, id uuid.UUID) (*domain.KnowledgeFile, error)
	DeleteFile(ctx context.Context, id uuid.UUID) error
}

type UsageStore interface {
	RecordGeneration(ctx context.Context, g *domain.Generation) error
	Stats(ctx context.Context, since time.Time) (*domain.Stats, error)
}

// Store is implemented by every persistence backend.
type Store interface {
	CatalogStore
	SessionStore
	ProjectStore
	UserStore
	FileStore
	UsageStore
	Close() error
}
