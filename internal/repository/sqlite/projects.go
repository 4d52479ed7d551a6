package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/copydesk/internal/domain"
)

type projectRow struct {
	ID           uuid.UUID            `db:"id"`
	UserID       uuid.UUID            `db:"user_id"`
	Name         string               `db:"name"`
	Tags         jsonColumn[[]string] `db:"tags"`
	SessionCount int                  `db:"session_count"`
	CreatedAt    time.Time            `db:"created_at"`
	UpdatedAt    time.Time            `db:"updated_at"`
}

func (r projectRow) toDomain() domain.Project {
	tags := r.Tags.V
	if tags == nil {
		tags = []string{}
	}
	return domain.Project{
		ID:           r.ID,
		UserID:       r.UserID,
		Name:         r.Name,
		Tags:         tags,
		SessionCount: r.SessionCount,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func tagsColumn(tags []string) jsonColumn[[]string] {
	if tags == nil {
		tags = []string{}
	}
	return jsonColumn[[]string]{V: tags}
}

const projectColumns = `
	p.id, p.user_id, p.name, p.tags,
	(SELECT COUNT(*) FROM chat_sessions cs WHERE cs.project_id = p.id) AS session_count,
	p.created_at, p.updated_at`

func (s *Store) ListProjects(ctx context.Context, userID uuid.UUID) ([]domain.Project, error) {
	var rows []projectRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT"+projectColumns+
		" FROM projects p WHERE p.user_id = ? ORDER BY p.updated_at DESC", userID); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	out := make([]domain.Project, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *Store) GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var row projectRow
	if err := s.db.GetContext(ctx, &row, "SELECT"+projectColumns+" FROM projects p WHERE p.id = ?", id); err != nil {
		return nil, notFound(err, domain.ErrProjectNotFound)
	}
	p := row.toDomain()
	return &p, nil
}

func (s *Store) CreateProject(ctx context.Context, p *domain.Project) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, user_id, name, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Name, tagsColumn(p.Tags), p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *Store) UpdateProject(ctx context.Context, p *domain.Project) error {
	res, err := s.db.ExecContext(ctx, "UPDATE projects SET name = ?, tags = ?, updated_at = ? WHERE id = ?",
		p.Name, tagsColumn(p.Tags), p.UpdatedAt.UTC(), p.ID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return affected(res, domain.ErrProjectNotFound)
}

func (s *Store) DeleteProject(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return affected(res, domain.ErrProjectNotFound)
}
