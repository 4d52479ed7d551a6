package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/set-night/copydesk/internal/domain"
)

type projectRow struct {
	ID           uuid.UUID          `db:"id"`
	UserID       uuid.UUID          `db:"user_id"`
	Name         string             `db:"name"`
	Tags         []string           `db:"tags"`
	SessionCount int64              `db:"session_count"`
	CreatedAt    pgtype.Timestamptz `db:"created_at"`
	UpdatedAt    pgtype.Timestamptz `db:"updated_at"`
}

func rowToProject(r projectRow) domain.Project {
	return domain.Project{
		ID:           r.ID,
		UserID:       r.UserID,
		Name:         r.Name,
		Tags:         stringsOrEmpty(r.Tags),
		SessionCount: int(r.SessionCount),
		CreatedAt:    pgTimestamptzToTime(r.CreatedAt),
		UpdatedAt:    pgTimestamptzToTime(r.UpdatedAt),
	}
}

const projectColumns = `
	p.id, p.user_id, p.name, p.tags,
	(SELECT COUNT(*) FROM chat_sessions cs WHERE cs.project_id = p.id) AS session_count,
	p.created_at, p.updated_at`

func (s *Store) ListProjects(ctx context.Context, userID uuid.UUID) ([]domain.Project, error) {
	rows, err := s.pool.Query(ctx, "SELECT"+projectColumns+
		" FROM projects p WHERE p.user_id = $1 ORDER BY p.updated_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	prs, err := pgx.CollectRows(rows, pgx.RowToStructByName[projectRow])
	if err != nil {
		return nil, fmt.Errorf("scan projects: %w", err)
	}
	out := make([]domain.Project, len(prs))
	for i, r := range prs {
		out[i] = rowToProject(r)
	}
	return out, nil
}

func (s *Store) GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	rows, err := s.pool.Query(ctx, "SELECT"+projectColumns+" FROM projects p WHERE p.id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	r, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[projectRow])
	if err != nil {
		return nil, notFound(err, domain.ErrProjectNotFound)
	}
	p := rowToProject(r)
	return &p, nil
}

func (s *Store) CreateProject(ctx context.Context, p *domain.Project) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO projects (id, user_id, name, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.UserID, p.Name, stringsOrEmpty(p.Tags), timeToPgTimestamptz(p.CreatedAt), timeToPgTimestamptz(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *Store) UpdateProject(ctx context.Context, p *domain.Project) error {
	tag, err := s.pool.Exec(ctx, "UPDATE projects SET name = $2, tags = $3, updated_at = $4 WHERE id = $1",
		p.ID, p.Name, stringsOrEmpty(p.Tags), timeToPgTimestamptz(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM projects WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}
