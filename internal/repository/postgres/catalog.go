package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/set-night/copydesk/internal/domain"
)

type toolRow struct {
	ID                 uuid.UUID          `db:"id"`
	Title              string             `db:"title"`
	Description        string             `db:"description"`
	CategoryID         uuid.UUID          `db:"category_id"`
	CategoryName       string             `db:"category_name"`
	Active             bool               `db:"active"`
	Featured           bool               `db:"featured"`
	PrimaryModel       string             `db:"primary_model"`
	FallbackModels     []string           `db:"fallback_models"`
	PromptInstructions string             `db:"prompt_instructions"`
	UsageCount         int64              `db:"usage_count"`
	CreatedAt          pgtype.Timestamptz `db:"created_at"`
	UpdatedAt          pgtype.Timestamptz `db:"updated_at"`
}

type questionRow struct {
	ID          uuid.UUID `db:"id"`
	ToolID      uuid.UUID `db:"tool_id"`
	Label       string    `db:"label"`
	Kind        string    `db:"kind"`
	Placeholder string    `db:"placeholder"`
	Required    bool      `db:"required"`
	SortOrder   int32     `db:"sort_order"`
	Options     []string  `db:"options"`
}

type categoryRow struct {
	ID           uuid.UUID          `db:"id"`
	Name         string             `db:"name"`
	DisplayOrder int32              `db:"display_order"`
	Active       bool               `db:"active"`
	ToolCount    int64              `db:"tool_count"`
	CreatedAt    pgtype.Timestamptz `db:"created_at"`
	UpdatedAt    pgtype.Timestamptz `db:"updated_at"`
}

const toolColumns = `
	t.id, t.title, t.description, t.category_id, c.name AS category_name,
	t.active, t.featured, t.primary_model, t.fallback_models, t.prompt_instructions,
	(SELECT COUNT(*) FROM chat_sessions cs WHERE cs.tool_id = t.id) AS usage_count,
	t.created_at, t.updated_at`

func rowToTool(r toolRow) domain.Tool {
	fallbacks := make([]domain.ModelName, len(r.FallbackModels))
	for i, m := range r.FallbackModels {
		fallbacks[i] = domain.ModelName(m)
	}
	return domain.Tool{
		ID:                 r.ID,
		Title:              r.Title,
		Description:        r.Description,
		CategoryID:         r.CategoryID,
		CategoryName:       r.CategoryName,
		Active:             r.Active,
		Featured:           r.Featured,
		PrimaryModel:       domain.ModelName(r.PrimaryModel),
		FallbackModels:     fallbacks,
		PromptInstructions: r.PromptInstructions,
		UsageCount:         int(r.UsageCount),
		CreatedAt:          pgTimestamptzToTime(r.CreatedAt),
		UpdatedAt:          pgTimestamptzToTime(r.UpdatedAt),
	}
}

func rowToQuestion(r questionRow) domain.Question {
	return domain.Question{
		ID:          r.ID,
		ToolID:      r.ToolID,
		Label:       r.Label,
		Kind:        domain.InputKind(r.Kind),
		Placeholder: r.Placeholder,
		Required:    r.Required,
		Order:       int(r.SortOrder),
		Options:     r.Options,
	}
}

func rowToCategory(r categoryRow) domain.Category {
	return domain.Category{
		ID:           r.ID,
		Name:         r.Name,
		DisplayOrder: int(r.DisplayOrder),
		Active:       r.Active,
		ToolCount:    int(r.ToolCount),
		CreatedAt:    pgTimestamptzToTime(r.CreatedAt),
		UpdatedAt:    pgTimestamptzToTime(r.UpdatedAt),
	}
}

func (s *Store) ListTools(ctx context.Context, f domain.ToolFilter) ([]domain.Tool, error) {
	var w where
	if !f.IncludeInactive {
		w.addRaw("t.active")
	}
	if f.CategoryID != nil {
		w.add("t.category_id = ?", *f.CategoryID)
	}
	if f.CategoryName != "" {
		w.add("c.name = ?", f.CategoryName)
	}
	if f.FeaturedOnly {
		w.addRaw("t.featured")
	}
	if f.Search != "" {
		w.add("(t.title ILIKE ? OR t.description ILIKE ?)", "%"+f.Search+"%")
	}

	query := "SELECT" + toolColumns + " FROM tools t JOIN categories c ON c.id = t.category_id" +
		w.String() + " ORDER BY t.featured DESC, t.created_at DESC"

	rows, err := s.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	toolRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[toolRow])
	if err != nil {
		return nil, fmt.Errorf("scan tools: %w", err)
	}

	tools := make([]domain.Tool, len(toolRows))
	ids := make([]string, len(toolRows))
	index := make(map[uuid.UUID]int, len(toolRows))
	for i, r := range toolRows {
		tools[i] = rowToTool(r)
		ids[i] = r.ID.String()
		index[r.ID] = i
	}
	if len(ids) == 0 {
		return tools, nil
	}

	qrows, err := s.pool.Query(ctx, `
		SELECT id, tool_id, label, kind, placeholder, required, sort_order, options
		FROM tool_questions WHERE tool_id = ANY($1::uuid[])
		ORDER BY tool_id, sort_order, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	questions, err := pgx.CollectRows(qrows, pgx.RowToStructByName[questionRow])
	if err != nil {
		return nil, fmt.Errorf("scan questions: %w", err)
	}
	for _, q := range questions {
		i := index[q.ToolID]
		tools[i].Questions = append(tools[i].Questions, rowToQuestion(q))
	}
	return tools, nil
}

func (s *Store) GetTool(ctx context.Context, id uuid.UUID) (*domain.Tool, error) {
	rows, err := s.pool.Query(ctx, "SELECT"+toolColumns+
		" FROM tools t JOIN categories c ON c.id = t.category_id WHERE t.id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("get tool: %w", err)
	}
	r, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[toolRow])
	if err != nil {
		return nil, notFound(err, domain.ErrToolNotFound)
	}
	tool := rowToTool(r)

	qrows, err := s.pool.Query(ctx, `
		SELECT id, tool_id, label, kind, placeholder, required, sort_order, options
		FROM tool_questions WHERE tool_id = $1 ORDER BY sort_order, position`, id)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	questions, err := pgx.CollectRows(qrows, pgx.RowToStructByName[questionRow])
	if err != nil {
		return nil, fmt.Errorf("scan questions: %w", err)
	}
	for _, q := range questions {
		tool.Questions = append(tool.Questions, rowToQuestion(q))
	}
	return &tool, nil
}

func fallbackStrings(models []domain.ModelName) []string {
	out := make([]string, len(models))
	for i, m := range models {
		out[i] = string(m)
	}
	return out
}

func insertQuestions(ctx context.Context, tx pgx.Tx, toolID uuid.UUID, qs []domain.Question) error {
	for i := range qs {
		q := &qs[i]
		if q.ID == uuid.Nil {
			q.ID = uuid.New()
		}
		q.ToolID = toolID
		_, err := tx.Exec(ctx, `
			INSERT INTO tool_questions (id, tool_id, label, kind, placeholder, required, sort_order, position, options)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			q.ID, toolID, q.Label, string(q.Kind), q.Placeholder, q.Required, q.Order, i, stringsOrEmpty(q.Options))
		if err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
	}
	return nil
}

func (s *Store) CreateTool(ctx context.Context, t *domain.Tool) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO tools (id, title, description, category_id, active, featured, primary_model,
				fallback_models, prompt_instructions, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			t.ID, t.Title, t.Description, t.CategoryID, t.Active, t.Featured, string(t.PrimaryModel),
			fallbackStrings(t.FallbackModels), t.PromptInstructions,
			timeToPgTimestamptz(t.CreatedAt), timeToPgTimestamptz(t.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert tool: %w", err)
		}
		return insertQuestions(ctx, tx, t.ID, t.Questions)
	})
}

func (s *Store) UpdateTool(ctx context.Context, t *domain.Tool, replaceQuestions bool) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE tools SET title = $2, description = $3, category_id = $4, active = $5, featured = $6,
				primary_model = $7, fallback_models = $8, prompt_instructions = $9, updated_at = $10
			WHERE id = $1`,
			t.ID, t.Title, t.Description, t.CategoryID, t.Active, t.Featured, string(t.PrimaryModel),
			fallbackStrings(t.FallbackModels), t.PromptInstructions, timeToPgTimestamptz(t.UpdatedAt))
		if err != nil {
			return fmt.Errorf("update tool: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrToolNotFound
		}
		if !replaceQuestions {
			return nil
		}
		if _, err := tx.Exec(ctx, "DELETE FROM tool_questions WHERE tool_id = $1", t.ID); err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		return insertQuestions(ctx, tx, t.ID, t.Questions)
	})
}

func (s *Store) DeleteTool(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM tools WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete tool: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrToolNotFound
	}
	return nil
}

const categoryColumns = `
	c.id, c.name, c.display_order, c.active,
	(SELECT COUNT(*) FROM tools t WHERE t.category_id = c.id AND t.active) AS tool_count,
	c.created_at, c.updated_at`

func (s *Store) ListCategories(ctx context.Context, includeInactive bool) ([]domain.Category, error) {
	query := "SELECT" + categoryColumns + " FROM categories c"
	if !includeInactive {
		query += " WHERE c.active"
	}
	query += " ORDER BY c.display_order, c.name"

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	crs, err := pgx.CollectRows(rows, pgx.RowToStructByName[categoryRow])
	if err != nil {
		return nil, fmt.Errorf("scan categories: %w", err)
	}
	out := make([]domain.Category, len(crs))
	for i, r := range crs {
		out[i] = rowToCategory(r)
	}
	return out, nil
}

func (s *Store) getCategoryWhere(ctx context.Context, cond string, arg any) (*domain.Category, error) {
	rows, err := s.pool.Query(ctx, "SELECT"+categoryColumns+" FROM categories c WHERE "+cond, arg)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	r, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[categoryRow])
	if err != nil {
		return nil, notFound(err, domain.ErrCategoryNotFound)
	}
	c := rowToCategory(r)
	return &c, nil
}

func (s *Store) GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return s.getCategoryWhere(ctx, "c.id = $1", id)
}

func (s *Store) GetCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	return s.getCategoryWhere(ctx, "c.name = $1", name)
}

func (s *Store) CreateCategory(ctx context.Context, c *domain.Category) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO categories (id, name, display_order, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Name, c.DisplayOrder, c.Active, timeToPgTimestamptz(c.CreatedAt), timeToPgTimestamptz(c.UpdatedAt))
	if isUniqueViolation(err) {
		return domain.ErrCategoryExists
	}
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (s *Store) UpdateCategory(ctx context.Context, c *domain.Category) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE categories SET name = $2, display_order = $3, active = $4, updated_at = $5 WHERE id = $1`,
		c.ID, c.Name, c.DisplayOrder, c.Active, timeToPgTimestamptz(c.UpdatedAt))
	if isUniqueViolation(err) {
		return domain.ErrCategoryExists
	}
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func (s *Store) ReorderCategories(ctx context.Context, ids []uuid.UUID) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i, id := range ids {
			batch.Queue("UPDATE categories SET display_order = $2, updated_at = NOW() WHERE id = $1", id, i+1)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("reorder categories: %w", err)
		}
		return nil
	})
}

func (s *Store) MaxCategoryOrder(ctx context.Context) (int, error) {
	var max int32
	if err := s.pool.QueryRow(ctx, "SELECT COALESCE(MAX(display_order), 0) FROM categories").Scan(&max); err != nil {
		return 0, fmt.Errorf("max category order: %w", err)
	}
	return int(max), nil
}
