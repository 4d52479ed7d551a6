package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/set-night/copydesk/internal/domain"
)

type toolRow struct {
	ID                 uuid.UUID                      `db:"id"`
	Title              string                         `db:"title"`
	Description        string                         `db:"description"`
	CategoryID         uuid.UUID                      `db:"category_id"`
	CategoryName       string                         `db:"category_name"`
	Active             bool                           `db:"active"`
	Featured           bool                           `db:"featured"`
	PrimaryModel       string                         `db:"primary_model"`
	FallbackModels     jsonColumn[[]domain.ModelName] `db:"fallback_models"`
	PromptInstructions string                         `db:"prompt_instructions"`
	UsageCount         int                            `db:"usage_count"`
	CreatedAt          time.Time                      `db:"created_at"`
	UpdatedAt          time.Time                      `db:"updated_at"`
}

type questionRow struct {
	ID          uuid.UUID            `db:"id"`
	ToolID      uuid.UUID            `db:"tool_id"`
	Label       string               `db:"label"`
	Kind        string               `db:"kind"`
	Placeholder string               `db:"placeholder"`
	Required    bool                 `db:"required"`
	SortOrder   int                  `db:"sort_order"`
	Options     jsonColumn[[]string] `db:"options"`
}

type categoryRow struct {
	ID           uuid.UUID `db:"id"`
	Name         string    `db:"name"`
	DisplayOrder int       `db:"display_order"`
	Active       bool      `db:"active"`
	ToolCount    int       `db:"tool_count"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

const toolColumns = `
	t.id, t.title, t.description, t.category_id, c.name AS category_name,
	t.active, t.featured, t.primary_model, t.fallback_models, t.prompt_instructions,
	(SELECT COUNT(*) FROM chat_sessions cs WHERE cs.tool_id = t.id) AS usage_count,
	t.created_at, t.updated_at`

const questionColumns = "id, tool_id, label, kind, placeholder, required, sort_order, options"

func (r toolRow) toDomain() domain.Tool {
	fallbacks := r.FallbackModels.V
	if fallbacks == nil {
		fallbacks = []domain.ModelName{}
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
		UsageCount:         r.UsageCount,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func (r questionRow) toDomain() domain.Question {
	return domain.Question{
		ID:          r.ID,
		ToolID:      r.ToolID,
		Label:       r.Label,
		Kind:        domain.InputKind(r.Kind),
		Placeholder: r.Placeholder,
		Required:    r.Required,
		Order:       r.SortOrder,
		Options:     r.Options.V,
	}
}

func (r categoryRow) toDomain() domain.Category {
	return domain.Category{
		ID:           r.ID,
		Name:         r.Name,
		DisplayOrder: r.DisplayOrder,
		Active:       r.Active,
		ToolCount:    r.ToolCount,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (s *Store) ListTools(ctx context.Context, f domain.ToolFilter) ([]domain.Tool, error) {
	var w where
	if !f.IncludeInactive {
		w.add("t.active = 1")
	}
	if f.CategoryID != nil {
		w.add("t.category_id = ?", *f.CategoryID)
	}
	if f.CategoryName != "" {
		w.add("c.name = ?", f.CategoryName)
	}
	if f.FeaturedOnly {
		w.add("t.featured = 1")
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		w.add("(t.title LIKE ? OR t.description LIKE ?)", like, like)
	}

	var rows []toolRow
	query := "SELECT" + toolColumns + " FROM tools t JOIN categories c ON c.id = t.category_id" +
		w.String() + " ORDER BY t.featured DESC, t.created_at DESC"
	if err := s.db.SelectContext(ctx, &rows, query, w.args...); err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}

	tools := make([]domain.Tool, len(rows))
	ids := make([]uuid.UUID, len(rows))
	index := make(map[uuid.UUID]int, len(rows))
	for i, r := range rows {
		tools[i] = r.toDomain()
		ids[i] = r.ID
		index[r.ID] = i
	}
	if len(ids) == 0 {
		return tools, nil
	}

	query, args, err := sqlx.In("SELECT "+questionColumns+
		" FROM tool_questions WHERE tool_id IN (?) ORDER BY tool_id, sort_order, position", ids)
	if err != nil {
		return nil, fmt.Errorf("build questions query: %w", err)
	}
	var qrows []questionRow
	if err := s.db.SelectContext(ctx, &qrows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	for _, q := range qrows {
		i := index[q.ToolID]
		tools[i].Questions = append(tools[i].Questions, q.toDomain())
	}
	return tools, nil
}

func (s *Store) GetTool(ctx context.Context, id uuid.UUID) (*domain.Tool, error) {
	var row toolRow
	err := s.db.GetContext(ctx, &row, "SELECT"+toolColumns+
		" FROM tools t JOIN categories c ON c.id = t.category_id WHERE t.id = ?", id)
	if err != nil {
		return nil, notFound(err, domain.ErrToolNotFound)
	}
	tool := row.toDomain()

	var qrows []questionRow
	if err := s.db.SelectContext(ctx, &qrows, "SELECT "+questionColumns+
		" FROM tool_questions WHERE tool_id = ? ORDER BY sort_order, position", id); err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	for _, q := range qrows {
		tool.Questions = append(tool.Questions, q.toDomain())
	}
	return &tool, nil
}

func insertQuestions(ctx context.Context, tx *sqlx.Tx, toolID uuid.UUID, qs []domain.Question) error {
	for i := range qs {
		q := &qs[i]
		if q.ID == uuid.Nil {
			q.ID = uuid.New()
		}
		q.ToolID = toolID
		options := q.Options
		if options == nil {
			options = []string{}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tool_questions (id, tool_id, label, kind, placeholder, required, sort_order, position, options)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			q.ID, toolID, q.Label, string(q.Kind), q.Placeholder, q.Required, q.Order, i, jsonColumn[[]string]{V: options})
		if err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
	}
	return nil
}

func fallbacksColumn(models []domain.ModelName) jsonColumn[[]domain.ModelName] {
	if models == nil {
		models = []domain.ModelName{}
	}
	return jsonColumn[[]domain.ModelName]{V: models}
}

func (s *Store) CreateTool(ctx context.Context, t *domain.Tool) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tools (id, title, description, category_id, active, featured, primary_model,
				fallback_models, prompt_instructions, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Title, t.Description, t.CategoryID, t.Active, t.Featured, string(t.PrimaryModel),
			fallbacksColumn(t.FallbackModels), t.PromptInstructions, t.CreatedAt.UTC(), t.UpdatedAt.UTC())
		if err != nil {
			return fmt.Errorf("insert tool: %w", err)
		}
		return insertQuestions(ctx, tx, t.ID, t.Questions)
	})
}

func (s *Store) UpdateTool(ctx context.Context, t *domain.Tool, replaceQuestions bool) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE tools SET title = ?, description = ?, category_id = ?, active = ?, featured = ?,
				primary_model = ?, fallback_models = ?, prompt_instructions = ?, updated_at = ?
			WHERE id = ?`,
			t.Title, t.Description, t.CategoryID, t.Active, t.Featured, string(t.PrimaryModel),
			fallbacksColumn(t.FallbackModels), t.PromptInstructions, t.UpdatedAt.UTC(), t.ID)
		if err != nil {
			return fmt.Errorf("update tool: %w", err)
		}
		if err := affected(res, domain.ErrToolNotFound); err != nil {
			return err
		}
		if !replaceQuestions {
			return nil
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM tool_questions WHERE tool_id = ?", t.ID); err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		return insertQuestions(ctx, tx, t.ID, t.Questions)
	})
}

func (s *Store) DeleteTool(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tools WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete tool: %w", err)
	}
	return affected(res, domain.ErrToolNotFound)
}

const categoryColumns = `
	c.id, c.name, c.display_order, c.active,
	(SELECT COUNT(*) FROM tools t WHERE t.category_id = c.id AND t.active = 1) AS tool_count,
	c.created_at, c.updated_at`

func (s *Store) ListCategories(ctx context.Context, includeInactive bool) ([]domain.Category, error) {
	query := "SELECT" + categoryColumns + " FROM categories c"
	if !includeInactive {
		query += " WHERE c.active = 1"
	}
	query += " ORDER BY c.display_order, c.name"

	var rows []categoryRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]domain.Category, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *Store) getCategoryWhere(ctx context.Context, cond string, arg any) (*domain.Category, error) {
	var row categoryRow
	if err := s.db.GetContext(ctx, &row, "SELECT"+categoryColumns+" FROM categories c WHERE "+cond, arg); err != nil {
		return nil, notFound(err, domain.ErrCategoryNotFound)
	}
	c := row.toDomain()
	return &c, nil
}

func (s *Store) GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return s.getCategoryWhere(ctx, "c.id = ?", id)
}

func (s *Store) GetCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	return s.getCategoryWhere(ctx, "c.name = ?", name)
}

func (s *Store) CreateCategory(ctx context.Context, c *domain.Category) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, display_order, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.DisplayOrder, c.Active, c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	if isUniqueViolation(err) {
		return domain.ErrCategoryExists
	}
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (s *Store) UpdateCategory(ctx context.Context, c *domain.Category) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE categories SET name = ?, display_order = ?, active = ?, updated_at = ? WHERE id = ?",
		c.Name, c.DisplayOrder, c.Active, c.UpdatedAt.UTC(), c.ID)
	if isUniqueViolation(err) {
		return domain.ErrCategoryExists
	}
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return affected(res, domain.ErrCategoryNotFound)
}

func (s *Store) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return affected(res, domain.ErrCategoryNotFound)
}

func (s *Store) ReorderCategories(ctx context.Context, ids []uuid.UUID) error {
	now := time.Now().UTC()
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		for i, id := range ids {
			if _, err := tx.ExecContext(ctx,
				"UPDATE categories SET display_order = ?, updated_at = ? WHERE id = ?", i+1, now, id); err != nil {
				return fmt.Errorf("reorder categories: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) MaxCategoryOrder(ctx context.Context) (int, error) {
	var max int
	if err := s.db.GetContext(ctx, &max, "SELECT COALESCE(MAX(display_order), 0) FROM categories"); err != nil {
		return 0, fmt.Errorf("max category order: %w", err)
	}
	return max, nil
}
