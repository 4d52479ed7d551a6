package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/copydesk/internal/config"
	"github.com/set-night/copydesk/internal/domain"
	"github.com/set-night/copydesk/internal/repository"
)

type CatalogService struct {
	store repository.CatalogStore
	cache *CatalogCache
}

func NewCatalogService(store repository.CatalogStore) *CatalogService {
	return &CatalogService{store: store, cache: NewCatalogCache(config.CatalogCacheDuration)}
}

// QuestionInput describes a question when creating or updating a tool.
type QuestionInput struct {
	Label       string           `json:"label"`
	Type        domain.InputKind `json:"type"`
	Placeholder string           `json:"placeholder"`
	Required    *bool            `json:"required"`
	Order       int              `json:"order"`
	Options     []string         `json:"options"`
}

type ToolInput struct {
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	CategoryID         uuid.UUID          `json:"categoryId"`
	Active             *bool              `json:"active"`
	Featured           *bool              `json:"featured"`
	PrimaryModel       domain.ModelName   `json:"primaryModel"`
	FallbackModels     []domain.ModelName `json:"fallbackModels"`
	PromptInstructions string             `json:"promptInstructions"`
	// Questions nil leaves existing questions untouched on update.
	Questions []QuestionInput `json:"questions"`
}

type CategoryInput struct {
	Name         *string `json:"name"`
	DisplayOrder *int    `json:"displayOrder"`
	Active       *bool   `json:"active"`
}

// ListTools returns active tools, featured first. The unfiltered list is cached.
func (s *CatalogService) ListTools(ctx context.Context, f domain.ToolFilter) ([]domain.Tool, error) {
	f.IncludeInactive = false
	unfiltered := f == (domain.ToolFilter{})
	if unfiltered {
		if cached := s.cache.Get(); cached != nil {
			return cached, nil
		}
	}
	tools, err := s.store.ListTools(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	if unfiltered {
		s.cache.Set(tools)
	}
	return tools, nil
}

// ListAllTools includes inactive tools.
func (s *CatalogService) ListAllTools(ctx context.Context) ([]domain.Tool, error) {
	return s.store.ListTools(ctx, domain.ToolFilter{IncludeInactive: true})
}

// GetActiveTool hides inactive tools behind ErrToolNotFound.
func (s *CatalogService) GetActiveTool(ctx context.Context, id uuid.UUID) (*domain.Tool, error) {
	t, err := s.store.GetTool(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.Active {
		return nil, domain.ErrToolNotFound
	}
	return t, nil
}

func (s *CatalogService) GetTool(ctx context.Context, id uuid.UUID) (*domain.Tool, error) {
	return s.store.GetTool(ctx, id)
}

func buildQuestions(in []QuestionInput) ([]domain.Question, error) {
	qs := make([]domain.Question, 0, len(in))
	for i, q := range in {
		if strings.TrimSpace(q.Label) == "" {
			return nil, fmt.Errorf("%w: question %d has no label", domain.ErrInvalidInput, i+1)
		}
		kind := q.Type
		if kind == "" {
			kind = domain.InputSingleLine
		}
		if !kind.Valid() {
			return nil, fmt.Errorf("%w: question %d has type %q", domain.ErrInvalidInput, i+1, kind)
		}
		order := q.Order
		if order == 0 {
			order = i + 1
		}
		required := true
		if q.Required != nil {
			required = *q.Required
		}
		qs = append(qs, domain.Question{
			ID:          uuid.New(),
			Label:       q.Label,
			Kind:        kind,
			Placeholder: q.Placeholder,
			Required:    required,
			Order:       order,
			Options:     q.Options,
		})
	}
	return qs, nil
}

func validateModels(primary domain.ModelName, fallbacks []domain.ModelName) error {
	if !primary.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidModel, primary)
	}
	for _, m := range fallbacks {
		if !m.Valid() {
			return fmt.Errorf("%w: %q", domain.ErrInvalidModel, m)
		}
	}
	return nil
}

func (s *CatalogService) CreateTool(ctx context.Context, in ToolInput) (*domain.Tool, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.PromptInstructions) == "" {
		return nil, fmt.Errorf("%w: title and prompt instructions are required", domain.ErrInvalidInput)
	}
	if err := validateModels(in.PrimaryModel, in.FallbackModels); err != nil {
		return nil, err
	}
	if _, err := s.store.GetCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	questions, err := buildQuestions(in.Questions)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	t := &domain.Tool{
		ID:                 uuid.New(),
		Title:              strings.TrimSpace(in.Title),
		Description:        strings.TrimSpace(in.Description),
		CategoryID:         in.CategoryID,
		Active:             in.Active == nil || *in.Active,
		Featured:           in.Featured != nil && *in.Featured,
		PrimaryModel:       in.PrimaryModel,
		FallbackModels:     in.FallbackModels,
		PromptInstructions: in.PromptInstructions,
		Questions:          questions,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.store.CreateTool(ctx, t); err != nil {
		return nil, fmt.Errorf("create tool: %w", err)
	}
	s.cache.Invalidate()
	return s.store.GetTool(ctx, t.ID)
}

// UpdateTool applies the non-zero fields of in.
func (s *CatalogService) UpdateTool(ctx context.Context, id uuid.UUID, in ToolInput) (*domain.Tool, error) {
	t, err := s.store.GetTool(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != "" {
		t.Title = strings.TrimSpace(in.Title)
	}
	if in.Description != "" {
		t.Description = strings.TrimSpace(in.Description)
	}
	if in.CategoryID != uuid.Nil && in.CategoryID != t.CategoryID {
		if _, err := s.store.GetCategory(ctx, in.CategoryID); err != nil {
			return nil, err
		}
		t.CategoryID = in.CategoryID
	}
	if in.Active != nil {
		t.Active = *in.Active
	}
	if in.Featured != nil {
		t.Featured = *in.Featured
	}
	if in.PrimaryModel != "" {
		t.PrimaryModel = in.PrimaryModel
	}
	if in.FallbackModels != nil {
		t.FallbackModels = in.FallbackModels
	}
	if in.PromptInstructions != "" {
		t.PromptInstructions = in.PromptInstructions
	}
	if err := validateModels(t.PrimaryModel, t.FallbackModels); err != nil {
		return nil, err
	}

	replace := in.Questions != nil
	if replace {
		if t.Questions, err = buildQuestions(in.Questions); err != nil {
			return nil, err
		}
	}
	t.UpdatedAt = time.Now()
	if err := s.store.UpdateTool(ctx, t, replace); err != nil {
		return nil, fmt.Errorf("update tool: %w", err)
	}
	s.cache.Invalidate()
	return s.store.GetTool(ctx, id)
}

func (s *CatalogService) DeleteTool(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteTool(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate()
	return nil
}

func (s *CatalogService) ListCategories(ctx context.Context, includeInactive bool) ([]domain.Category, error) {
	return s.store.ListCategories(ctx, includeInactive)
}

func (s *CatalogService) GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return s.store.GetCategory(ctx, id)
}

// CreateCategory appends the category after the current last display order.
func (s *CatalogService) CreateCategory(ctx context.Context, name string, active *bool) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", domain.ErrInvalidInput)
	}
	last, err := s.store.MaxCategoryOrder(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	c := &domain.Category{
		ID:           uuid.New(),
		Name:         name,
		DisplayOrder: last + 1,
		Active:       active == nil || *active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, in CategoryInput) (*domain.Category, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: category name is required", domain.ErrInvalidInput)
		}
		c.Name = name
	}
	if in.DisplayOrder != nil {
		if *in.DisplayOrder < 1 {
			return nil, fmt.Errorf("%w: display order must be at least 1", domain.ErrInvalidInput)
		}
		c.DisplayOrder = *in.DisplayOrder
	}
	if in.Active != nil {
		c.Active = *in.Active
	}
	c.UpdatedAt = time.Now()
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	s.cache.Invalidate()
	return c, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate()
	return nil
}

// ReorderCategories sets display order 1..n following ids. Every id must exist.
func (s *CatalogService) ReorderCategories(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: no category ids", domain.ErrInvalidInput)
	}
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return fmt.Errorf("%w: duplicate category %s", domain.ErrInvalidInput, id)
		}
		seen[id] = true
		if _, err := s.store.GetCategory(ctx, id); err != nil {
			if errors.Is(err, domain.ErrCategoryNotFound) {
				return fmt.Errorf("%w: %s", domain.ErrCategoryNotFound, id)
			}
			return err
		}
	}
	return s.store.ReorderCategories(ctx, ids)
}
