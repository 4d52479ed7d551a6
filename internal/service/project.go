package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/copydesk/internal/domain"
	"github.com/set-night/copydesk/internal/repository"
)

type ProjectService struct {
	store repository.ProjectStore
}

func NewProjectService(store repository.ProjectStore) *ProjectService {
	return &ProjectService{store: store}
}

func (s *ProjectService) List(ctx context.Context, userID uuid.UUID) ([]domain.Project, error) {
	return s.store.ListProjects(ctx, userID)
}

// Get returns the project only if userID owns it; foreign projects look missing.
func (s *ProjectService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Project, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, domain.ErrProjectNotFound
	}
	return p, nil
}

func (s *ProjectService) Create(ctx context.Context, userID uuid.UUID, name string, tags []string) (*domain.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", domain.ErrInvalidInput)
	}
	now := time.Now()
	p := &domain.Project{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Tags:      normalizeTags(tags),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProjectService) Update(ctx context.Context, userID, id uuid.UUID, name *string, tags []string) (*domain.Project, error) {
	p, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" {
			return nil, fmt.Errorf("%w: project name is required", domain.ErrInvalidInput)
		}
		p.Name = n
	}
	if tags != nil {
		p.Tags = normalizeTags(tags)
	}
	p.UpdatedAt = time.Now()
	if err := s.store.UpdateProject(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the project. Its saved sessions are kept, unfiled.
func (s *ProjectService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.store.DeleteProject(ctx, id)
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
