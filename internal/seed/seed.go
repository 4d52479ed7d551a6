// Package seed loads the starter catalog, users and projects from YAML.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/set-night/copydesk/internal/domain"
	"github.com/set-night/copydesk/internal/repository"
	"github.com/set-night/copydesk/internal/service"
	"gopkg.in/yaml.v3"
)

type File struct {
	Users      []User     `yaml:"users"`
	Categories []Category `yaml:"categories"`
	Tools      []Tool     `yaml:"tools"`
	Projects   []Project  `yaml:"projects"`
}

type User struct {
	Email string          `yaml:"email"`
	Name  string          `yaml:"name"`
	Role  domain.UserRole `yaml:"role"`
}

type Category struct {
	Name string `yaml:"name"`
}

type Question struct {
	Label       string           `yaml:"label"`
	Type        domain.InputKind `yaml:"type"`
	Placeholder string           `yaml:"placeholder"`
	Required    *bool            `yaml:"required"`
	Order       int              `yaml:"order"`
	Options     []string         `yaml:"options"`
}

type Tool struct {
	Title              string             `yaml:"title"`
	Description        string             `yaml:"description"`
	Category           string             `yaml:"category"`
	Featured           bool               `yaml:"featured"`
	PrimaryModel       domain.ModelName   `yaml:"primaryModel"`
	FallbackModels     []domain.ModelName `yaml:"fallbackModels"`
	PromptInstructions string             `yaml:"promptInstructions"`
	Questions          []Question         `yaml:"questions"`
}

type Project struct {
	Owner string   `yaml:"owner"`
	Name  string   `yaml:"name"`
	Tags  []string `yaml:"tags"`
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &f, nil
}

// Result counts the records created by a run. Existing records are skipped.
type Result struct {
	Users      int
	Categories int
	Tools      int
	Projects   int
}

type Seeder struct {
	store    repository.Store
	users    *service.UserService
	catalog  *service.CatalogService
	projects *service.ProjectService
}

func New(store repository.Store) *Seeder {
	return &Seeder{
		store:    store,
		users:    service.NewUserService(store),
		catalog:  service.NewCatalogService(store),
		projects: service.NewProjectService(store),
	}
}

// Apply creates whatever the file names that the store does not hold yet.
// Users match by email, categories by name, tools by title and projects by
// owner and name, so running it twice changes nothing.
func (s *Seeder) Apply(ctx context.Context, f *File) (Result, error) {
	var res Result

	for _, u := range f.Users {
		_, err := s.store.GetUserByEmail(ctx, strings.ToLower(u.Email))
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			return res, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		if _, err := s.users.Invite(ctx, u.Email, u.Name, u.Role, nil); err != nil {
			return res, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		res.Users++
	}

	categories := make(map[string]*domain.Category)
	for _, c := range f.Categories {
		cat, created, err := s.category(ctx, c.Name)
		if err != nil {
			return res, err
		}
		categories[cat.Name] = cat
		if created {
			res.Categories++
		}
	}

	existing, err := s.catalog.ListAllTools(ctx)
	if err != nil {
		return res, fmt.Errorf("list tools: %w", err)
	}
	titles := make(map[string]bool, len(existing))
	for _, t := range existing {
		titles[t.Title] = true
	}

	for _, t := range f.Tools {
		if titles[t.Title] {
			continue
		}
		cat, ok := categories[t.Category]
		if !ok {
			c, created, err := s.category(ctx, t.Category)
			if err != nil {
				return res, err
			}
			cat = c
			categories[c.Name] = c
			if created {
				res.Categories++
			}
		}

		featured := t.Featured
		in := service.ToolInput{
			Title:              t.Title,
			Description:        t.Description,
			CategoryID:         cat.ID,
			Featured:           &featured,
			PrimaryModel:       t.PrimaryModel,
			FallbackModels:     t.FallbackModels,
			PromptInstructions: t.PromptInstructions,
			Questions:          []service.QuestionInput{},
		}
		for _, q := range t.Questions {
			in.Questions = append(in.Questions, service.QuestionInput{
				Label:       q.Label,
				Type:        q.Type,
				Placeholder: q.Placeholder,
				Required:    q.Required,
				Order:       q.Order,
				Options:     q.Options,
			})
		}
		if _, err := s.catalog.CreateTool(ctx, in); err != nil {
			return res, fmt.Errorf("seed tool %q: %w", t.Title, err)
		}
		titles[t.Title] = true
		res.Tools++
	}

	for _, p := range f.Projects {
		owner, err := s.store.GetUserByEmail(ctx, strings.ToLower(p.Owner))
		if err != nil {
			return res, fmt.Errorf("seed project %q owner: %w", p.Name, err)
		}
		projects, err := s.projects.List(ctx, owner.ID)
		if err != nil {
			return res, fmt.Errorf("list projects: %w", err)
		}
		if hasProject(projects, p.Name) {
			continue
		}
		if _, err := s.projects.Create(ctx, owner.ID, p.Name, p.Tags); err != nil {
			return res, fmt.Errorf("seed project %q: %w", p.Name, err)
		}
		res.Projects++
	}

	slog.InfoContext(ctx, "seed applied",
		"users", res.Users,
		"categories", res.Categories,
		"tools", res.Tools,
		"projects", res.Projects,
	)
	return res, nil
}

func (s *Seeder) category(ctx context.Context, name string) (*domain.Category, bool, error) {
	cat, err := s.store.GetCategoryByName(ctx, name)
	if err == nil {
		return cat, false, nil
	}
	if !errors.Is(err, domain.ErrCategoryNotFound) {
		return nil, false, fmt.Errorf("seed category %q: %w", name, err)
	}
	cat, err = s.catalog.CreateCategory(ctx, name, nil)
	if err != nil {
		return nil, false, fmt.Errorf("seed category %q: %w", name, err)
	}
	return cat, true, nil
}

func hasProject(projects []domain.Project, name string) bool {
	for _, p := range projects {
		if strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}
