package sqlite

import (
	"context"
	"io/fs"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/copydesk"
	"github.com/set-night/copydesk/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	migrations, err := fs.Sub(copydesk.MigrationsFS, "migrations/sqlite")
	require.NoError(t, err)
	s, err := Open(":memory:", migrations)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedCategory(t *testing.T, s *Store, name string, order int) *domain.Category {
	t.Helper()
	now := time.Now()
	c := &domain.Category{ID: uuid.New(), Name: name, DisplayOrder: order, Active: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateCategory(context.Background(), c))
	return c
}

func seedUser(t *testing.T, s *Store, email string) *domain.User {
	t.Helper()
	now := time.Now()
	u := &domain.User{ID: uuid.New(), Email: email, Name: "Test", Role: domain.RoleUserAccount, Active: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func seedTool(t *testing.T, s *Store, cat *domain.Category, title string) *domain.Tool {
	t.Helper()
	now := time.Now()
	tool := &domain.Tool{
		ID:                 uuid.New(),
		Title:              title,
		Description:        "writes " + title,
		CategoryID:         cat.ID,
		Active:             true,
		PrimaryModel:       domain.ModelClaude,
		FallbackModels:     []domain.ModelName{domain.ModelChatGPT},
		PromptInstructions: "be brief",
		Questions: []domain.Question{
			{Label: "Second", Kind: domain.InputSingleLine, Order: 2, Required: true},
			{Label: "First", Kind: domain.InputChoice, Order: 1, Options: []string{"a", "b"}},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateTool(context.Background(), tool))
	return tool
}

func TestCatalogRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cat := seedCategory(t, s, "Ads", 1)
	tool := seedTool(t, s, cat, "Ad Writer")

	got, err := s.GetTool(ctx, tool.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ad Writer", got.Title)
	assert.Equal(t, "Ads", got.CategoryName)
	assert.Equal(t, []domain.ModelName{domain.ModelChatGPT}, got.FallbackModels)
	require.Len(t, got.Questions, 2)
	assert.Equal(t, "First", got.Questions[0].Label)
	assert.Equal(t, []string{"a", "b"}, got.Questions[0].Options)

	_, err = s.GetTool(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrToolNotFound)
}

func TestListToolsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ads := seedCategory(t, s, "Ads", 1)
	email := seedCategory(t, s, "Email", 2)
	seedTool(t, s, ads, "Ad Writer")
	mail := seedTool(t, s, email, "Money Tales")

	mail.Active = false
	mail.UpdatedAt = time.Now()
	require.NoError(t, s.UpdateTool(ctx, mail, false))

	active, err := s.ListTools(ctx, domain.ToolFilter{})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Len(t, active[0].Questions, 2)

	all, err := s.ListTools(ctx, domain.ToolFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byName, err := s.ListTools(ctx, domain.ToolFilter{CategoryName: "Email", IncludeInactive: true})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Money Tales", byName[0].Title)

	search, err := s.ListTools(ctx, domain.ToolFilter{Search: "writer"})
	require.NoError(t, err)
	assert.Len(t, search, 1)
}

func TestUpdateToolReplacesQuestions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tool := seedTool(t, s, seedCategory(t, s, "Ads", 1), "Ad Writer")

	tool.Questions = []domain.Question{{Label: "Only", Kind: domain.InputMultiLine, Order: 1}}
	require.NoError(t, s.UpdateTool(ctx, tool, true))

	got, err := s.GetTool(ctx, tool.ID)
	require.NoError(t, err)
	require.Len(t, got.Questions, 1)
	assert.Equal(t, "Only", got.Questions[0].Label)
}

func TestCategoryConstraints(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := seedCategory(t, s, "Ads", 1)
	b := seedCategory(t, s, "Blogs", 2)

	dup := &domain.Category{ID: uuid.New(), Name: "Ads", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	assert.ErrorIs(t, s.CreateCategory(ctx, dup), domain.ErrCategoryExists)

	require.NoError(t, s.ReorderCategories(ctx, []uuid.UUID{b.ID, a.ID}))
	cats, err := s.ListCategories(ctx, false)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Blogs", cats[0].Name)
	assert.Equal(t, 1, cats[0].DisplayOrder)

	max, err := s.MaxCategoryOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, max)

	seedTool(t, s, a, "Ad Writer")
	require.NoError(t, s.DeleteCategory(ctx, a.ID))
	tools, err := s.ListTools(ctx, domain.ToolFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Empty(t, tools)

	assert.ErrorIs(t, s.DeleteCategory(ctx, a.ID), domain.ErrCategoryNotFound)
}

func TestSessionUpsertAndProjectFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "a@example.com")
	now := time.Now()
	project := &domain.Project{ID: uuid.New(), UserID: user.ID, Name: "Launch", Tags: []string{"q4"}, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateProject(ctx, project))

	cs := &domain.ChatSession{
		ID:        uuid.New(),
		UserID:    user.ID,
		ToolID:    uuid.New(),
		ToolTitle: "Ad Writer",
		Messages:  []domain.Message{{ID: "1", Role: domain.RoleAssistant, Text: "Hello"}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.SaveSession(ctx, cs))

	cs.Messages = append(cs.Messages, domain.Message{ID: "2", Role: domain.RoleUser, Text: "Shoes"})
	cs.ProjectID = &project.ID
	require.NoError(t, s.SaveSession(ctx, cs))

	got, err := s.GetSession(ctx, cs.ID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 2)
	require.NotNil(t, got.ProjectID)
	assert.Equal(t, project.ID, *got.ProjectID)

	filtered, err := s.ListSessions(ctx, user.ID, &project.ID)
	require.NoError(t, err)
	assert.Len(t, filtered, 1)

	p, err := s.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.SessionCount)
	assert.Equal(t, []string{"q4"}, p.Tags)

	require.NoError(t, s.DeleteProject(ctx, project.ID))
	got, err = s.GetSession(ctx, cs.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ProjectID)

	require.NoError(t, s.DeleteSession(ctx, cs.ID))
	assert.ErrorIs(t, s.DeleteSession(ctx, cs.ID), domain.ErrSessionNotFound)
}

func TestUserLookups(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "tg@example.com")

	tgID := int64(42)
	u.TelegramID = &tgID
	u.Role = domain.RoleAdmin
	require.NoError(t, s.UpdateUser(ctx, u))

	got, err := s.GetUserByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, got.IsAdmin())

	_, err = s.GetUserByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestFilesAndStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "f@example.com")
	tool := seedTool(t, s, seedCategory(t, s, "Ads", 1), "Ad Writer")

	f := &domain.KnowledgeFile{
		ID: uuid.New(), UserID: user.ID, ToolID: &tool.ID, Filename: "brief.txt",
		StoredPath: "/tmp/brief.txt", Size: 5, MimeType: "text/plain", Content: "hello", CreatedAt: time.Now(),
	}
	require.NoError(t, s.CreateFile(ctx, f))
	got, err := s.GetFile(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Content)
	require.NotNil(t, got.ToolID)

	for _, cost := range []string{"0.0125", "0.0075"} {
		require.NoError(t, s.RecordGeneration(ctx, &domain.Generation{
			ID: uuid.New(), ToolID: tool.ID, Provider: domain.ModelClaude,
			Cost: decimal.RequireFromString(cost), Success: true, CreatedAt: time.Now(),
		}))
	}

	st, err := s.Stats(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalTools)
	assert.Equal(t, 1, st.ActiveUsers)
	assert.Equal(t, 1, st.TotalCategories)
	assert.True(t, decimal.RequireFromString("0.02").Equal(st.CostToday))

	require.NoError(t, s.DeleteFile(ctx, f.ID))
	_, err = s.GetFile(ctx, f.ID)
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
}
