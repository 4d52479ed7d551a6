package seed

import (
	"context"
	"io/fs"
	"testing"

	"github.com/set-night/copydesk"
	"github.com/set-night/copydesk/internal/domain"
	"github.com/set-night/copydesk/internal/repository/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	migrations, err := fs.Sub(copydesk.MigrationsFS, "migrations/sqlite")
	require.NoError(t, err)
	s, err := sqlite.Open(":memory:", migrations)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestParseEmbeddedCatalog(t *testing.T) {
	f, err := Parse(copydesk.SeedCatalog)
	require.NoError(t, err)

	assert.Len(t, f.Users, 2)
	assert.Len(t, f.Categories, 8)
	require.Len(t, f.Tools, 3)
	assert.Equal(t, "Ad Writer (HAO)", f.Tools[0].Title)
	assert.Equal(t, domain.ModelClaude, f.Tools[0].PrimaryModel)
	require.Len(t, f.Tools[0].Questions, 4)
	assert.Equal(t, domain.InputChoice, f.Tools[0].Questions[2].Type)
	assert.Contains(t, f.Tools[0].Questions[2].Options, "LinkedIn")
}

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	f, err := Parse(copydesk.SeedCatalog)
	require.NoError(t, err)

	s := New(store)
	res, err := s.Apply(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, Result{Users: 2, Categories: 8, Tools: 3, Projects: 1}, res)

	res, err = s.Apply(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)

	tools, err := store.ListTools(ctx, domain.ToolFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, tools, 3)

	cat, err := store.GetCategoryByName(ctx, "Other")
	require.NoError(t, err)
	assert.Equal(t, 8, cat.DisplayOrder)

	admin, err := store.GetUserByEmail(ctx, "admin@copydesk.local")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
}

func TestApplyCreatesMissingCategoryForTool(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	f := &File{Tools: []Tool{{
		Title:              "Headline Lab",
		Category:           "Headlines",
		PrimaryModel:       domain.ModelChatGPT,
		PromptInstructions: "Write ten headlines",
		Questions:          []Question{{Label: "Topic?"}},
	}}}
	res, err := New(store).Apply(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Categories)
	assert.Equal(t, 1, res.Tools)

	tools, err := store.ListTools(ctx, domain.ToolFilter{CategoryName: "Headlines"})
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, domain.InputSingleLine, tools[0].Questions[0].Kind)
}

func TestApplyUnknownProjectOwner(t *testing.T) {
	f := &File{Projects: []Project{{Owner: "ghost@example.com", Name: "Launch"}}}
	_, err := New(newStore(t)).Apply(context.Background(), f)
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}
