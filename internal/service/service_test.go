package service

import (
	"context"
	"io/fs"
	"testing"

	"github.com/set-night/copydesk"
	"github.com/set-night/copydesk/internal/domain"
	"github.com/set-night/copydesk/internal/repository/sqlite"
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

func newUser(t *testing.T, users *UserService, tgID int64) *domain.User {
	t.Helper()
	u, _, err := users.FindOrCreateByTelegram(context.Background(), tgID, "Tester", false)
	require.NoError(t, err)
	return u
}

func newTool(t *testing.T, catalog *CatalogService, questions ...string) *domain.Tool {
	t.Helper()
	ctx := context.Background()
	cat, err := catalog.CreateCategory(ctx, "Ads "+t.Name(), nil)
	require.NoError(t, err)
	in := ToolInput{
		Title:              "Ad Writer",
		Description:        "Writes ads",
		CategoryID:         cat.ID,
		PrimaryModel:       domain.ModelClaude,
		FallbackModels:     []domain.ModelName{domain.ModelChatGPT},
		PromptInstructions: "Write an ad",
	}
	for _, q := range questions {
		in.Questions = append(in.Questions, QuestionInput{Label: q})
	}
	tool, err := catalog.CreateTool(ctx, in)
	require.NoError(t, err)
	return tool
}
