package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "sqlite")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, ":3001", cfg.HTTPAddr)
	assert.Equal(t, time.Second, cfg.GreetingDelay)
	assert.Equal(t, 800*time.Millisecond, cfg.QuestionDelay)
	assert.Equal(t, int64(10<<20), cfg.MaxFileSize)
	assert.Equal(t, "gpt-4", cfg.OpenAIModel)
	assert.Equal(t, "https://api.x.ai/v1", cfg.GrokBaseURL)
}

func TestParseAdminIDs(t *testing.T) {
	t.Setenv("ADMIN_TELEGRAM_IDS", "10,20")
	t.Setenv("PROVIDER_PRICING", "ChatGPT:30:60,Claude:3:15")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.True(t, cfg.IsAdmin(20))
	assert.False(t, cfg.IsAdmin(30))
	assert.Equal(t, "10,20", cfg.AdminIDsString())
	assert.Equal(t, []string{"ChatGPT:30:60", "Claude:3:15"}, cfg.Pricing)
}

func TestPostgresRequiresURL(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "mongo")

	_, err := Parse()
	require.Error(t, err)
}
