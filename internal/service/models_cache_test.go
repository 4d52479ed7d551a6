package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/copydesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogCacheReturnsIndependentCopies(t *testing.T) {
	c := NewCatalogCache(time.Minute)
	src := []domain.Tool{{
		ID:             uuid.New(),
		Title:          "Ad Writer",
		FallbackModels: []domain.ModelName{domain.ModelChatGPT},
		Questions: []domain.Question{
			{Label: "Platform?", Order: 1, Options: []string{"Facebook", "LinkedIn"}},
		},
	}}
	c.Set(src)

	// the caller's slice no longer feeds the cache
	src[0].Questions[0].Label = "changed"

	first := c.Get()
	require.Len(t, first, 1)
	first[0].FallbackModels[0] = domain.ModelGrok
	first[0].Questions[0].Options[0] = "TikTok"
	first[0].Questions = append(first[0].Questions[:0], domain.Question{Label: "other"})

	second := c.Get()
	require.Len(t, second, 1)
	assert.Equal(t, domain.ModelChatGPT, second[0].FallbackModels[0])
	require.Len(t, second[0].Questions, 1)
	assert.Equal(t, "Platform?", second[0].Questions[0].Label)
	assert.Equal(t, []string{"Facebook", "LinkedIn"}, second[0].Questions[0].Options)
}

func TestCatalogCacheExpiresAndInvalidates(t *testing.T) {
	c := NewCatalogCache(time.Minute)
	assert.Nil(t, c.Get())

	c.Set([]domain.Tool{{Title: "Ad Writer"}})
	assert.Len(t, c.Get(), 1)

	c.Invalidate()
	assert.Nil(t, c.Get())

	expired := NewCatalogCache(0)
	expired.Set([]domain.Tool{{Title: "Ad Writer"}})
	time.Sleep(time.Millisecond)
	assert.Nil(t, expired.Get())
}
