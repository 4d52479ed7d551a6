package service

import (
	"slices"
	"sync"
	"time"

	"github.com/set-night/copydesk/internal/domain"
)

// CatalogCache holds the public list of active tools for a short time.
type CatalogCache struct {
	mu       sync.RWMutex
	tools    []domain.Tool
	cachedAt time.Time
	ttl      time.Duration
}

func NewCatalogCache(ttl time.Duration) *CatalogCache {
	return &CatalogCache{ttl: ttl}
}

func (c *CatalogCache) Get() []domain.Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.tools == nil || time.Since(c.cachedAt) > c.ttl {
		return nil
	}
	return cloneTools(c.tools)
}

func (c *CatalogCache) Set(tools []domain.Tool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tools = cloneTools(tools)
	c.cachedAt = time.Now()
}

func (c *CatalogCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tools = nil
}

// cloneTools copies tools deeply enough that callers can modify questions,
// options and fallbacks without touching the cached list.
func cloneTools(tools []domain.Tool) []domain.Tool {
	out := slices.Clone(tools)
	for i := range out {
		out[i].FallbackModels = slices.Clone(out[i].FallbackModels)
		out[i].Questions = slices.Clone(out[i].Questions)
		for j := range out[i].Questions {
			out[i].Questions[j].Options = slices.Clone(out[i].Questions[j].Options)
		}
	}
	return out
}
