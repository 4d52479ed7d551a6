package service

import (
	"context"
	"time"

	"github.com/set-night/copydesk/internal/domain"
	"github.com/set-night/copydesk/internal/repository"
)

type StatsService struct {
	store repository.UsageStore
	now   func() time.Time
}

func NewStatsService(store repository.UsageStore) *StatsService {
	return &StatsService{store: store, now: time.Now}
}

// Today reports dashboard counters; "today" starts at local midnight.
func (s *StatsService) Today(ctx context.Context) (*domain.Stats, error) {
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.store.Stats(ctx, midnight)
}
