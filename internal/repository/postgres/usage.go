package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/set-night/copydesk/internal/domain"
)

func (s *Store) RecordGeneration(ctx context.Context, g *domain.Generation) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO generations (id, tool_id, user_id, provider, prompt_tokens, completion_tokens, cost, latency_ms, success, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		g.ID, g.ToolID, ptrToPgUUID(g.UserID), string(g.Provider), g.PromptTokens, g.CompletionTokens,
		g.Cost, g.Latency.Milliseconds(), g.Success, timeToPgTimestamptz(g.CreatedAt))
	if err != nil {
		return fmt.Errorf("record generation: %w", err)
	}
	return nil
}

func (s *Store) Stats(ctx context.Context, since time.Time) (*domain.Stats, error) {
	var st domain.Stats
	var tools, users, categories, sessions int64
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM tools),
			(SELECT COUNT(*) FROM users WHERE active),
			(SELECT COUNT(*) FROM categories),
			(SELECT COUNT(*) FROM chat_sessions WHERE created_at >= $1),
			(SELECT COALESCE(SUM(cost), 0) FROM generations WHERE created_at >= $1)`,
		timeToPgTimestamptz(since)).Scan(&tools, &users, &categories, &sessions, &st.CostToday)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	st.TotalTools = int(tools)
	st.ActiveUsers = int(users)
	st.TotalCategories = int(categories)
	st.SessionsToday = int(sessions)
	return &st, nil
}
