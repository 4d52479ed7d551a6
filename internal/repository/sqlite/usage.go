package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/set-night/copydesk/internal/domain"
	"github.com/shopspring/decimal"
)

func (s *Store) RecordGeneration(ctx context.Context, g *domain.Generation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generations (id, tool_id, user_id, provider, prompt_tokens, completion_tokens, cost, latency_ms, success, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.ToolID, ptrToNullUUID(g.UserID), string(g.Provider), g.PromptTokens, g.CompletionTokens,
		g.Cost.String(), g.Latency.Milliseconds(), g.Success, g.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("record generation: %w", err)
	}
	return nil
}

// Stats sums generation cost in Go since SQLite has no exact decimal type.
func (s *Store) Stats(ctx context.Context, since time.Time) (*domain.Stats, error) {
	since = since.UTC()
	var st domain.Stats
	err := s.db.QueryRowxContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM tools),
			(SELECT COUNT(*) FROM users WHERE active = 1),
			(SELECT COUNT(*) FROM categories),
			(SELECT COUNT(*) FROM chat_sessions WHERE created_at >= ?)`,
		since).Scan(&st.TotalTools, &st.ActiveUsers, &st.TotalCategories, &st.SessionsToday)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}

	var costs []string
	if err := s.db.SelectContext(ctx, &costs, "SELECT cost FROM generations WHERE created_at >= ?", since); err != nil {
		return nil, fmt.Errorf("stats cost: %w", err)
	}
	st.CostToday = decimal.Zero
	for _, c := range costs {
		d, err := decimal.NewFromString(c)
		if err != nil {
			return nil, fmt.Errorf("parse cost %q: %w", c, err)
		}
		st.CostToday = st.CostToday.Add(d)
	}
	return &st, nil
}
