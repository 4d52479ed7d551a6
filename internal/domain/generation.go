package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Generation is one provider attempt made by the gateway.
type Generation struct {
	ID               uuid.UUID       `json:"id"`
	ToolID           uuid.UUID       `json:"toolId"`
	UserID           *uuid.UUID      `json:"userId,omitempty"`
	Provider         ModelName       `json:"provider"`
	PromptTokens     int             `json:"promptTokens"`
	CompletionTokens int             `json:"completionTokens"`
	Cost             decimal.Decimal `json:"cost"`
	Latency          time.Duration   `json:"latency"`
	Success          bool            `json:"success"`
	CreatedAt        time.Time       `json:"createdAt"`
}

type Stats struct {
	TotalTools      int             `json:"totalTools"`
	ActiveUsers     int             `json:"activeUsers"`
	TotalCategories int             `json:"totalCategories"`
	SessionsToday   int             `json:"todayUsage"`
	CostToday       decimal.Decimal `json:"costToday"`
}
