package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/set-night/copydesk/internal/domain"
	"github.com/shopspring/decimal"
)

// Price is in USD per 1M tokens.
type Price struct {
	Prompt     float64
	Completion float64
}

type Pricing map[domain.ModelName]Price

// ParsePricing reads entries of the form "Claude:3:15".
func ParsePricing(entries []string) (Pricing, error) {
	p := make(Pricing, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		parts := strings.Split(e, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("parse pricing %q: want name:prompt:completion", e)
		}
		name, err := domain.ParseModelName(parts[0])
		if err != nil {
			return nil, fmt.Errorf("parse pricing %q: %w", e, err)
		}
		prompt, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse pricing %q: %w", e, err)
		}
		completion, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, fmt.Errorf("parse pricing %q: %w", e, err)
		}
		p[name] = Price{Prompt: prompt, Completion: completion}
	}
	return p, nil
}

// Cost of a single provider call. Providers without a price cost zero.
func (p Pricing) Cost(name domain.ModelName, promptTokens, completionTokens int) decimal.Decimal {
	price, ok := p[name]
	if !ok {
		return decimal.Zero
	}
	return CalculateCost(promptTokens, completionTokens, price.Prompt, price.Completion)
}

// CalculateCost calculates request cost from per-1M-token prices.
func CalculateCost(promptTokens, completionTokens int, promptPrice, completionPrice float64) decimal.Decimal {
	promptCost := decimal.NewFromInt(int64(promptTokens)).Mul(decimal.NewFromFloat(promptPrice))
	completionCost := decimal.NewFromInt(int64(completionTokens)).Mul(decimal.NewFromFloat(completionPrice))
	return promptCost.Add(completionCost).Div(decimal.NewFromInt(1_000_000))
}
