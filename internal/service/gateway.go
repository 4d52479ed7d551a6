package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/copydesk/internal/domain"
	"github.com/set-night/copydesk/internal/llm"
)

// UsageRecorder stores one row per provider attempt.
type UsageRecorder interface {
	RecordGeneration(ctx context.Context, g *domain.Generation) error
}

// Gateway tries a tool's providers in order until one answers.
type Gateway struct {
	providers map[domain.ModelName]llm.Provider
	pricing   Pricing
	usage     UsageRecorder
	now       func() time.Time
}

// NewGateway registers the configured providers. usage may be nil.
func NewGateway(providers []llm.Provider, pricing Pricing, usage UsageRecorder) *Gateway {
	m := make(map[domain.ModelName]llm.Provider, len(providers))
	for _, p := range providers {
		m[p.Name()] = p
	}
	return &Gateway{providers: m, pricing: pricing, usage: usage, now: time.Now}
}

// Candidates is the tool's primary model followed by its fallbacks, first occurrence kept.
func Candidates(tool *domain.Tool) []domain.ModelName {
	out := make([]domain.ModelName, 0, 1+len(tool.FallbackModels))
	seen := make(map[domain.ModelName]bool, cap(out))
	for _, name := range append([]domain.ModelName{tool.PrimaryModel}, tool.FallbackModels...) {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// Generate returns the first successful provider reply. When every candidate
// fails or none is configured it returns a *domain.GenerationError.
func (g *Gateway) Generate(ctx context.Context, tool *domain.Tool, transcript []domain.Message, document string) (string, error) {
	req := llm.NewRequest(tool, transcript, document)
	genErr := &domain.GenerationError{}

	for _, name := range Candidates(tool) {
		p, ok := g.providers[name]
		if !ok {
			genErr.Skipped = append(genErr.Skipped, name)
			continue
		}
		if err := ctx.Err(); err != nil {
			genErr.Cause = err
			slog.WarnContext(ctx, "generation abandoned", "tool_id", tool.ID, "error", err)
			return "", genErr
		}

		genErr.Attempted = append(genErr.Attempted, name)
		start := g.now()
		res := p.Complete(ctx, req)
		g.record(ctx, tool, name, res, g.now().Sub(start))

		if res.OK() {
			slog.InfoContext(ctx, "generation succeeded", "tool_id", tool.ID, "provider", name,
				"prompt_tokens", res.Usage.PromptTokens, "completion_tokens", res.Usage.CompletionTokens)
			return res.Text, nil
		}
		slog.WarnContext(ctx, "provider failed, trying next", "tool_id", tool.ID, "provider", name,
			"kind", res.Failure.Kind, "error", res.Failure)
	}

	if len(genErr.Attempted) == 0 {
		slog.ErrorContext(ctx, "no provider configured for tool", "tool_id", tool.ID, "skipped", genErr.Skipped)
	}
	return "", genErr
}

func (g *Gateway) record(ctx context.Context, tool *domain.Tool, name domain.ModelName, res llm.Result, latency time.Duration) {
	if g.usage == nil {
		return
	}
	rec := &domain.Generation{
		ID:               uuid.New(),
		ToolID:           tool.ID,
		Provider:         name,
		PromptTokens:     res.Usage.PromptTokens,
		CompletionTokens: res.Usage.CompletionTokens,
		Cost:             g.pricing.Cost(name, res.Usage.PromptTokens, res.Usage.CompletionTokens),
		Latency:          latency,
		Success:          res.OK(),
		CreatedAt:        g.now(),
	}
	if uid, ok := ActorFromContext(ctx); ok {
		rec.UserID = &uid
	}
	if err := g.usage.RecordGeneration(context.WithoutCancel(ctx), rec); err != nil {
		slog.ErrorContext(ctx, "record generation", "provider", name, "error", err)
	}
}

// Status reports which of the known providers are configured.
func (g *Gateway) Status() map[domain.ModelName]bool {
	out := make(map[domain.ModelName]bool, len(domain.KnownModels))
	for _, name := range domain.KnownModels {
		_, ok := g.providers[name]
		out[name] = ok
	}
	return out
}
