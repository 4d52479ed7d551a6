package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/set-night/copydesk/internal/domain"
	"github.com/set-night/copydesk/internal/llm"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name   domain.ModelName
	result llm.Result
	calls  int
	last   llm.Request
}

func (p *stubProvider) Name() domain.ModelName { return p.name }

func (p *stubProvider) Complete(_ context.Context, req llm.Request) llm.Result {
	p.calls++
	p.last = req
	return p.result
}

func answering(name domain.ModelName, text string) *stubProvider {
	return &stubProvider{name: name, result: llm.Result{Text: text, Usage: llm.Usage{PromptTokens: 1000, CompletionTokens: 500}}}
}

func failing(name domain.ModelName) *stubProvider {
	return &stubProvider{name: name, result: llm.Result{Failure: &llm.Failure{Kind: llm.FailureStatus, Detail: "503"}}}
}

type usageLog struct {
	mu   sync.Mutex
	rows []*domain.Generation
}

func (u *usageLog) RecordGeneration(_ context.Context, g *domain.Generation) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.rows = append(u.rows, g)
	return nil
}

func toolWith(primary domain.ModelName, fallbacks ...domain.ModelName) *domain.Tool {
	return &domain.Tool{ID: uuid.New(), Title: "Ad Writer", PrimaryModel: primary, FallbackModels: fallbacks}
}

func TestCandidates(t *testing.T) {
	tool := toolWith(domain.ModelClaude, domain.ModelChatGPT, domain.ModelClaude, "", domain.ModelGemini, domain.ModelChatGPT)
	assert.Equal(t, []domain.ModelName{domain.ModelClaude, domain.ModelChatGPT, domain.ModelGemini}, Candidates(tool))
}

func TestGenerateUsesPrimaryFirst(t *testing.T) {
	claude := answering(domain.ModelClaude, "from claude")
	gpt := answering(domain.ModelChatGPT, "from gpt")
	g := NewGateway([]llm.Provider{gpt, claude}, nil, nil)

	text, err := g.Generate(context.Background(), toolWith(domain.ModelClaude, domain.ModelChatGPT), nil, "")
	require.NoError(t, err)
	assert.Equal(t, "from claude", text)
	assert.Equal(t, 0, gpt.calls)
}

func TestGenerateSkipsUnconfiguredPrimary(t *testing.T) {
	gpt := answering(domain.ModelChatGPT, "from gpt")
	g := NewGateway([]llm.Provider{gpt}, nil, nil)

	text, err := g.Generate(context.Background(), toolWith(domain.ModelClaude, domain.ModelChatGPT), nil, "")
	require.NoError(t, err)
	assert.Equal(t, "from gpt", text)
	assert.Equal(t, 1, gpt.calls)
}

func TestGenerateFallsBackAfterFailure(t *testing.T) {
	claude := failing(domain.ModelClaude)
	gemini := answering(domain.ModelGemini, "from gemini")
	g := NewGateway([]llm.Provider{claude, gemini}, nil, nil)

	text, err := g.Generate(context.Background(), toolWith(domain.ModelClaude, domain.ModelGemini), nil, "brief")
	require.NoError(t, err)
	assert.Equal(t, "from gemini", text)
	assert.Equal(t, 1, claude.calls)
	assert.Equal(t, "brief", gemini.last.Document)
}

func TestGenerateExhausted(t *testing.T) {
	claude := failing(domain.ModelClaude)
	gpt := failing(domain.ModelChatGPT)
	g := NewGateway([]llm.Provider{claude, gpt}, nil, nil)

	_, err := g.Generate(context.Background(), toolWith(domain.ModelClaude, domain.ModelChatGPT, domain.ModelGrok), nil, "")
	require.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.NotErrorIs(t, err, domain.ErrNoProviderConfigured)

	var genErr *domain.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, []domain.ModelName{domain.ModelClaude, domain.ModelChatGPT}, genErr.Attempted)
	assert.Equal(t, []domain.ModelName{domain.ModelGrok}, genErr.Skipped)
	assert.Equal(t, 1, claude.calls)
	assert.Equal(t, 1, gpt.calls)
}

func TestGenerateNothingConfigured(t *testing.T) {
	g := NewGateway(nil, nil, nil)
	_, err := g.Generate(context.Background(), toolWith(domain.ModelClaude, domain.ModelChatGPT), nil, "")
	assert.ErrorIs(t, err, domain.ErrNoProviderConfigured)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
}

func TestGenerateFallbackSkipsUnconfiguredMiddleCandidate(t *testing.T) {
	claude := failing(domain.ModelClaude)
	gemini := answering(domain.ModelGemini, "from gemini")
	usage := &usageLog{}
	g := NewGateway([]llm.Provider{claude, gemini}, nil, usage)

	text, err := g.Generate(context.Background(), toolWith(domain.ModelClaude, domain.ModelChatGPT, domain.ModelGemini), nil, "")
	require.NoError(t, err)
	assert.Equal(t, "from gemini", text)
	assert.Equal(t, 1, claude.calls)
	assert.Equal(t, 1, gemini.calls)

	// ChatGPT has no credentials, so only two attempts were made
	require.Len(t, usage.rows, 2)
	assert.Equal(t, domain.ModelClaude, usage.rows[0].Provider)
	assert.False(t, usage.rows[0].Success)
	assert.Equal(t, domain.ModelGemini, usage.rows[1].Provider)
	assert.True(t, usage.rows[1].Success)
}

func TestGenerateCancelledContextIsGenerationError(t *testing.T) {
	claude := answering(domain.ModelClaude, "from claude")
	g := NewGateway([]llm.Provider{claude}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx, toolWith(domain.ModelClaude), nil, "")
	require.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.NotErrorIs(t, err, domain.ErrNoProviderConfigured)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, claude.calls)
}

func TestGenerateRecordsUsage(t *testing.T) {
	usage := &usageLog{}
	pricing := Pricing{domain.ModelChatGPT: {Prompt: 30, Completion: 60}}
	g := NewGateway([]llm.Provider{failing(domain.ModelClaude), answering(domain.ModelChatGPT, "done")}, pricing, usage)

	actor := uuid.New()
	ctx := WithActor(context.Background(), actor)
	_, err := g.Generate(ctx, toolWith(domain.ModelClaude, domain.ModelChatGPT), nil, "")
	require.NoError(t, err)

	require.Len(t, usage.rows, 2)
	assert.False(t, usage.rows[0].Success)
	assert.True(t, usage.rows[0].Cost.IsZero())
	assert.True(t, usage.rows[1].Success)
	require.NotNil(t, usage.rows[1].UserID)
	assert.Equal(t, actor, *usage.rows[1].UserID)
	// 1000 * 30 / 1M + 500 * 60 / 1M
	assert.True(t, decimal.RequireFromString("0.06").Equal(usage.rows[1].Cost), usage.rows[1].Cost.String())
}

func TestStatus(t *testing.T) {
	g := NewGateway([]llm.Provider{answering(domain.ModelGemini, "x")}, nil, nil)
	assert.Equal(t, map[domain.ModelName]bool{
		domain.ModelChatGPT: false,
		domain.ModelClaude:  false,
		domain.ModelGrok:    false,
		domain.ModelGemini:  true,
	}, g.Status())
}

func TestParsePricing(t *testing.T) {
	p, err := ParsePricing([]string{"Claude:3:15", " ", "ChatGPT:30:60"})
	require.NoError(t, err)
	assert.Equal(t, Price{Prompt: 3, Completion: 15}, p[domain.ModelClaude])

	_, err = ParsePricing([]string{"Mistral:1:1"})
	assert.ErrorIs(t, err, domain.ErrInvalidModel)

	_, err = ParsePricing([]string{"Claude:3"})
	assert.Error(t, err)
}
