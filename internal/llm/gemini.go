package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/set-night/copydesk/internal/config"
	"github.com/set-night/copydesk/internal/domain"
	"google.golang.org/genai"
)

// Gemini uses the Gen AI SDK. The client is created on first use because
// construction needs a context.
type Gemini struct {
	apiKey  string
	baseURL string
	model   string

	once    sync.Once
	client  *genai.Client
	initErr error
}

func NewGemini(apiKey, baseURL, model string) *Gemini {
	return &Gemini{apiKey: apiKey, baseURL: baseURL, model: model}
}

func (g *Gemini) Name() domain.ModelName { return domain.ModelGemini }

func (g *Gemini) init(ctx context.Context) error {
	g.once.Do(func() {
		cc := &genai.ClientConfig{
			APIKey:  g.apiKey,
			Backend: genai.BackendGeminiAPI,
		}
		if g.baseURL != "" {
			cc.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
		}
		g.client, g.initErr = genai.NewClient(ctx, cc)
	})
	return g.initErr
}

func (g *Gemini) Complete(ctx context.Context, req Request) Result {
	if err := g.init(ctx); err != nil {
		return fail(FailureTransport, "create genai client", err)
	}

	temperature := float32(config.DefaultTemperature)
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: config.MaxOutputTokens,
	}
	if req.Instructions != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.Instructions, genai.RoleUser)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(req.Prompt(), genai.RoleUser),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return fail(FailureTransport, fmt.Sprintf("Gemini API error (%s)", g.model), err)
	}

	var usage Usage
	if resp.UsageMetadata != nil {
		usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return success(resp.Text(), usage)
}
