package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/set-night/copydesk/internal/config"
	"github.com/set-night/copydesk/internal/domain"
)

// ChatCompletions speaks the OpenAI chat-completions protocol. It backs both
// ChatGPT and Grok, which exposes the same API under a different base URL.
type ChatCompletions struct {
	name   domain.ModelName
	model  string
	client *openai.Client
}

func NewChatCompletions(name domain.ModelName, apiKey, baseURL, model string) *ChatCompletions {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &ChatCompletions{
		name:   name,
		model:  model,
		client: openai.NewClientWithConfig(cfg),
	}
}

func (c *ChatCompletions) Name() domain.ModelName { return c.name }

func (c *ChatCompletions) Complete(ctx context.Context, req Request) Result {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.Instructions},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt()},
		},
		MaxTokens:   config.MaxOutputTokens,
		Temperature: config.DefaultTemperature,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return fail(FailureStatus, fmt.Sprintf("%s API error: %d", c.name, apiErr.HTTPStatusCode), err)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return fail(FailureStatus, fmt.Sprintf("%s API error: %d", c.name, reqErr.HTTPStatusCode), err)
		}
		return fail(FailureTransport, "create chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return fail(FailureMalformed, "no choices in response", nil)
	}
	return success(resp.Choices[0].Message.Content, Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	})
}
