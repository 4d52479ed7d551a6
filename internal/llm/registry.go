package llm

import (
	"github.com/set-night/copydesk/internal/config"
	"github.com/set-night/copydesk/internal/domain"
)

// FromConfig builds an adapter for every provider that has a non-empty key.
func FromConfig(cfg *config.Config) []Provider {
	var providers []Provider
	if cfg.OpenAIKey != "" {
		providers = append(providers, NewChatCompletions(domain.ModelChatGPT, cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel))
	}
	if cfg.AnthropicKey != "" {
		providers = append(providers, NewAnthropic(cfg.AnthropicKey, cfg.AnthropicBaseURL, cfg.AnthropicModel, cfg.ProviderTimeout))
	}
	if cfg.GrokKey != "" {
		providers = append(providers, NewChatCompletions(domain.ModelGrok, cfg.GrokKey, cfg.GrokBaseURL, cfg.GrokModel))
	}
	if cfg.GeminiKey != "" {
		providers = append(providers, NewGemini(cfg.GeminiKey, cfg.GeminiBaseURL, cfg.GeminiModel))
	}
	return providers
}
