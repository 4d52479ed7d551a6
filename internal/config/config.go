package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	// Storage
	StoreBackend string `env:"STORE_BACKEND" envDefault:"sqlite"`
	DatabaseURL  string `env:"DATABASE_URL"`
	SQLitePath   string `env:"SQLITE_PATH" envDefault:"copydesk.db"`

	// HTTP API
	HTTPAddr  string `env:"HTTP_ADDR" envDefault:":3001"`
	JWTSecret string `env:"JWT_SECRET"`

	// Telegram front end, disabled when empty
	BotToken           string  `env:"BOT_TOKEN"`
	AdminTelegramIDs   []int64 `env:"ADMIN_TELEGRAM_IDS" envSeparator:","`
	DropPendingUpdates bool    `env:"BOT_DROP_PENDING_UPDATES" envDefault:"false"`

	// Providers: a provider is configured iff its key is non-empty
	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	AnthropicKey     string `env:"ANTHROPIC_API_KEY"`
	AnthropicModel   string `env:"ANTHROPIC_MODEL" envDefault:"claude-3-sonnet-20240229"`
	AnthropicBaseURL string `env:"ANTHROPIC_BASE_URL" envDefault:"https://api.anthropic.com"`

	GrokKey     string `env:"XAI_API_KEY"`
	GrokModel   string `env:"XAI_MODEL" envDefault:"grok-2-latest"`
	GrokBaseURL string `env:"XAI_BASE_URL" envDefault:"https://api.x.ai/v1"`

	GeminiKey     string `env:"GEMINI_API_KEY"`
	GeminiModel   string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-pro"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL"`

	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"90s"`

	// Prices in USD per 1M tokens, keyed by provider name: "ChatGPT:30:60,Claude:3:15"
	Pricing []string `env:"PROVIDER_PRICING" envSeparator:","`

	// Sessions
	GreetingDelay  time.Duration `env:"GREETING_DELAY" envDefault:"1s"`
	QuestionDelay  time.Duration `env:"QUESTION_DELAY" envDefault:"800ms"`
	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`

	// Files
	UploadDir   string `env:"UPLOAD_DIR" envDefault:"uploads"`
	MaxFileSize int64  `env:"MAX_FILE_SIZE" envDefault:"10485760"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Telegram logging
	LogTelegramChatID    int64 `env:"LOG_TELEGRAM_CHAT_ID"`
	LogTopicError        int   `env:"LOG_TOPIC_ERROR"`
	LogTopicRegistration int   `env:"LOG_TOPIC_REGISTRATION"`
	LogTopicSessionSaved int   `env:"LOG_TOPIC_SESSION_SAVED"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return Parse()
}

func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("validate config: DATABASE_URL is required for the postgres backend")
		}
	case BackendSQLite:
	default:
		return fmt.Errorf("validate config: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("validate config: MAX_FILE_SIZE must be positive")
	}
	return nil
}

func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminTelegramIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

func (c *Config) AdminIDsString() string {
	parts := make([]string, len(c.AdminTelegramIDs))
	for i, id := range c.AdminTelegramIDs {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}
