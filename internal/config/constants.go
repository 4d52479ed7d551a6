package config

import "time"

const (
	// Telegram limits
	MaxTelegramMessageLen = 4096

	// Catalog cache duration
	CatalogCacheDuration = 5 * time.Minute

	// Live session janitor interval
	SessionSweepInterval = 60 * time.Second

	// Provider request limits
	MaxOutputTokens = 4000

	// Default sampling temperature for chat-completion providers
	DefaultTemperature = 0.7

	// Length of the text preview returned after an upload
	UploadPreviewLen = 500

	// Tools and sessions per page in the bot
	ToolsPerPage    = 6
	SessionsPerPage = 5

	// Bot rate limit: messages per minute per chat
	RateLimitPerMinute = 12

	// Websocket keepalive
	WSPingPeriod = 30 * time.Second
	WSWriteWait  = 10 * time.Second
	WSPongWait   = 60 * time.Second
)

// AllowedUploadTypes maps accepted file extensions to their MIME type.
var AllowedUploadTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".html": "text/html",
	".htm":  "text/html",
}
