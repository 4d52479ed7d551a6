package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/copydesk/internal/config"
	"github.com/set-night/copydesk/internal/domain"
)

// TelegramLogger posts operational events to topics of a log chat.
type TelegramLogger struct {
	bot *bot.Bot
	cfg *config.Config
}

func NewTelegramLogger(b *bot.Bot, cfg *config.Config) *TelegramLogger {
	return &TelegramLogger{bot: b, cfg: cfg}
}

// SetBot attaches the bot once it exists. Must be called before the bot starts.
func (l *TelegramLogger) SetBot(b *bot.Bot) {
	l.bot = b
}

type LogType string

const (
	LogTypeError        LogType = "error"
	LogTypeRegistration LogType = "registration"
	LogTypeSessionSaved LogType = "sessionSaved"
)

func (l *TelegramLogger) Log(ctx context.Context, logType LogType, message string) {
	if l == nil || l.bot == nil || l.cfg.LogTelegramChatID == 0 {
		return
	}
	topicID := l.topicID(logType)
	if topicID == 0 {
		return
	}

	if r := []rune(message); len(r) > config.MaxTelegramMessageLen {
		message = string(r[:config.MaxTelegramMessageLen-20]) + "\n\n... (truncated)"
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	_, err := l.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          l.cfg.LogTelegramChatID,
		Text:            message,
		ParseMode:       models.ParseModeMarkdownV1,
		MessageThreadID: topicID,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to send telegram log", "type", logType, "error", err)
	}
}

func (l *TelegramLogger) LogError(ctx context.Context, where string, err error) {
	msg := fmt.Sprintf("❌ *Error*\n\n*Context:* %s\n*Error:* `%s`\n*Time:* %s",
		where, err.Error(), time.Now().Format(time.DateTime))
	l.Log(ctx, LogTypeError, msg)
}

func (l *TelegramLogger) LogRegistration(ctx context.Context, user *domain.User, username string) {
	msg := fmt.Sprintf("👤 *New Registration*\n\n*ID:* `%s`\n*Name:* %s", user.ID, user.Name)
	if username != "" {
		msg += "\n*Username:* @" + username
	}
	l.Log(ctx, LogTypeRegistration, msg)
}

// SessionSaved reports a transcript written at session teardown.
func (l *TelegramLogger) SessionSaved(ctx context.Context, rec *domain.ChatSession) {
	msg := fmt.Sprintf("💾 *Session Saved*\n\n*Tool:* %s\n*User:* `%s`\n*Messages:* %d",
		rec.ToolTitle, rec.UserID, len(rec.Messages))
	l.Log(ctx, LogTypeSessionSaved, msg)
}

func (l *TelegramLogger) topicID(logType LogType) int {
	switch logType {
	case LogTypeError:
		return l.cfg.LogTopicError
	case LogTypeRegistration:
		return l.cfg.LogTopicRegistration
	case LogTypeSessionSaved:
		return l.cfg.LogTopicSessionSaved
	default:
		return 0
	}
}
