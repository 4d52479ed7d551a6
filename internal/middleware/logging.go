package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/copydesk/internal/logging"
)

// chatOf returns the chat and sender of an update.
func chatOf(update *models.Update) (updateType string, chatID, userID int64) {
	switch {
	case update.Message != nil:
		updateType = "message"
		chatID = update.Message.Chat.ID
		if update.Message.From != nil {
			userID = update.Message.From.ID
		}
	case update.CallbackQuery != nil:
		updateType = "callback_query"
		if update.CallbackQuery.Message.Message != nil {
			chatID = update.CallbackQuery.Message.Message.Chat.ID
		}
		userID = update.CallbackQuery.From.ID
	default:
		updateType = "unknown"
	}
	return updateType, chatID, userID
}

// Logging returns middleware that tags the context with the chat and logs update processing time.
func Logging() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			start := time.Now()
			updateType, chatID, userID := chatOf(update)

			ctx = logging.WithAttrs(ctx,
				slog.Int64("chat_id", chatID),
				slog.Int64("telegram_user_id", userID),
			)

			next(ctx, b, update)

			slog.DebugContext(ctx, "update processed",
				"type", updateType,
				"duration", time.Since(start),
			)
		}
	}
}
