package handler

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	tg "github.com/set-night/copydesk/internal/telegram"
)

// Register wires all command, callback and message handlers into the bot.
func (h *Handler) Register() {
	// Commands
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, h.handleStart)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, h.handleStart)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/tools", bot.MatchTypePrefix, h.handleTools)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/retry", bot.MatchTypePrefix, h.handleRetry)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/end", bot.MatchTypePrefix, h.handleEnd)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/history", bot.MatchTypePrefix, h.handleHistory)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/status", bot.MatchTypePrefix, h.handleStatus)

	// Tool callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, toolCallbackPrefix, bot.MatchTypePrefix, h.handleToolSelect)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, toolsPager.MatchPrefix(), bot.MatchTypePrefix, h.handleToolsPage)

	// Session callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, callbackRetry, bot.MatchTypeExact, h.handleRetryCallback)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, callbackEnd, bot.MatchTypeExact, h.handleEndCallback)

	// History callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, historyCallbackPrefix, bot.MatchTypePrefix, h.handleHistoryOpen)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, historyPager.MatchPrefix(), bot.MatchTypePrefix, h.handleHistoryPage)

	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.NoopCallback, bot.MatchTypeExact, h.handleNoop)

	// Documents carry no text, so they need a match func
	h.bot.RegisterHandlerMatchFunc(isDocument, h.handleDocument)

	// Everything else that is plain text answers the live session
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil || strings.HasPrefix(update.Message.Text, "/") {
			return
		}
		h.handleText(ctx, b, update)
	})
}

func isDocument(update *models.Update) bool {
	return update.Message != nil && update.Message.Document != nil
}

func (h *Handler) handleNoop(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
	})
}

// callbackChat returns the chat and message a callback was pressed in.
func callbackChat(update *models.Update) (chatID int64, messageID int, ok bool) {
	msg := update.CallbackQuery.Message.Message
	if msg == nil {
		return 0, 0, false
	}
	return msg.Chat.ID, msg.ID, true
}
