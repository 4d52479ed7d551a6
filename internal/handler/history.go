package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/set-night/copydesk/internal/config"
	"github.com/set-night/copydesk/internal/domain"
	"github.com/set-night/copydesk/internal/middleware"
	tg "github.com/set-night/copydesk/internal/telegram"
)

const historyCallbackPrefix = "hist_"

var historyPager = tg.Pager{Prefix: "history_page", PerPage: config.SessionsPerPage}

func (h *Handler) handleHistory(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != "private" {
		return
	}
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}
	h.sendHistoryPage(ctx, b, update.Message.Chat.ID, user, 0, false, 0)
}

func (h *Handler) handleHistoryPage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID})

	page := historyPager.Page(update.CallbackQuery.Data)
	if chatID, messageID, ok := callbackChat(update); ok {
		h.sendHistoryPage(ctx, b, chatID, user, page, true, messageID)
	}
}

func (h *Handler) sendHistoryPage(ctx context.Context, b *bot.Bot, chatID int64, user *domain.User, page int, edit bool, messageID int) {
	sessions, err := h.history.List(ctx, user.ID, nil)
	if err != nil {
		slog.ErrorContext(ctx, "list saved sessions", "error", err)
		tg.SendText(ctx, b, chatID, "❌ Could not load your history.")
		return
	}
	if len(sessions) == 0 {
		tg.SendText(ctx, b, chatID, "📂 No saved sessions yet. Finish a session with /end to keep it here.")
		return
	}

	start, end, page, totalPages := historyPager.Window(len(sessions), page)

	text := fmt.Sprintf("📂 *Saved sessions* (%d)\n\nTap one to read it.", len(sessions))

	items := make([]tg.ListItem, 0, end-start)
	for _, s := range sessions[start:end] {
		items = append(items, tg.ListItem{
			Label: fmt.Sprintf("%s · %s", s.CreatedAt.Local().Format("02.01 15:04"), truncate(s.ToolTitle, 30)),
			Data:  historyCallbackPrefix + s.ID.String(),
		})
	}
	keyboard := historyPager.Keyboard(items, page, totalPages)

	if edit && messageID != 0 {
		b.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:      chatID,
			MessageID:   messageID,
			Text:        text,
			ParseMode:   models.ParseModeMarkdownV1,
			ReplyMarkup: keyboard,
		})
		return
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeMarkdownV1,
		ReplyMarkup: keyboard,
	})
}

func (h *Handler) handleHistoryOpen(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID})
	chatID, _, ok := callbackChat(update)
	if !ok {
		return
	}

	id, err := uuid.Parse(strings.TrimPrefix(update.CallbackQuery.Data, historyCallbackPrefix))
	if err != nil {
		return
	}
	s, err := h.history.Get(ctx, user.ID, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			tg.SendText(ctx, b, chatID, "❌ This session no longer exists.")
			return
		}
		h.reportError(ctx, b, chatID, "get saved session", err)
		return
	}

	if err := tg.SendLongMessage(ctx, b, chatID, formatTranscript(s), nil); err != nil {
		slog.ErrorContext(ctx, "send transcript", "session_id", s.ID, "error", err)
	}
}

func formatTranscript(s *domain.ChatSession) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📝 *%s* · %s\n\n", tg.EscapeMarkdown(s.ToolTitle), s.CreatedAt.Local().Format("02.01.2006 15:04")))
	for _, m := range s.Messages {
		who := "🤖"
		if m.Role == domain.RoleUser {
			who = "👤"
		}
		sb.WriteString(who + " ")
		if m.File != nil {
			sb.WriteString(fmt.Sprintf("📎 %s ", tg.EscapeMarkdown(m.File.Name)))
		}
		sb.WriteString(m.Text)
		sb.WriteString("\n\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
