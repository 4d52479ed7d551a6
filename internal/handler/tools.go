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

const toolCallbackPrefix = "tool_"

var toolsPager = tg.Pager{Prefix: "tools_page", PerPage: config.ToolsPerPage}

func (h *Handler) handleTools(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != "private" {
		return
	}
	h.sendToolsPage(ctx, b, update.Message.Chat.ID, 0, false, 0)
}

func (h *Handler) handleToolsPage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID})

	page := toolsPager.Page(update.CallbackQuery.Data)
	if chatID, messageID, ok := callbackChat(update); ok {
		h.sendToolsPage(ctx, b, chatID, page, true, messageID)
	}
}

func (h *Handler) sendToolsPage(ctx context.Context, b *bot.Bot, chatID int64, page int, edit bool, messageID int) {
	tools, err := h.catalog.ListTools(ctx, domain.ToolFilter{})
	if err != nil {
		slog.ErrorContext(ctx, "list tools", "error", err)
		tg.SendText(ctx, b, chatID, "❌ Could not load the tool list.")
		return
	}
	if len(tools) == 0 {
		tg.SendText(ctx, b, chatID, "No tools are available yet.")
		return
	}

	start, end, page, totalPages := toolsPager.Window(len(tools), page)

	var sb strings.Builder
	sb.WriteString("🧰 *Choose a tool:*\n\n")

	var items []tg.ListItem
	for _, t := range tools[start:end] {
		star := ""
		if t.Featured {
			star = "⭐ "
		}
		sb.WriteString(fmt.Sprintf("%s*%s*", star, tg.EscapeMarkdown(t.Title)))
		if t.CategoryName != "" {
			sb.WriteString(fmt.Sprintf(" · _%s_", tg.EscapeMarkdown(t.CategoryName)))
		}
		sb.WriteString("\n")
		if t.Description != "" {
			sb.WriteString(tg.EscapeMarkdown(truncate(t.Description, 120)) + "\n")
		}
		sb.WriteString("\n")

		items = append(items, tg.ListItem{
			Label: star + truncate(t.Title, 40),
			Data:  toolCallbackPrefix + t.ID.String(),
		})
	}
	keyboard := toolsPager.Keyboard(items, page, totalPages)

	if edit && messageID != 0 {
		b.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:      chatID,
			MessageID:   messageID,
			Text:        sb.String(),
			ParseMode:   models.ParseModeMarkdownV1,
			ReplyMarkup: keyboard,
		})
		return
	}
	tg.SendLongMessage(ctx, b, chatID, sb.String(), keyboard)
}

// handleToolSelect closes the chat's current session, saving it, and opens a new one on the chosen tool.
func (h *Handler) handleToolSelect(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}
	chatID, _, ok := callbackChat(update)
	if !ok {
		return
	}

	toolID, err := uuid.Parse(strings.TrimPrefix(update.CallbackQuery.Data, toolCallbackPrefix))
	if err != nil {
		b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: update.CallbackQuery.ID,
			Text:            "Unknown tool",
		})
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID})

	if current, ok := h.sessions.Current(user.ID); ok {
		if _, err := h.sessions.Teardown(ctx, user.ID, current.ID()); err != nil {
			slog.WarnContext(ctx, "teardown previous session", "session_id", current.ID(), "error", err)
		}
	}

	cancel := tg.StartTyping(ctx, b, chatID)
	s, err := h.sessions.Activate(ctx, user.ID, toolID, nil)
	cancel()
	if err != nil {
		if errors.Is(err, domain.ErrToolNotFound) {
			tg.SendText(ctx, b, chatID, "❌ This tool is no longer available. Use /tools to pick another one.")
			return
		}
		h.reportError(ctx, b, chatID, "activate session", err)
		return
	}

	h.sendNewMessages(ctx, b, chatID, s, 0)
}

// paginate clamps page into range and returns the slice bounds for it.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
