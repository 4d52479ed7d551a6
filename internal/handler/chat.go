package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/copydesk/internal/chatflow"
	"github.com/set-night/copydesk/internal/document"
	"github.com/set-night/copydesk/internal/domain"
	"github.com/set-night/copydesk/internal/middleware"
	tg "github.com/set-night/copydesk/internal/telegram"
)

const (
	callbackRetry = "retry"
	callbackEnd   = "end"
)

const noSessionText = "There is no active session. Use /tools to pick a tool."

func (h *Handler) handleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg.Chat.Type != "private" {
		return
	}
	h.submit(ctx, b, msg.Chat.ID, msg.Text, nil)
}

// handleDocument stages an attached file for the current turn. The caption, if any, is the message text.
func (h *Handler) handleDocument(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg.Chat.Type != "private" {
		return
	}
	doc := msg.Document

	mimeType, err := document.Validate(doc.FileName, doc.FileSize, h.cfg.MaxFileSize)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrFileTooLarge):
			tg.SendText(ctx, b, msg.Chat.ID, fmt.Sprintf("❌ The file is too large. The limit is %d MB.", h.cfg.MaxFileSize>>20))
		default:
			tg.SendText(ctx, b, msg.Chat.ID, "❌ Unsupported file type. Send PDF, DOC, DOCX, TXT, MD or HTML.")
		}
		return
	}

	data, err := tg.DownloadFile(ctx, b, doc.FileID, h.cfg.MaxFileSize)
	if err != nil {
		h.reportError(ctx, b, msg.Chat.ID, "download document", err)
		return
	}

	h.submit(ctx, b, msg.Chat.ID, msg.Caption, &chatflow.Attachment{
		Name:     doc.FileName,
		MimeType: mimeType,
		Data:     data,
	})
}

func (h *Handler) submit(ctx context.Context, b *bot.Bot, chatID int64, text string, att *chatflow.Attachment) {
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}
	current, ok := h.sessions.Current(user.ID)
	if !ok {
		tg.SendText(ctx, b, chatID, noSessionText)
		return
	}

	before := len(current.Transcript())
	cancel := tg.StartTyping(ctx, b, chatID)
	s, err := h.sessions.Submit(ctx, user.ID, current.ID(), text, att)
	cancel()
	if err != nil {
		h.replySessionError(ctx, b, chatID, "submit message", err)
		return
	}
	h.sendNewMessages(ctx, b, chatID, s, before)
}

func (h *Handler) handleRetry(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != "private" {
		return
	}
	h.retry(ctx, b, update.Message.Chat.ID)
}

func (h *Handler) handleRetryCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID})
	if chatID, _, ok := callbackChat(update); ok {
		h.retry(ctx, b, chatID)
	}
}

func (h *Handler) retry(ctx context.Context, b *bot.Bot, chatID int64) {
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}
	current, ok := h.sessions.Current(user.ID)
	if !ok {
		tg.SendText(ctx, b, chatID, noSessionText)
		return
	}

	before := len(current.Transcript())
	cancel := tg.StartTyping(ctx, b, chatID)
	s, err := h.sessions.Retry(ctx, user.ID, current.ID())
	cancel()
	if err != nil {
		h.replySessionError(ctx, b, chatID, "retry", err)
		return
	}
	h.sendNewMessages(ctx, b, chatID, s, before)
}

func (h *Handler) handleEnd(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != "private" {
		return
	}
	h.end(ctx, b, update.Message.Chat.ID)
}

func (h *Handler) handleEndCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID})
	if chatID, _, ok := callbackChat(update); ok {
		h.end(ctx, b, chatID)
	}
}

func (h *Handler) end(ctx context.Context, b *bot.Bot, chatID int64) {
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}
	current, ok := h.sessions.Current(user.ID)
	if !ok {
		tg.SendText(ctx, b, chatID, noSessionText)
		return
	}

	saved, err := h.sessions.Teardown(ctx, user.ID, current.ID())
	if err != nil {
		h.replySessionError(ctx, b, chatID, "end session", err)
		return
	}
	if saved {
		tg.SendText(ctx, b, chatID, "✅ Session finished and saved to /history.")
		return
	}
	tg.SendText(ctx, b, chatID, "🔄 Session closed. Nothing was saved because it had no answers yet.")
}

// sendNewMessages delivers the assistant messages appended after index from.
// Once the session is complete the last one carries the retry/finish keyboard.
func (h *Handler) sendNewMessages(ctx context.Context, b *bot.Bot, chatID int64, s *chatflow.Session, from int) {
	transcript := s.Transcript()
	if from > len(transcript) {
		return
	}
	fresh := assistantMessages(transcript[from:])

	var markup models.ReplyMarkup
	if s.State() == chatflow.StateComplete {
		markup = tg.ActionKeyboard(
			tg.Button("🔁 Regenerate", callbackRetry),
			tg.Button("✅ Finish", callbackEnd),
		)
	}

	for i, m := range fresh {
		var kb models.ReplyMarkup
		if i == len(fresh)-1 {
			kb = markup
		}
		if err := tg.SendLongMessage(ctx, b, chatID, m.Text, kb); err != nil {
			slog.ErrorContext(ctx, "send assistant message", "error", err)
			return
		}
	}
}

func assistantMessages(msgs []domain.Message) []domain.Message {
	var out []domain.Message
	for _, m := range msgs {
		if m.Role == domain.RoleAssistant {
			out = append(out, m)
		}
	}
	return out
}

func (h *Handler) replySessionError(ctx context.Context, b *bot.Bot, chatID int64, where string, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionBusy):
		tg.SendText(ctx, b, chatID, "⏳ Still working on the previous message, please wait.")
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrSessionClosed):
		tg.SendText(ctx, b, chatID, noSessionText)
	case errors.Is(err, domain.ErrInvalidInput):
		tg.SendText(ctx, b, chatID, "Send some text or attach a document.")
	case errors.Is(err, domain.ErrNothingToRetry):
		tg.SendText(ctx, b, chatID, "There is nothing to regenerate yet. Answer the questions first.")
	default:
		h.reportError(ctx, b, chatID, where, err)
	}
}

func (h *Handler) reportError(ctx context.Context, b *bot.Bot, chatID int64, where string, err error) {
	slog.ErrorContext(ctx, where, "error", err)
	h.tgLogger.LogError(ctx, where, err)
	tg.SendText(ctx, b, chatID, "❌ Something went wrong. Please try again.")
}
