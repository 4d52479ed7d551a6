package handler

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/copydesk/internal/middleware"
	tg "github.com/set-night/copydesk/internal/telegram"
)

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != "private" {
		return
	}

	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}

	welcomeText := fmt.Sprintf(
		"👋 Hi, *%s*!\n\n"+
			"I run copywriting tools: pick one, answer a few questions and I'll draft the text. "+
			"Once it's done you can keep asking for revisions.\n\n"+
			"📋 *Commands:*\n"+
			"/tools — Pick a tool\n"+
			"/retry — Regenerate the last answer\n"+
			"/end — Finish and save the current session\n"+
			"/history — Saved sessions\n"+
			"/status — Which AI providers are available\n\n"+
			"📎 You can attach a document (pdf, docx, txt, md, html) to any message.",
		displayName(user.Name),
	)

	tg.SendLongMessage(ctx, b, update.Message.Chat.ID, welcomeText, tg.ActionKeyboard(
		tg.Button("🧰 Browse tools", toolsPager.Data(0)),
	))
}

func displayName(name string) string {
	if name == "" {
		return "there"
	}
	return tg.EscapeMarkdown(name)
}
