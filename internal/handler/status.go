package handler

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/copydesk/internal/domain"
	tg "github.com/set-night/copydesk/internal/telegram"
)

func (h *Handler) handleStatus(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	tg.SendLongMessage(ctx, b, update.Message.Chat.ID, formatStatus(h.gateway.Status()), nil)
}

func formatStatus(status map[domain.ModelName]bool) string {
	var sb strings.Builder
	sb.WriteString("🛰 *Providers*\n\n")
	for _, name := range domain.KnownModels {
		mark := "⚪️ not configured"
		if status[name] {
			mark = "🟢 available"
		}
		sb.WriteString(string(name) + ": " + mark + "\n")
	}
	return sb.String()
}
