package handler

import (
	"github.com/go-telegram/bot"
	"github.com/set-night/copydesk/internal/config"
	"github.com/set-night/copydesk/internal/service"
	"github.com/set-night/copydesk/internal/telegram"
)

// Handler holds all dependencies needed by command and callback handlers.
type Handler struct {
	bot      *bot.Bot
	cfg      *config.Config
	catalog  *service.CatalogService
	sessions *service.SessionManager
	history  *service.HistoryService
	gateway  *service.Gateway
	tgLogger *telegram.TelegramLogger
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot      *bot.Bot
	Cfg      *config.Config
	Catalog  *service.CatalogService
	Sessions *service.SessionManager
	History  *service.HistoryService
	Gateway  *service.Gateway
	TgLogger *telegram.TelegramLogger
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:      deps.Bot,
		cfg:      deps.Cfg,
		catalog:  deps.Catalog,
		sessions: deps.Sessions,
		history:  deps.History,
		gateway:  deps.Gateway,
		tgLogger: deps.TgLogger,
	}
}
