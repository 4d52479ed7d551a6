package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-telegram/bot"
	"github.com/set-night/copydesk/internal/config"
	"github.com/set-night/copydesk/internal/document"
	"github.com/set-night/copydesk/internal/handler"
	"github.com/set-night/copydesk/internal/httpapi"
	"github.com/set-night/copydesk/internal/llm"
	"github.com/set-night/copydesk/internal/middleware"
	"github.com/set-night/copydesk/internal/repository"
	"github.com/set-night/copydesk/internal/service"
	"github.com/set-night/copydesk/internal/telegram"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, when BOT_TOKEN is set, the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, store, err := setup(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			return serve(ctx, cfg, store)
		},
	}
}

type services struct {
	users    *service.UserService
	catalog  *service.CatalogService
	projects *service.ProjectService
	history  *service.HistoryService
	files    *service.FileService
	gateway  *service.Gateway
	stats    *service.StatsService
	sessions *service.SessionManager
}

func newServices(cfg *config.Config, store repository.Store) (*services, error) {
	pricing, err := service.ParsePricing(cfg.Pricing)
	if err != nil {
		return nil, err
	}
	providers := llm.FromConfig(cfg)
	if len(providers) == 0 {
		slog.Warn("no AI provider keys configured, generation requests will fail")
	}

	reader := document.NewReader()
	s := &services{
		users:    service.NewUserService(store),
		catalog:  service.NewCatalogService(store),
		projects: service.NewProjectService(store),
		files:    service.NewFileService(store, reader, cfg.UploadDir, cfg.MaxFileSize),
		gateway:  service.NewGateway(providers, pricing, store),
		stats:    service.NewStatsService(store),
	}
	s.history = service.NewHistoryService(store, store, s.projects)
	s.sessions = service.NewSessionManager(s.catalog, s.projects, s.gateway, reader, s.history, service.SessionOptions{
		GreetingDelay: cfg.GreetingDelay,
		QuestionDelay: cfg.QuestionDelay,
		IdleTTL:       cfg.SessionIdleTTL,
	})
	return s, nil
}

func serve(ctx context.Context, cfg *config.Config, store repository.Store) error {
	svc, err := newServices(cfg, store)
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET is empty, authenticated HTTP routes will reject every token")
	}

	var b *bot.Bot
	if cfg.BotToken != "" {
		if b, err = newBot(ctx, cfg, svc); err != nil {
			return err
		}
	} else {
		slog.Info("BOT_TOKEN is empty, telegram front end disabled")
	}

	g, ctx := errgroup.WithContext(ctx)

	// HTTP API
	e := httpapi.NewServer(httpapi.NewHandler(httpapi.Deps{
		Cfg:      cfg,
		Users:    svc.users,
		Catalog:  svc.catalog,
		Sessions: svc.sessions,
		History:  svc.history,
		Projects: svc.projects,
		Files:    svc.files,
		Gateway:  svc.gateway,
		Stats:    svc.stats,
	}))
	g.Go(func() error {
		slog.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	// Telegram bot
	if b != nil {
		g.Go(func() error {
			b.Start(ctx)
			slog.Info("bot stopped gracefully")
			return nil
		})
	}

	// Idle session janitor
	g.Go(func() error {
		ticker := time.NewTicker(config.SessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if n := svc.sessions.Sweep(context.Background()); n > 0 {
					slog.Info("idle sessions swept", "count", n)
				}
			}
		}
	})

	err = g.Wait()

	// Live transcripts are saved before the store closes
	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	svc.sessions.Close(closeCtx)
	slog.Info("server stopped")
	return err
}

func newBot(ctx context.Context, cfg *config.Config, svc *services) (*bot.Bot, error) {
	tgLogger := telegram.NewTelegramLogger(nil, cfg)

	b, err := bot.New(cfg.BotToken,
		bot.WithMiddlewares(
			middleware.Recover(tgLogger),
			middleware.Logging(),
			middleware.RateLimit(middleware.NewChatLimiter(config.RateLimitPerMinute)),
			middleware.UserLoader(svc.users, cfg, tgLogger),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	tgLogger.SetBot(b)
	svc.history.SetNotifier(tgLogger)

	// Get bot info
	me, err := b.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("get bot info: %w", err)
	}
	slog.Info("bot info retrieved", "id", me.ID, "username", me.Username, "admins", cfg.AdminIDsString())

	if cfg.DropPendingUpdates {
		if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
			slog.Warn("failed to drop pending updates", "error", err)
		}
	}

	handler.New(handler.Deps{
		Bot:      b,
		Cfg:      cfg,
		Catalog:  svc.catalog,
		Sessions: svc.sessions,
		History:  svc.history,
		Gateway:  svc.gateway,
		TgLogger: tgLogger,
	}).Register()

	return b, nil
}
