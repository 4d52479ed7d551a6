package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/copydesk/internal/domain"
	"github.com/set-night/copydesk/internal/logging"
	"github.com/set-night/copydesk/internal/service"
)

type ctxKey string

const UserKey ctxKey = "user"

// GetUser extracts user from context.
func GetUser(ctx context.Context) *domain.User {
	u, ok := ctx.Value(UserKey).(*domain.User)
	if !ok {
		return nil
	}
	return u
}

// WithUser stores u in ctx the way UserLoader does.
func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, UserKey, u)
}

// RegistrationReporter is told about users created on first contact.
type RegistrationReporter interface {
	LogRegistration(ctx context.Context, user *domain.User, username string)
}

// UserLoader returns middleware that loads the sender into context, creating the account on first contact.
// Deactivated users are dropped.
func UserLoader(users *service.UserService, cfg interface{ IsAdmin(int64) bool }, reporter RegistrationReporter) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			var from *models.User
			if update.Message != nil {
				from = update.Message.From
			} else if update.CallbackQuery != nil {
				from = &update.CallbackQuery.From
			}

			if from == nil {
				next(ctx, b, update)
				return
			}

			name := strings.TrimSpace(from.FirstName + " " + from.LastName)
			user, created, err := users.FindOrCreateByTelegram(ctx, from.ID, name, cfg.IsAdmin(from.ID))
			if err != nil {
				slog.ErrorContext(ctx, "load user", "telegram_id", from.ID, "error", err)
				return
			}
			if !user.Active {
				slog.InfoContext(ctx, "ignoring deactivated user", "user_id", user.ID)
				return
			}
			if created && reporter != nil {
				reporter.LogRegistration(ctx, user, from.Username)
			}

			ctx = WithUser(ctx, user)
			ctx = service.WithActor(ctx, user.ID)
			ctx = logging.WithAttrs(ctx, slog.String("user_id", user.ID.String()))
			next(ctx, b, update)
		}
	}
}
