package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// ErrorReporter receives recovered panics.
type ErrorReporter interface {
	LogError(ctx context.Context, context string, err error)
}

// Recover returns middleware that recovers from panics. reporter may be nil.
func Recover(reporter ErrorReporter) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			defer func() {
				if r := recover(); r != nil {
					slog.ErrorContext(ctx, "panic recovered in handler",
						"panic", r,
						"stack", string(debug.Stack()),
					)
					if reporter != nil {
						reporter.LogError(ctx, "panic", fmt.Errorf("%v", r))
					}
				}
			}()
			next(ctx, b, update)
		}
	}
}
