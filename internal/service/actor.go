package service

import (
	"context"

	"github.com/google/uuid"
)

type actorKey struct{}

// WithActor records the user on whose behalf ctx is acting.
func WithActor(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

func ActorFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(actorKey{}).(uuid.UUID)
	return id, ok
}
