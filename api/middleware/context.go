package middleware

import (
	"context"

	"github.com/angelmondragon/sweetshop-backend/pkg/auth"
)

type actorKey struct{}

// WithActor stores the authenticated actor on ctx.
func WithActor(ctx context.Context, actor auth.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor set by Auth.
func ActorFromContext(ctx context.Context) (auth.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(auth.Actor)
	return actor, ok
}

// SessionIDFromContext returns the caller's login session, or "" before Auth.
func SessionIDFromContext(ctx context.Context) string {
	actor, _ := ActorFromContext(ctx)
	return actor.SessionID
}
