package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/internal/policy"
	"github.com/freshcart/freshcart-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// ActorFromContext rebuilds the authenticated actor. ok is false when the request
// carried no usable identity.
func ActorFromContext(ctx context.Context) (policy.Actor, bool) {
	id, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil || id == uuid.Nil {
		return policy.Actor{}, false
	}
	role := enums.Role(RoleFromContext(ctx))
	if !role.IsValid() {
		return policy.Actor{}, false
	}
	return policy.Actor{UserID: id, Role: role}, true
}

// WithActor injects the actor identity into the context.
func WithActor(ctx context.Context, actor policy.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, actor.UserID.String())
	return context.WithValue(ctx, ctxRole, actor.Role.String())
}
