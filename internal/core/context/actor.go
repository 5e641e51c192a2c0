// Package context provides request-scoped values extraction.
package context

import (
	"context"

	"stoka/internal/core/id"
)

// Actor identifies who performs an operation. It is always passed
// explicitly by the caller that authenticated the request; nothing in this
// package reaches into ambient global state.
type Actor struct {
	UserID    id.ID
	TenantID  id.ID
	Email     string
	Roles     []string
	SessionID string
}

type actorContextKey struct{}

// WithActor adds Actor to context.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// GetActor returns Actor from context or nil.
func GetActor(ctx context.Context) *Actor {
	if v, ok := ctx.Value(actorContextKey{}).(*Actor); ok {
		return v
	}
	return nil
}

// GetUserID returns the acting user ID from context or the nil ID.
func GetUserID(ctx context.Context) id.ID {
	if a := GetActor(ctx); a != nil {
		return a.UserID
	}
	return id.Nil()
}

// GetTenantID returns the acting tenant ID from context or the nil ID.
func GetTenantID(ctx context.Context) id.ID {
	if a := GetActor(ctx); a != nil {
		return a.TenantID
	}
	return id.Nil()
}

// HasRole checks if the actor carries a specific role code.
func HasRole(ctx context.Context, role string) bool {
	a := GetActor(ctx)
	if a == nil {
		return false
	}
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}
