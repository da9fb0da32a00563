package auth

import (
	"context"

	"github.com/nichegen/nichegen/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// identityContextKey is the context key for storing the resolved Identity.
const identityContextKey contextKey = "identity"

// ContextWithIdentity adds the resolved identity to the context.
func ContextWithIdentity(ctx context.Context, id *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext retrieves the identity from the context.
// Returns nil for anonymous callers.
func IdentityFromContext(ctx context.Context) *model.Identity {
	id, ok := ctx.Value(identityContextKey).(*model.Identity)
	if !ok {
		return nil
	}
	return id
}

// UserIDFromContext is a convenience function to get the user ID from context.
// Returns empty string if the caller is anonymous.
func UserIDFromContext(ctx context.Context) string {
	id := IdentityFromContext(ctx)
	if id == nil {
		return ""
	}
	return id.UserID
}
