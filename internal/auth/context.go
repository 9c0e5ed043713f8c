package auth

import (
	"context"

	"github.com/clipstream/clipstream/internal/model"
)

// contextKey keeps this package's context values collision-free.
type contextKey string

const authContextKey contextKey = "auth_context"

// ContextWithAuth stores the caller's AuthContext on the context.
func ContextWithAuth(ctx context.Context, ac *model.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, ac)
}

// AuthFromContext returns the caller's AuthContext, or nil when the
// request did not pass authentication.
func AuthFromContext(ctx context.Context) *model.AuthContext {
	ac, _ := ctx.Value(authContextKey).(*model.AuthContext)
	return ac
}

// MustAuthFromContext is AuthFromContext for handlers that sit behind
// the auth middleware; a missing context is a wiring bug and panics.
func MustAuthFromContext(ctx context.Context) *model.AuthContext {
	ac := AuthFromContext(ctx)
	if ac == nil {
		panic("auth context not found - ensure auth middleware is applied")
	}
	return ac
}

// ServiceIDFromContext returns the authenticated service's ID, or ""
// for unauthenticated requests.
func ServiceIDFromContext(ctx context.Context) string {
	if ac := AuthFromContext(ctx); ac != nil {
		return ac.ServiceID
	}
	return ""
}

// KeyIDFromContext returns the authenticated key's ID, or "" for
// unauthenticated requests.
func KeyIDFromContext(ctx context.Context) string {
	if ac := AuthFromContext(ctx); ac != nil {
		return ac.KeyID
	}
	return ""
}
