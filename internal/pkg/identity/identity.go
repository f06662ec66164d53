// internal/pkg/identity/identity.go
package identity

import (
	"context"

	"github.com/elsharkawy159/tallaby-sub003/internal/domain/cart"
)

type ctxKey struct{}

// WithUser binds the authenticated user to the request context
func WithUser(ctx context.Context, user *cart.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// UserFromContext returns the authenticated user, or nil for guests
func UserFromContext(ctx context.Context) *cart.User {
	user, _ := ctx.Value(ctxKey{}).(*cart.User)
	return user
}

// ContextProvider resolves the current user from the request context.
// The auth middleware populates it; anonymous requests resolve to nil.
type ContextProvider struct{}

// CurrentUser implements cart.IdentityProvider
func (ContextProvider) CurrentUser(ctx context.Context) (*cart.User, error) {
	return UserFromContext(ctx), nil
}

// StaticProvider always reports the same user. Used where the actor
// is fixed for the lifetime of the engine, and in tests.
type StaticProvider struct {
	User *cart.User
}

// CurrentUser implements cart.IdentityProvider
func (p StaticProvider) CurrentUser(ctx context.Context) (*cart.User, error) {
	return p.User, nil
}
