// internal/domain/cart/session.go
package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// SessionManager owns the anonymous session token for one actor. The
// token is created lazily on first use, persisted in local storage,
// and returned unchanged until explicitly cleared.
type SessionManager struct {
	kv      KeyValueStorage
	slotKey string
}

// NewSessionManager creates a session manager scoped to one actor.
// The scope is typically the browser session cookie value; tests use
// a fixed string.
func NewSessionManager(kv KeyValueStorage, scope string) *SessionManager {
	return &SessionManager{
		kv:      kv,
		slotKey: fmt.Sprintf("cart:session:token:%s", scope),
	}
}

// Token returns the current session token, generating and persisting
// one first if none exists. Creation is idempotent: concurrent-free
// callers always observe the same token until Clear.
func (m *SessionManager) Token(ctx context.Context) (string, error) {
	token, ok, err := m.kv.Get(ctx, m.slotKey)
	if err != nil {
		return "", fmt.Errorf("failed to read session token: %w", err)
	}
	if ok && token != "" {
		return token, nil
	}

	token = uuid.New().String()
	if err := m.kv.Set(ctx, m.slotKey, token, 0); err != nil {
		return "", fmt.Errorf("failed to persist session token: %w", err)
	}
	return token, nil
}

// Peek returns the current token without creating one. An empty
// string means no guest session exists.
func (m *SessionManager) Peek(ctx context.Context) (string, error) {
	token, ok, err := m.kv.Get(ctx, m.slotKey)
	if err != nil {
		return "", fmt.Errorf("failed to read session token: %w", err)
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// Clear removes the session token. Called once a merge has consumed
// the guest cart.
func (m *SessionManager) Clear(ctx context.Context) error {
	return m.kv.Remove(ctx, m.slotKey)
}
