// internal/domain/cart/session_test.go
package cart_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elsharkawy159/tallaby-sub003/internal/domain/cart"
)

func TestSessionTokenStableUntilCleared(t *testing.T) {
	kv := newMemKV()
	sessions := cart.NewSessionManager(kv, "scope-a")
	ctx := context.Background()

	first, err := sessions.Token(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := sessions.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.NoError(t, sessions.Clear(ctx))

	third, err := sessions.Token(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestSessionPeekDoesNotCreate(t *testing.T) {
	kv := newMemKV()
	sessions := cart.NewSessionManager(kv, "scope-a")
	ctx := context.Background()

	token, err := sessions.Peek(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	// Still nothing persisted
	token, err = sessions.Peek(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestSessionScopesAreIsolated(t *testing.T) {
	kv := newMemKV()
	ctx := context.Background()

	a, err := cart.NewSessionManager(kv, "scope-a").Token(ctx)
	require.NoError(t, err)
	b, err := cart.NewSessionManager(kv, "scope-b").Token(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
