// internal/domain/cart/registry.go
package cart

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// NewScope returns a fresh opaque scope for a browser session
func NewScope() string {
	return uuid.New().String()
}

// Registry hands out one Service per actor scope so that the per-cart
// mutation serialization holds across concurrent requests from the
// same browser session.
type Registry struct {
	remote   ReadWriteService
	identity IdentityProvider
	kv       KeyValueStorage

	guestCartTTL time.Duration
	currency     string
	log          *logrus.Logger

	mu      sync.Mutex
	engines map[string]*Service
}

// NewRegistry creates a registry with the shared collaborators every
// engine instance is constructed from.
func NewRegistry(remote ReadWriteService, identity IdentityProvider, kv KeyValueStorage, guestCartTTL time.Duration, currency string, log *logrus.Logger) *Registry {
	return &Registry{
		remote:       remote,
		identity:     identity,
		kv:           kv,
		guestCartTTL: guestCartTTL,
		currency:     currency,
		log:          log,
		engines:      make(map[string]*Service),
	}
}

// For returns the cart service for an actor scope, creating it on
// first use.
func (r *Registry) For(scope string) *Service {
	r.mu.Lock()
	defer r.mu.Unlock()

	if engine, ok := r.engines[scope]; ok {
		return engine
	}

	engine := NewService(r.remote, r.identity, r.kv, ServiceConfig{
		Scope:        scope,
		GuestCartTTL: r.guestCartTTL,
		Currency:     r.currency,
		Logger:       r.log,
	})
	r.engines[scope] = engine
	return engine
}
