// internal/domain/cart/service.go
package cart

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/elsharkawy159/tallaby-sub003/internal/pkg/apperrors"
)

// Service is the cart state store for a single actor. It holds the
// current cart, wraps every mutation in the optimistic protocol, and
// serializes mutations so a second operation never computes its delta
// from a stale pre-mutation snapshot.
type Service struct {
	remote   ReadWriteService
	identity IdentityProvider
	sessions *SessionManager
	guest    *GuestStore
	log      *logrus.Logger
	notify   func(message string)
	currency string

	// gate serializes mutations, merges and explicit fetches for this
	// cart. Every mutation holds it across snapshot, optimistic apply,
	// remote call and reconciling refetch.
	gate sync.Mutex

	stateMu sync.RWMutex
	current *Cart
	phase   Phase
	flags   Flags
}

// ServiceConfig carries the per-actor construction parameters
type ServiceConfig struct {
	// Scope isolates the session token slot per actor (typically the
	// browser session cookie value).
	Scope string
	// GuestCartTTL bounds how long an abandoned guest cart survives
	GuestCartTTL time.Duration
	// Currency is the default display currency for empty carts
	Currency string
	// Logger receives merge and reconciliation diagnostics
	Logger *logrus.Logger
	// Notify surfaces user-visible failure messages; success is silent
	Notify func(message string)
}

// NewService creates a cart service with injected collaborators
func NewService(remote ReadWriteService, identity IdentityProvider, kv KeyValueStorage, cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Notify == nil {
		cfg.Notify = func(string) {}
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}

	sessions := NewSessionManager(kv, cfg.Scope)
	return &Service{
		remote:   remote,
		identity: identity,
		sessions: sessions,
		guest:    NewGuestStore(kv, sessions, cfg.GuestCartTTL),
		log:      cfg.Logger,
		notify:   cfg.Notify,
		currency: cfg.Currency,
		phase:    PhaseUninitialized,
	}
}

// Sessions exposes the session manager for the HTTP layer
func (s *Service) Sessions() *SessionManager {
	return s.sessions
}

// CurrentIdentity resolves the actor: authenticated account when the
// identity provider reports a user, otherwise the guest session
// (whose token may still be empty until the first mutation).
func (s *Service) CurrentIdentity(ctx context.Context) (Identity, error) {
	user, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return Identity{}, apperrors.Network(err, "failed to resolve identity")
	}
	if user != nil {
		return AccountIdentity(user.ID), nil
	}

	token, err := s.sessions.Peek(ctx)
	if err != nil {
		return Identity{}, err
	}
	return GuestIdentity(token), nil
}

// Fetch loads the authoritative cart: the remote service for
// authenticated actors, guest persistence for anonymous ones
// (defaulting to an empty cart when nothing is stored).
func (s *Service) Fetch(ctx context.Context) error {
	s.gate.Lock()
	defer s.gate.Unlock()
	return s.fetchLocked(ctx)
}

// Add adds a line to the cart through the optimistic protocol
func (s *Service) Add(ctx context.Context, req AddRequest) error {
	return s.mutate(ctx, MutationAdd,
		func(snapshot *Cart) (*Cart, error) {
			return applyAdd(snapshot, req)
		},
		func(ctx context.Context, identity Identity) error {
			return s.remote.AddLine(ctx, identity, req)
		})
}

// UpdateQuantity sets the quantity of an existing line
func (s *Service) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	return s.mutate(ctx, MutationUpdate,
		func(snapshot *Cart) (*Cart, error) {
			return applyUpdateQuantity(snapshot, lineID, quantity)
		},
		func(ctx context.Context, identity Identity) error {
			return s.remote.UpdateLine(ctx, identity, lineID, quantity)
		})
}

// Remove drops a line from the cart
func (s *Service) Remove(ctx context.Context, lineID string) error {
	return s.mutate(ctx, MutationRemove,
		func(snapshot *Cart) (*Cart, error) {
			return applyRemove(snapshot, lineID)
		},
		func(ctx context.Context, identity Identity) error {
			return s.remote.RemoveLine(ctx, identity, lineID)
		})
}

// Clear removes all lines from the cart
func (s *Service) Clear(ctx context.Context) error {
	return s.mutate(ctx, MutationClear,
		func(snapshot *Cart) (*Cart, error) {
			return applyClear(snapshot)
		},
		func(ctx context.Context, identity Identity) error {
			return s.remote.ClearCart(ctx, identity)
		})
}

// SetSavedForLater moves a line between the active cart and the
// saved-for-later list.
func (s *Service) SetSavedForLater(ctx context.Context, lineID string, saved bool) error {
	return s.mutate(ctx, MutationSave,
		func(snapshot *Cart) (*Cart, error) {
			return applySetSavedForLater(snapshot, lineID, saved)
		},
		func(ctx context.Context, identity Identity) error {
			return s.remote.SetSavedForLater(ctx, identity, lineID, saved)
		})
}

// Current returns a copy of the current cart, or nil before the first fetch
func (s *Service) Current() *Cart {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.current.Clone()
}

// Lines returns the current cart lines
func (s *Service) Lines() []Line {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if s.current == nil {
		return nil
	}
	return s.current.Clone().Lines
}

// ItemCount returns the total quantity over non-saved-for-later lines
func (s *Service) ItemCount() int {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if s.current == nil {
		return 0
	}
	return s.current.ItemCount()
}

// Subtotal returns the subtotal over non-saved-for-later lines
func (s *Service) Subtotal() decimal.Decimal {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if s.current == nil {
		return decimal.Zero
	}
	return s.current.Subtotal()
}

// Flags returns the transient mutation indicators
func (s *Service) Flags() Flags {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.flags
}

// Phase returns the load state of the store
func (s *Service) Phase() Phase {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.phase
}

// Private helper methods

// mutate runs the uniform optimistic protocol: snapshot, pure
// transition, optimistic apply, guest persistence, remote call, and
// an unconditional reconciling refetch. The store is never left in
// the optimistic state after a failure, and the Mutating flag is
// released on every exit path.
func (s *Service) mutate(ctx context.Context, kind MutationKind, transition func(*Cart) (*Cart, error), remoteCall func(context.Context, Identity) error) error {
	s.gate.Lock()
	defer s.gate.Unlock()

	if s.phaseLocked() == PhaseUninitialized {
		if err := s.fetchLocked(ctx); err != nil {
			return err
		}
	}

	identity, err := s.mutationIdentity(ctx)
	if err != nil {
		return err
	}

	snapshot := s.snapshotLocked(identity)
	next, err := transition(snapshot)
	if err != nil {
		// Invalid request: nothing was applied, nothing to reconcile
		return err
	}

	s.beginMutation(kind)
	defer s.endMutation(kind)

	s.publish(next)

	if identity.Kind == OwnerGuest {
		if err := s.guest.Save(ctx, next); err != nil {
			// Local persistence failed: discard the optimistic branch
			s.publish(snapshot)
			s.notify(apperrors.UserMessage(err))
			return err
		}
		// Guest storage is the source of truth; reconcile from it so a
		// reload observes exactly what a fresh fetch would.
		if err := s.fetchLocked(ctx); err != nil {
			s.publish(next)
		}
		return nil
	}

	remoteErr := remoteCall(ctx, identity)

	// Reconcile by refetching the truth regardless of the outcome:
	// success corrects derived fields (authoritative price, generated
	// id), failure overwrites the optimistic branch with the last
	// known-good remote state.
	if fetchErr := s.fetchLocked(ctx); fetchErr != nil {
		s.publish(snapshot)
		if remoteErr == nil {
			remoteErr = fetchErr
		}
	}

	if remoteErr != nil {
		s.log.WithError(remoteErr).WithField("mutation", string(kind)).Warn("cart mutation failed; state reconciled")
		s.notify(apperrors.UserMessage(remoteErr))
		return remoteErr
	}
	return nil
}

// mutationIdentity resolves the identity for a mutation, creating the
// guest session token lazily on the first guest mutation.
func (s *Service) mutationIdentity(ctx context.Context) (Identity, error) {
	user, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return Identity{}, apperrors.Network(err, "failed to resolve identity")
	}
	if user != nil {
		return AccountIdentity(user.ID), nil
	}

	token, err := s.sessions.Token(ctx)
	if err != nil {
		return Identity{}, err
	}
	return GuestIdentity(token), nil
}

// fetchLocked loads the authoritative cart while the gate is held
func (s *Service) fetchLocked(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	identity, err := s.CurrentIdentity(ctx)
	if err != nil {
		return err
	}

	var fetched *Cart
	switch identity.Kind {
	case OwnerAccount:
		fetched, err = s.remote.FetchCart(ctx, identity)
		if err != nil {
			s.log.WithError(err).Warn("failed to fetch account cart")
			return err
		}
	default:
		fetched, err = s.guest.Load(ctx)
		if err != nil {
			s.log.WithError(err).Warn("failed to load guest cart")
			return err
		}
		if fetched == nil {
			fetched = NewEmptyCart(identity, s.currency)
		}
	}

	s.publish(fetched)
	return nil
}

// snapshotLocked returns a deep copy of the current cart for the
// transition function, falling back to an empty cart on first use.
func (s *Service) snapshotLocked(identity Identity) *Cart {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if s.current == nil {
		return NewEmptyCart(identity, s.currency)
	}
	snapshot := s.current.Clone()
	snapshot.Owner = identity
	return snapshot
}

func (s *Service) publish(c *Cart) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.current = c
	if c == nil || c.IsEmpty() {
		s.phase = PhaseEmpty
	} else {
		s.phase = PhaseReady
	}
}

func (s *Service) phaseLocked() Phase {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.phase
}

func (s *Service) setLoading(loading bool) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.flags.Loading = loading
	if loading && s.phase == PhaseUninitialized {
		s.phase = PhaseLoading
	}
}

func (s *Service) beginMutation(kind MutationKind) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.setMutationFlag(kind, true)
}

func (s *Service) endMutation(kind MutationKind) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.setMutationFlag(kind, false)
}

func (s *Service) setMutationFlag(kind MutationKind, value bool) {
	switch kind {
	case MutationAdd:
		s.flags.IsAdding = value
	case MutationUpdate, MutationSave:
		s.flags.IsUpdating = value
	case MutationRemove:
		s.flags.IsRemoving = value
	case MutationClear:
		s.flags.IsClearing = value
	}
}
