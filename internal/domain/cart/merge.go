// internal/domain/cart/merge.go
package cart

import (
	"context"

	"github.com/elsharkawy159/tallaby-sub003/internal/pkg/apperrors"
)

// OnAuthenticated merges the guest cart into the account cart on the
// login transition. Once a merge has been attempted the guest token
// and guest storage are cleared regardless of its outcome, which makes
// the operation idempotent: a second call finds no token and reduces
// to a plain fetch. A merge failure is logged but never fatal to
// login; the cart falls back to whatever the account fetch returns.
// When the authenticated user cannot be resolved at all, the guest
// session is left intact so a later call can still merge it.
func (s *Service) OnAuthenticated(ctx context.Context) error {
	s.gate.Lock()
	defer s.gate.Unlock()

	token, err := s.sessions.Peek(ctx)
	if err != nil {
		s.log.WithError(err).Warn("failed to read guest session token during merge")
		token = ""
	}

	if token != "" {
		user, err := s.identity.CurrentUser(ctx)
		switch {
		case err != nil:
			s.log.WithError(err).Warn("identity unavailable during merge; keeping guest cart")
		case user == nil:
			s.log.Warn("merge requested without an authenticated user; keeping guest cart")
		default:
			if mergeErr := s.remote.MergeGuestCart(ctx, AccountIdentity(user.ID), token); mergeErr != nil {
				s.log.WithError(mergeErr).WithField("kind", apperrors.KindOf(mergeErr)).
					Warn("guest cart merge failed; continuing login")
			}

			// Consume the guest session once a merge was attempted so
			// the same token is never merged twice.
			if err := s.guest.Clear(ctx); err != nil {
				s.log.WithError(err).Warn("failed to clear guest cart storage")
			}
			if err := s.sessions.Clear(ctx); err != nil {
				s.log.WithError(err).Warn("failed to clear guest session token")
			}
		}
	}

	return s.fetchLocked(ctx)
}
