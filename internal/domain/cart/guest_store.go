// internal/domain/cart/guest_store.go
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const guestRecordVersion = 1

// guestCartRecord is the persisted shape of a guest cart. The record
// is versioned and parsed strictly: any mismatch is treated as an
// absent cart, never as a crash.
type guestCartRecord struct {
	Version int       `json:"version"`
	Token   string    `json:"token"`
	Cart    *Cart     `json:"cart"`
	SavedAt time.Time `json:"saved_at"`
}

// GuestStore is the durable local persistence for guest carts, keyed
// by session token so the merge collaborator can consume the record
// server-side.
type GuestStore struct {
	kv       KeyValueStorage
	sessions *SessionManager
	ttl      time.Duration
}

// NewGuestStore creates a guest cart store. ttl bounds how long an
// abandoned guest cart survives; zero means no expiry.
func NewGuestStore(kv KeyValueStorage, sessions *SessionManager, ttl time.Duration) *GuestStore {
	return &GuestStore{
		kv:       kv,
		sessions: sessions,
		ttl:      ttl,
	}
}

// GuestCartKey returns the storage key for a guest cart record. The
// merge side of the remote cart service reads the same key.
func GuestCartKey(token string) string {
	return fmt.Sprintf("cart:guest:%s", token)
}

// Save persists the guest cart under the current session token,
// creating the token first if this is the first mutation.
func (g *GuestStore) Save(ctx context.Context, c *Cart) error {
	token, err := g.sessions.Token(ctx)
	if err != nil {
		return err
	}

	record := guestCartRecord{
		Version: guestRecordVersion,
		Token:   token,
		Cart:    c,
		SavedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode guest cart: %w", err)
	}

	return g.kv.Set(ctx, GuestCartKey(token), string(data), g.ttl)
}

// Load returns the stored guest cart, or nil when none exists. A
// stored record whose token does not match the current session token
// is discarded, protecting against stale data surviving an explicit
// session reset. Malformed or unversioned data is treated as absent.
func (g *GuestStore) Load(ctx context.Context) (*Cart, error) {
	token, err := g.sessions.Peek(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}

	raw, ok, err := g.kv.Get(ctx, GuestCartKey(token))
	if err != nil {
		return nil, fmt.Errorf("failed to read guest cart: %w", err)
	}
	if !ok {
		return nil, nil
	}

	stored := DecodeGuestRecord(raw, token)
	if stored == nil {
		_ = g.kv.Remove(ctx, GuestCartKey(token))
		return nil, nil
	}
	return stored, nil
}

// DecodeGuestRecord parses a stored guest cart record. It returns nil
// when the data is malformed, carries an unknown version, or was
// written under a different session token: stale or corrupted records
// are absent, never fatal. The merge side of the remote cart service
// consumes the same format.
func DecodeGuestRecord(raw, token string) *Cart {
	var record guestCartRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil
	}
	if record.Version != guestRecordVersion || record.Cart == nil || record.Token != token {
		return nil
	}
	record.Cart.Owner = GuestIdentity(token)
	return record.Cart
}

// Clear removes the stored guest cart for the current session token
func (g *GuestStore) Clear(ctx context.Context) error {
	token, err := g.sessions.Peek(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}
	return g.kv.Remove(ctx, GuestCartKey(token))
}
