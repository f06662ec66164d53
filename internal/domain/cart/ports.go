// internal/domain/cart/ports.go
package cart

import (
	"context"
	"time"
)

// User is the authenticated-user signal consumed from the identity
// layer. Only presence and the account ID matter to the cart core.
type User struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

// IdentityProvider reports the currently authenticated user, or nil
// when the actor is anonymous.
type IdentityProvider interface {
	CurrentUser(ctx context.Context) (*User, error)
}

// KeyValueStorage is the local storage collaborator backing guest
// session tokens and guest cart records.
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
}

// AddRequest describes a line addition. The storefront supplies the
// display price and snapshot it is currently rendering; the remote
// service remains authoritative and corrects both on reconciliation.
type AddRequest struct {
	ProductID uint            `json:"product_id" binding:"required"`
	VariantID *uint           `json:"variant_id"`
	SellerID  uint            `json:"seller_id"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	UnitPrice string          `json:"unit_price"`
	Currency  string          `json:"currency"`
	Snapshot  ProductSnapshot `json:"snapshot"`
}

// ReadWriteService is the remote source of truth for account carts.
// Guest carts never reach it except through MergeGuestCart, which
// consumes a guest session token server-side.
type ReadWriteService interface {
	FetchCart(ctx context.Context, identity Identity) (*Cart, error)
	AddLine(ctx context.Context, identity Identity, req AddRequest) error
	UpdateLine(ctx context.Context, identity Identity, lineID string, quantity int) error
	RemoveLine(ctx context.Context, identity Identity, lineID string) error
	ClearCart(ctx context.Context, identity Identity) error
	SetSavedForLater(ctx context.Context, identity Identity, lineID string, saved bool) error
	MergeGuestCart(ctx context.Context, identity Identity, guestToken string) error
}
