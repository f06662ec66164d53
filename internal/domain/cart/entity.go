// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// OwnerKind distinguishes anonymous sessions from authenticated accounts
type OwnerKind string

const (
	OwnerGuest   OwnerKind = "guest"
	OwnerAccount OwnerKind = "account"
)

// Identity resolves to exactly one owner reference: a guest session
// token or an account ID, never both.
type Identity struct {
	Kind      OwnerKind `json:"kind"`
	Token     string    `json:"token,omitempty"`
	AccountID uint      `json:"account_id,omitempty"`
}

// GuestIdentity builds a guest identity from a session token
func GuestIdentity(token string) Identity {
	return Identity{Kind: OwnerGuest, Token: token}
}

// AccountIdentity builds an account identity from a user ID
func AccountIdentity(accountID uint) Identity {
	return Identity{Kind: OwnerAccount, AccountID: accountID}
}

// ProductSnapshot captures the display attributes of a product at the
// time it entered the cart, so lines stay renderable even while the
// catalog row changes underneath them.
type ProductSnapshot struct {
	Title  string   `json:"title"`
	Slug   string   `json:"slug"`
	Images []string `json:"images,omitempty"`
	Brand  string   `json:"brand,omitempty"`
	Seller string   `json:"seller,omitempty"`
}

// Line represents a single cart line. Ephemeral lines created before
// server confirmation carry locally generated IDs (guest-/pending-
// prefixed) that are never persisted remotely.
type Line struct {
	ID            string          `json:"id"`
	ProductID     uint            `json:"product_id"`
	VariantID     *uint           `json:"variant_id,omitempty"`
	SellerID      uint            `json:"seller_id"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Currency      string          `json:"currency"`
	SavedForLater bool            `json:"saved_for_later"`
	Snapshot      ProductSnapshot `json:"snapshot"`
	AddedAt       time.Time       `json:"added_at"`
}

// Active reports whether the line participates in totals and checkout
func (l Line) Active() bool {
	return !l.SavedForLater
}

// CartStatus represents the lifecycle state of a cart
type CartStatus string

const (
	CartStatusActive     CartStatus = "active"
	CartStatusCheckedOut CartStatus = "checked_out"
)

// Cart is the authoritative in-memory cart representation. A cart
// belongs to exactly one owner reference at a time; guest carts and
// account carts are never the same storage row.
type Cart struct {
	ID           string     `json:"id"`
	Owner        Identity   `json:"owner"`
	Currency     string     `json:"currency"`
	Status       CartStatus `json:"status"`
	Lines        []Line     `json:"lines"`
	LastActivity time.Time  `json:"last_activity"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewEmptyCart creates the empty cart representation for an owner
func NewEmptyCart(owner Identity, currency string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		Owner:        owner,
		Currency:     currency,
		Status:       CartStatusActive,
		Lines:        []Line{},
		LastActivity: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Subtotal sums unit price times quantity over non-saved-for-later
// lines, rounded to 2 decimal places.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range c.Lines {
		if line.Active() {
			sum = sum.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
	}
	return sum.Round(2)
}

// ItemCount sums quantities over non-saved-for-later lines
func (c *Cart) ItemCount() int {
	count := 0
	for _, line := range c.Lines {
		if line.Active() {
			count += line.Quantity
		}
	}
	return count
}

// IsEmpty reports whether the cart has no lines at all
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// ActiveLines returns the lines participating in checkout
func (c *Cart) ActiveLines() []Line {
	lines := make([]Line, 0, len(c.Lines))
	for _, line := range c.Lines {
		if line.Active() {
			lines = append(lines, line)
		}
	}
	return lines
}

// SavedLines returns the saved-for-later lines
func (c *Cart) SavedLines() []Line {
	lines := make([]Line, 0)
	for _, line := range c.Lines {
		if line.SavedForLater {
			lines = append(lines, line)
		}
	}
	return lines
}

// FindLine returns the line with the given ID, or nil
func (c *Cart) FindLine(lineID string) *Line {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			return &c.Lines[i]
		}
	}
	return nil
}

// Clone returns a deep copy used for optimistic snapshots
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Lines = make([]Line, len(c.Lines))
	copy(clone.Lines, c.Lines)
	for i := range clone.Lines {
		if c.Lines[i].VariantID != nil {
			v := *c.Lines[i].VariantID
			clone.Lines[i].VariantID = &v
		}
		if len(c.Lines[i].Snapshot.Images) > 0 {
			imgs := make([]string, len(c.Lines[i].Snapshot.Images))
			copy(imgs, c.Lines[i].Snapshot.Images)
			clone.Lines[i].Snapshot.Images = imgs
		}
	}
	return &clone
}

// Phase represents the load state of the store
type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseLoading       Phase = "loading"
	PhaseReady         Phase = "ready"
	PhaseEmpty         Phase = "empty"
)

// MutationKind identifies which mutation is in flight
type MutationKind string

const (
	MutationAdd    MutationKind = "add"
	MutationUpdate MutationKind = "update"
	MutationRemove MutationKind = "remove"
	MutationClear  MutationKind = "clear"
	MutationSave   MutationKind = "save_for_later"
)

// Flags are the transient indicators the storefront renders spinners from
type Flags struct {
	Loading    bool `json:"loading"`
	IsAdding   bool `json:"is_adding"`
	IsUpdating bool `json:"is_updating"`
	IsRemoving bool `json:"is_removing"`
	IsClearing bool `json:"is_clearing"`
}
