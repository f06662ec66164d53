// internal/domain/cart/transitions.go
package cart

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/elsharkawy159/tallaby-sub003/internal/pkg/apperrors"
)

// Pure transition functions. Each takes a snapshot and returns the
// cart the mutation should produce, without touching storage or the
// network; the mutator applies the result optimistically and the
// reconciling refetch corrects any derived fields afterwards.

// lineKey matches lines by product and variant; two requests for the
// same product+variant land on the same line.
func lineKey(productID uint, variantID *uint) string {
	if variantID == nil {
		return fmt.Sprintf("%d", productID)
	}
	return fmt.Sprintf("%d:%d", productID, *variantID)
}

// applyAdd merges the request into an existing non-saved line for the
// same product+variant, or appends a new line with a locally
// generated ID and the storefront's display price pending server
// confirmation.
func applyAdd(snapshot *Cart, req AddRequest) (*Cart, error) {
	if req.Quantity < 1 {
		return nil, apperrors.Validation("quantity must be at least 1")
	}

	next := snapshot.Clone()
	key := lineKey(req.ProductID, req.VariantID)

	for i := range next.Lines {
		if next.Lines[i].Active() && lineKey(next.Lines[i].ProductID, next.Lines[i].VariantID) == key {
			next.Lines[i].Quantity += req.Quantity
			touch(next)
			return next, nil
		}
	}

	price := decimal.Zero
	if req.UnitPrice != "" {
		parsed, err := decimal.NewFromString(req.UnitPrice)
		if err != nil || parsed.IsNegative() {
			return nil, apperrors.Validation("invalid unit price %q", req.UnitPrice)
		}
		price = parsed
	}

	currency := req.Currency
	if currency == "" {
		currency = next.Currency
	}
	if next.Currency == "" {
		next.Currency = currency
	}

	next.Lines = append(next.Lines, Line{
		ID:        localLineID(next.Owner),
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		SellerID:  req.SellerID,
		Quantity:  req.Quantity,
		UnitPrice: price,
		Currency:  currency,
		Snapshot:  req.Snapshot,
		AddedAt:   time.Now().UTC(),
	})
	touch(next)
	return next, nil
}

// applyUpdateQuantity sets the quantity of an existing line
func applyUpdateQuantity(snapshot *Cart, lineID string, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, apperrors.Validation("quantity must be at least 1")
	}

	next := snapshot.Clone()
	line := next.FindLine(lineID)
	if line == nil {
		return nil, apperrors.NotFound("cart line %s not found", lineID)
	}
	line.Quantity = quantity
	touch(next)
	return next, nil
}

// applyRemove drops a line from the cart
func applyRemove(snapshot *Cart, lineID string) (*Cart, error) {
	next := snapshot.Clone()
	for i := range next.Lines {
		if next.Lines[i].ID == lineID {
			next.Lines = append(next.Lines[:i], next.Lines[i+1:]...)
			touch(next)
			return next, nil
		}
	}
	return nil, apperrors.NotFound("cart line %s not found", lineID)
}

// applyClear empties the cart
func applyClear(snapshot *Cart) (*Cart, error) {
	next := snapshot.Clone()
	next.Lines = []Line{}
	touch(next)
	return next, nil
}

// applySetSavedForLater toggles a line between the active cart and
// the saved-for-later list.
func applySetSavedForLater(snapshot *Cart, lineID string, saved bool) (*Cart, error) {
	next := snapshot.Clone()
	line := next.FindLine(lineID)
	if line == nil {
		return nil, apperrors.NotFound("cart line %s not found", lineID)
	}
	line.SavedForLater = saved
	touch(next)
	return next, nil
}

// localLineID generates an ephemeral line identifier that is never
// persisted remotely.
func localLineID(owner Identity) string {
	if owner.Kind == OwnerAccount {
		return "pending-" + uuid.New().String()
	}
	return "guest-" + uuid.New().String()
}

func touch(c *Cart) {
	now := time.Now().UTC()
	c.LastActivity = now
	c.UpdatedAt = now
}
