// internal/domain/checkout/summary.go
package checkout

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/elsharkawy159/tallaby-sub003/internal/domain/cart"
	"github.com/elsharkawy159/tallaby-sub003/internal/pkg/apperrors"
)

// Input carries everything the summary derivation needs. Now is
// injectable for deterministic coupon-window tests; the zero value
// means the wall clock.
type Input struct {
	Lines        []cart.Line     `json:"lines"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Tax          TaxRule         `json:"tax"`
	Coupon       *Coupon         `json:"coupon,omitempty"`
	// BuyXGetYAmount is the externally resolved discount for
	// buy_x_get_y coupons; deriving eligible pairs is not done here.
	BuyXGetYAmount decimal.Decimal `json:"buy_x_get_y_amount"`
	Now            time.Time       `json:"-"`
}

// Compute derives the checkout summary from cart lines, the shipping
// selection and an optional coupon. It is a pure function: validation
// failures come back as error values, never panics, and nothing is
// stored.
func Compute(in Input) (*Summary, error) {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	if in.ShippingCost.IsNegative() {
		return nil, apperrors.Validation("shipping cost cannot be negative")
	}

	lines := activeLines(in.Lines)

	cur, err := sharedCurrency(lines)
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	itemCount := 0
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, apperrors.Validation("line %s has invalid quantity %d", line.ID, line.Quantity)
		}
		if line.UnitPrice.IsNegative() {
			return nil, apperrors.Validation("line %s has negative unit price", line.ID)
		}
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		itemCount += line.Quantity
	}
	subtotal = subtotal.Round(2)

	shipping := in.ShippingCost.Round(2)
	discount := decimal.Zero

	if in.Coupon != nil {
		if err := validateCoupon(in.Coupon, subtotal, now); err != nil {
			return nil, err
		}

		switch in.Coupon.DiscountType {
		case DiscountPercentage:
			discount = subtotal.Mul(in.Coupon.DiscountValue).Div(decimal.NewFromInt(100))
		case DiscountFixedAmount:
			discount = in.Coupon.DiscountValue
		case DiscountFreeShipping:
			shipping = decimal.Zero
		case DiscountBuyXGetY:
			discount = in.BuyXGetYAmount
		default:
			return nil, apperrors.Validation("unknown discount type %q", in.Coupon.DiscountType)
		}

		if in.Coupon.MaximumDiscount != nil && discount.GreaterThan(*in.Coupon.MaximumDiscount) {
			discount = *in.Coupon.MaximumDiscount
		}
		if cap := subtotal.Add(shipping); discount.GreaterThan(cap) {
			discount = cap
		}
		discount = discount.Round(2)
	}

	taxBase := subtotal
	if in.Tax.TaxShipping {
		taxBase = taxBase.Add(shipping)
	}
	tax := taxBase.Mul(in.Tax.Rate).Round(2)

	total := subtotal.Add(shipping).Add(tax).Sub(discount).Round(2)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return &Summary{
		Subtotal:       subtotal,
		ShippingCost:   shipping,
		Tax:            tax,
		DiscountAmount: discount,
		Total:          total,
		ItemCount:      itemCount,
		Currency:       cur,
	}, nil
}

// Private helper methods

func activeLines(lines []cart.Line) []cart.Line {
	active := make([]cart.Line, 0, len(lines))
	for _, line := range lines {
		if line.Active() {
			active = append(active, line)
		}
	}
	return active
}

// sharedCurrency validates that every line carries the same ISO
// currency. Mixed currencies in one cart is a fatal input error, not
// something to silently coerce.
func sharedCurrency(lines []cart.Line) (string, error) {
	cur := ""
	for _, line := range lines {
		if line.Currency == "" {
			return "", apperrors.Validation("line %s has no currency", line.ID)
		}
		if cur == "" {
			cur = line.Currency
			continue
		}
		if line.Currency != cur {
			return "", apperrors.Validation("mixed currencies in cart: %s and %s", cur, line.Currency)
		}
	}
	if cur != "" {
		if _, err := currency.ParseISO(cur); err != nil {
			return "", apperrors.Validation("unknown currency %q", cur)
		}
	}
	return cur, nil
}

// validateCoupon applies the coupon rules: the validity window, the
// minimum purchase and the percentage bounds.
func validateCoupon(c *Coupon, subtotal decimal.Decimal, now time.Time) error {
	if !c.ExpiresAt.After(c.StartsAt) {
		return apperrors.Validation("coupon %s has an invalid validity window", c.Code)
	}
	if now.Before(c.StartsAt) {
		return apperrors.Validation("coupon %s is not active yet", c.Code)
	}
	if now.After(c.ExpiresAt) {
		return apperrors.Validation("coupon %s has expired", c.Code)
	}

	if c.DiscountType == DiscountPercentage {
		if !c.DiscountValue.IsPositive() || c.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
			return apperrors.Validation("coupon %s has an invalid percentage %s", c.Code, c.DiscountValue)
		}
	}

	if c.MinimumPurchase != nil && subtotal.LessThan(*c.MinimumPurchase) {
		return apperrors.Validation("coupon %s requires a minimum purchase of %s", c.Code, c.MinimumPurchase)
	}
	return nil
}
