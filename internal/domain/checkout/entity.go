// internal/domain/checkout/entity.go
package checkout

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType represents the kind of discount a coupon grants
type DiscountType string

const (
	DiscountPercentage   DiscountType = "percentage"
	DiscountFixedAmount  DiscountType = "fixed_amount"
	DiscountFreeShipping DiscountType = "free_shipping"
	DiscountBuyXGetY     DiscountType = "buy_x_get_y"
)

// Coupon carries the validation rules for a discount code. The coupon
// catalog itself lives outside this core; only validation happens here.
type Coupon struct {
	Code            string           `json:"code"`
	DiscountType    DiscountType     `json:"discount_type"`
	DiscountValue   decimal.Decimal  `json:"discount_value"`
	MinimumPurchase *decimal.Decimal `json:"minimum_purchase,omitempty"`
	MaximumDiscount *decimal.Decimal `json:"maximum_discount,omitempty"`
	StartsAt        time.Time        `json:"starts_at"`
	ExpiresAt       time.Time        `json:"expires_at"`
}

// TaxRule derives the tax amount from the taxable base. Rate is a
// fraction (0.18 for 18%); TaxShipping includes shipping in the base.
type TaxRule struct {
	Rate        decimal.Decimal `json:"rate"`
	TaxShipping bool            `json:"tax_shipping"`
}

// Summary is the derived checkout pricing breakdown. It is never
// stored; it is recomputed from the cart, the shipping selection and
// the coupon every time it is needed.
type Summary struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	Tax            decimal.Decimal `json:"tax"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
	ItemCount      int             `json:"item_count"`
	Currency       string          `json:"currency"`
}

// CreateOrderRequest is the payload handed to the order collaborator
type CreateOrderRequest struct {
	CartID            string      `json:"cart_id"`
	AccountID         uint        `json:"account_id"`
	ShippingAddressID uint        `json:"shipping_address_id"`
	BillingAddressID  uint        `json:"billing_address_id"`
	PaymentMethod     string      `json:"payment_method"`
	CouponCode        string      `json:"coupon_code,omitempty"`
	Notes             string      `json:"notes,omitempty"`
	IsGift            bool        `json:"is_gift"`
	GiftMessage       string      `json:"gift_message,omitempty"`
	Lines             []OrderLine `json:"lines"`
	Summary           Summary     `json:"summary"`
}

// OrderLine is the denormalized line shape the order store persists
type OrderLine struct {
	ProductID uint            `json:"product_id"`
	VariantID *uint           `json:"variant_id,omitempty"`
	SellerID  uint            `json:"seller_id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderRef identifies a created order for navigation
type OrderRef struct {
	ID          uint   `json:"id"`
	OrderNumber string `json:"order_number"`
}

// OrderService is the external order-creation collaborator
type OrderService interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderRef, error)
}
