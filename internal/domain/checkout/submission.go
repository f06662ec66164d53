// internal/domain/checkout/submission.go
package checkout

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/elsharkawy159/tallaby-sub003/internal/domain/cart"
	"github.com/elsharkawy159/tallaby-sub003/internal/domain/inventory"
	"github.com/elsharkawy159/tallaby-sub003/internal/pkg/apperrors"
)

// SubmitRequest is the finalized checkout payload
type SubmitRequest struct {
	ShippingAddressID uint            `json:"shipping_address_id" binding:"required"`
	BillingAddressID  uint            `json:"billing_address_id"`
	PaymentMethod     string          `json:"payment_method" binding:"required"`
	TermsAccepted     bool            `json:"terms_accepted"`
	ShippingCost      decimal.Decimal `json:"shipping_cost"`
	Tax               TaxRule         `json:"tax"`
	Coupon            *Coupon         `json:"coupon,omitempty"`
	BuyXGetYAmount    decimal.Decimal `json:"buy_x_get_y_amount"`
	Notes             string          `json:"notes,omitempty"`
	IsGift            bool            `json:"is_gift"`
	GiftMessage       string          `json:"gift_message,omitempty"`
}

// SubmitResult carries the order reference for navigation
type SubmitResult struct {
	OrderID     uint   `json:"order_id"`
	OrderNumber string `json:"order_number"`
}

// Submission validates and submits the finalized checkout payload.
// On success the cart is cleared; on failure the error surfaces
// unchanged and the cart is left untouched.
type Submission struct {
	orders       OrderService
	stock        inventory.Checker
	requireTerms bool
	log          *logrus.Logger
}

// NewSubmission creates an order submission service. stock may be nil
// when no inventory gate applies.
func NewSubmission(orders OrderService, stock inventory.Checker, requireTerms bool, log *logrus.Logger) *Submission {
	if log == nil {
		log = logrus.New()
	}
	return &Submission{
		orders:       orders,
		stock:        stock,
		requireTerms: requireTerms,
		log:          log,
	}
}

// Submit validates the payload, derives the checkout summary from the
// actor's current cart and creates the order.
func (s *Submission) Submit(ctx context.Context, engine *cart.Service, req SubmitRequest) (*SubmitResult, error) {
	if req.ShippingAddressID == 0 {
		return nil, apperrors.Validation("shipping address is required")
	}
	if req.PaymentMethod == "" {
		return nil, apperrors.Validation("payment method is required")
	}
	if s.requireTerms && !req.TermsAccepted {
		return nil, apperrors.Validation("terms must be accepted")
	}

	current := engine.Current()
	if current == nil || len(current.ActiveLines()) == 0 {
		return nil, apperrors.Validation("cart is empty")
	}

	if err := s.gateInventory(ctx, current.ActiveLines()); err != nil {
		return nil, err
	}

	summary, err := Compute(Input{
		Lines:          current.Lines,
		ShippingCost:   req.ShippingCost,
		Tax:            req.Tax,
		Coupon:         req.Coupon,
		BuyXGetYAmount: req.BuyXGetYAmount,
	})
	if err != nil {
		return nil, err
	}

	identity, err := engine.CurrentIdentity(ctx)
	if err != nil {
		return nil, err
	}

	orderReq := CreateOrderRequest{
		CartID:            current.ID,
		AccountID:         identity.AccountID,
		ShippingAddressID: req.ShippingAddressID,
		BillingAddressID:  req.BillingAddressID,
		PaymentMethod:     req.PaymentMethod,
		Notes:             req.Notes,
		IsGift:            req.IsGift,
		GiftMessage:       req.GiftMessage,
		Summary:           *summary,
	}
	if req.Coupon != nil {
		orderReq.CouponCode = req.Coupon.Code
	}
	if req.BillingAddressID == 0 {
		orderReq.BillingAddressID = req.ShippingAddressID
	}
	for _, line := range current.ActiveLines() {
		orderReq.Lines = append(orderReq.Lines, OrderLine{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			SellerID:  line.SellerID,
			Title:     line.Snapshot.Title,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	ref, err := s.orders.CreateOrder(ctx, orderReq)
	if err != nil {
		// The cart stays as it was: no partial clear on failure
		return nil, err
	}

	if err := engine.Clear(ctx); err != nil {
		s.log.WithError(err).WithField("order", ref.OrderNumber).
			Warn("order created but cart clear failed")
	}

	return &SubmitResult{OrderID: ref.ID, OrderNumber: ref.OrderNumber}, nil
}

// gateInventory rejects any line requesting more than available stock
func (s *Submission) gateInventory(ctx context.Context, lines []cart.Line) error {
	if s.stock == nil {
		return nil
	}
	for _, line := range lines {
		available, tracked, err := s.stock.Available(ctx, line.ProductID, line.VariantID)
		if err != nil {
			return apperrors.Network(err, "failed to check stock for product %d", line.ProductID)
		}
		if err := inventory.ValidateRequested(line.Quantity, available, tracked); err != nil {
			return err
		}
	}
	return nil
}
