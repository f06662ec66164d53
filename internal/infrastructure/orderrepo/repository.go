// internal/infrastructure/orderrepo/repository.go
package orderrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/elsharkawy159/tallaby-sub003/internal/domain/checkout"
	"github.com/elsharkawy159/tallaby-sub003/internal/pkg/apperrors"
)

// Repository persists orders and stock levels. It implements the
// checkout order collaborator and the inventory checker.
type Repository struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewRepository creates an order repository
func NewRepository(db *gorm.DB, log *logrus.Logger) *Repository {
	if log == nil {
		log = logrus.New()
	}
	return &Repository{db: db, log: log}
}

// CreateOrder persists the order and its items in one transaction,
// decrementing tracked stock. Insufficient stock aborts the whole
// order; nothing is partially committed.
func (r *Repository) CreateOrder(ctx context.Context, req checkout.CreateOrderRequest) (*checkout.OrderRef, error) {
	if len(req.Lines) == 0 {
		return nil, apperrors.Validation("order has no lines")
	}

	var order Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order = Order{
			Status:            OrderStatusPending,
			SubtotalAmount:    req.Summary.Subtotal,
			TaxAmount:         req.Summary.Tax,
			ShippingAmount:    req.Summary.ShippingCost,
			DiscountAmount:    req.Summary.DiscountAmount,
			TotalAmount:       req.Summary.Total,
			Currency:          req.Summary.Currency,
			ShippingAddressID: req.ShippingAddressID,
			BillingAddressID:  req.BillingAddressID,
			PaymentMethod:     req.PaymentMethod,
			CouponCode:        req.CouponCode,
			Notes:             req.Notes,
			IsGift:            req.IsGift,
			GiftMessage:       req.GiftMessage,
		}
		if req.AccountID != 0 {
			accountID := req.AccountID
			order.UserID = &accountID
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		// Order number needs the generated ID
		order.OrderNumber = generateOrderNumber(order.ID)
		if err := tx.Model(&order).Update("order_number", order.OrderNumber).Error; err != nil {
			return err
		}

		for _, line := range req.Lines {
			if err := r.reserveStock(tx, line); err != nil {
				return err
			}
			item := OrderItem{
				OrderID:    order.ID,
				ProductID:  line.ProductID,
				VariantID:  line.VariantID,
				SellerID:   line.SellerID,
				Title:      line.Title,
				Quantity:   line.Quantity,
				UnitPrice:  line.UnitPrice,
				TotalPrice: line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2),
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Network(err, "failed to create order")
	}

	r.log.WithFields(logrus.Fields{
		"order_number": order.OrderNumber,
		"total":        order.TotalAmount,
	}).Info("order created")

	return &checkout.OrderRef{ID: order.ID, OrderNumber: order.OrderNumber}, nil
}

// Available implements the inventory checker. A product without a
// stock row is untracked and always passes the gate.
func (r *Repository) Available(ctx context.Context, productID uint, variantID *uint) (int, bool, error) {
	var stock ProductStock
	query := r.db.WithContext(ctx).Where("product_id = ?", productID)
	if variantID == nil {
		query = query.Where("variant_id IS NULL")
	} else {
		query = query.Where("variant_id = ?", *variantID)
	}

	err := query.First(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return stock.Quantity, stock.Tracked, nil
}

// Private helper methods

func (r *Repository) reserveStock(tx *gorm.DB, line checkout.OrderLine) error {
	var stock ProductStock
	query := tx.Where("product_id = ?", line.ProductID)
	if line.VariantID == nil {
		query = query.Where("variant_id IS NULL")
	} else {
		query = query.Where("variant_id = ?", *line.VariantID)
	}

	err := query.First(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil // untracked product
	}
	if err != nil {
		return err
	}
	if !stock.Tracked {
		return nil
	}
	// Conditional decrement so two orders racing over the same row can
	// never both pass the check: the quantity guard runs inside the
	// UPDATE itself, and a row drained by a concurrent transaction
	// shows up as zero rows affected.
	result := tx.Model(&ProductStock{}).
		Where("id = ? AND quantity >= ?", stock.ID, line.Quantity).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", line.Quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.Conflict("requested quantity %d exceeds available stock %d", line.Quantity, stock.Quantity)
	}
	return nil
}

func generateOrderNumber(orderID uint) string {
	return fmt.Sprintf("ORD-%s-%06d", time.Now().UTC().Format("20060102"), orderID)
}
