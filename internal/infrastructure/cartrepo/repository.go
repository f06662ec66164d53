// internal/infrastructure/cartrepo/repository.go
package cartrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/elsharkawy159/tallaby-sub003/internal/domain/cart"
	"github.com/elsharkawy159/tallaby-sub003/internal/pkg/apperrors"
)

// CartLineRow is a persisted account cart line. Guest carts never
// reach this table; they live in key-value storage until a merge
// consumes them.
type CartLineRow struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	ProductID     uint            `gorm:"not null;index" json:"product_id"`
	VariantID     *uint           `gorm:"index" json:"variant_id"`
	SellerID      uint            `gorm:"index" json:"seller_id"`
	Quantity      int             `gorm:"not null;default:1" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Currency      string          `gorm:"size:3;not null;default:'USD'" json:"currency"`
	SavedForLater bool            `gorm:"not null;default:false" json:"saved_for_later"`
	Title         string          `gorm:"size:255" json:"title"`
	Slug          string          `gorm:"size:255" json:"slug"`
	Images        string          `gorm:"type:text" json:"images"` // JSON-encoded list
	Brand         string          `gorm:"size:100" json:"brand"`
	Seller        string          `gorm:"size:100" json:"seller"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (CartLineRow) TableName() string {
	return "cart_lines"
}

// Repository is the authoritative cart service for account carts,
// backed by Postgres. It also consumes guest cart records from
// key-value storage when merging at login.
type Repository struct {
	db  *gorm.DB
	kv  cart.KeyValueStorage
	log *logrus.Logger
}

// NewRepository creates a cart repository
func NewRepository(db *gorm.DB, kv cart.KeyValueStorage, log *logrus.Logger) *Repository {
	if log == nil {
		log = logrus.New()
	}
	return &Repository{db: db, kv: kv, log: log}
}

// FetchCart returns the account cart for an identity
func (r *Repository) FetchCart(ctx context.Context, identity cart.Identity) (*cart.Cart, error) {
	if err := requireAccount(identity); err != nil {
		return nil, err
	}

	var rows []CartLineRow
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", identity.AccountID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, apperrors.Network(err, "failed to fetch cart")
	}

	result := cart.NewEmptyCart(identity, "USD")
	result.ID = fmt.Sprintf("cart-%d", identity.AccountID)
	for _, row := range rows {
		result.Lines = append(result.Lines, rowToLine(row))
		result.Currency = row.Currency
		if row.UpdatedAt.After(result.LastActivity) {
			result.LastActivity = row.UpdatedAt
		}
	}
	return result, nil
}

// AddLine merges the request into an existing non-saved line for the
// same product and variant, or inserts a new row.
func (r *Repository) AddLine(ctx context.Context, identity cart.Identity, req cart.AddRequest) error {
	if err := requireAccount(identity); err != nil {
		return err
	}
	if req.Quantity < 1 {
		return apperrors.Validation("quantity must be at least 1")
	}

	price, err := parsePrice(req.UnitPrice)
	if err != nil {
		return err
	}

	var existing CartLineRow
	result := r.variantScope(ctx, identity.AccountID, req.ProductID, req.VariantID).
		Where("saved_for_later = ?", false).
		First(&existing)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		images, _ := json.Marshal(req.Snapshot.Images)
		currency := req.Currency
		if currency == "" {
			currency = "USD"
		}
		row := CartLineRow{
			UserID:    identity.AccountID,
			ProductID: req.ProductID,
			VariantID: req.VariantID,
			SellerID:  req.SellerID,
			Quantity:  req.Quantity,
			UnitPrice: price,
			Currency:  currency,
			Title:     req.Snapshot.Title,
			Slug:      req.Snapshot.Slug,
			Images:    string(images),
			Brand:     req.Snapshot.Brand,
			Seller:    req.Snapshot.Seller,
		}
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
			return apperrors.Network(err, "failed to add cart line")
		}
		return nil
	}
	if result.Error != nil {
		return apperrors.Network(result.Error, "failed to look up cart line")
	}

	existing.Quantity += req.Quantity
	existing.UnitPrice = price // refresh to the latest price
	if err := r.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return apperrors.Network(err, "failed to update cart line")
	}
	return nil
}

// UpdateLine sets the quantity of an existing line
func (r *Repository) UpdateLine(ctx context.Context, identity cart.Identity, lineID string, quantity int) error {
	if err := requireAccount(identity); err != nil {
		return err
	}
	if quantity < 1 {
		return apperrors.Validation("quantity must be at least 1")
	}

	rowID, err := parseLineID(lineID)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&CartLineRow{}).
		Where("id = ? AND user_id = ?", rowID, identity.AccountID).
		Update("quantity", quantity)
	if result.Error != nil {
		return apperrors.Network(result.Error, "failed to update cart line")
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("cart line %s not found", lineID)
	}
	return nil
}

// RemoveLine deletes a line from the account cart
func (r *Repository) RemoveLine(ctx context.Context, identity cart.Identity, lineID string) error {
	if err := requireAccount(identity); err != nil {
		return err
	}

	rowID, err := parseLineID(lineID)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", rowID, identity.AccountID).
		Delete(&CartLineRow{})
	if result.Error != nil {
		return apperrors.Network(result.Error, "failed to remove cart line")
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("cart line %s not found", lineID)
	}
	return nil
}

// ClearCart deletes every line of the account cart
func (r *Repository) ClearCart(ctx context.Context, identity cart.Identity) error {
	if err := requireAccount(identity); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", identity.AccountID).
		Delete(&CartLineRow{}).Error; err != nil {
		return apperrors.Network(err, "failed to clear cart")
	}
	return nil
}

// SetSavedForLater toggles a line between the cart and the saved list
func (r *Repository) SetSavedForLater(ctx context.Context, identity cart.Identity, lineID string, saved bool) error {
	if err := requireAccount(identity); err != nil {
		return err
	}

	rowID, err := parseLineID(lineID)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&CartLineRow{}).
		Where("id = ? AND user_id = ?", rowID, identity.AccountID).
		Update("saved_for_later", saved)
	if result.Error != nil {
		return apperrors.Network(result.Error, "failed to update cart line")
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("cart line %s not found", lineID)
	}
	return nil
}

// MergeGuestCart folds the guest cart stored under token into the
// account cart. A missing or already-consumed guest record is a
// no-op, which keeps the merge idempotent from the caller's side.
func (r *Repository) MergeGuestCart(ctx context.Context, identity cart.Identity, token string) error {
	if err := requireAccount(identity); err != nil {
		return err
	}
	if token == "" {
		return nil
	}

	raw, ok, err := r.kv.Get(ctx, cart.GuestCartKey(token))
	if err != nil {
		return apperrors.Network(err, "failed to read guest cart")
	}
	if !ok {
		return nil
	}

	guestCart := cart.DecodeGuestRecord(raw, token)
	if guestCart == nil || guestCart.IsEmpty() {
		return nil
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range guestCart.Lines {
			var existing CartLineRow
			result := withVariant(tx.
				Where("user_id = ? AND product_id = ?", identity.AccountID, line.ProductID), line.VariantID).
				Where("saved_for_later = ?", line.SavedForLater).
				First(&existing)

			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				images, _ := json.Marshal(line.Snapshot.Images)
				row := CartLineRow{
					UserID:        identity.AccountID,
					ProductID:     line.ProductID,
					VariantID:     line.VariantID,
					SellerID:      line.SellerID,
					Quantity:      line.Quantity,
					UnitPrice:     line.UnitPrice,
					Currency:      line.Currency,
					SavedForLater: line.SavedForLater,
					Title:         line.Snapshot.Title,
					Slug:          line.Snapshot.Slug,
					Images:        string(images),
					Brand:         line.Snapshot.Brand,
					Seller:        line.Snapshot.Seller,
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
				continue
			}
			if result.Error != nil {
				return result.Error
			}

			existing.Quantity += line.Quantity
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.Network(err, "failed to merge guest cart")
	}

	r.log.WithFields(logrus.Fields{
		"user_id": identity.AccountID,
		"lines":   len(guestCart.Lines),
	}).Info("guest cart merged into account cart")
	return nil
}

// Private helper methods

func requireAccount(identity cart.Identity) error {
	if identity.Kind != cart.OwnerAccount || identity.AccountID == 0 {
		return apperrors.Authorization("an authenticated account is required")
	}
	return nil
}

func (r *Repository) variantScope(ctx context.Context, userID, productID uint, variantID *uint) *gorm.DB {
	return withVariant(r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID), variantID)
}

func withVariant(query *gorm.DB, variantID *uint) *gorm.DB {
	if variantID == nil {
		return query.Where("variant_id IS NULL")
	}
	return query.Where("variant_id = ?", *variantID)
}

func parseLineID(lineID string) (uint, error) {
	// Locally generated ephemeral IDs are never persisted remotely
	if strings.HasPrefix(lineID, "pending-") || strings.HasPrefix(lineID, "guest-") {
		return 0, apperrors.NotFound("cart line %s not found", lineID)
	}
	rowID, err := strconv.ParseUint(lineID, 10, 64)
	if err != nil {
		return 0, apperrors.Validation("invalid cart line id %q", lineID)
	}
	return uint(rowID), nil
}

func parsePrice(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	price, err := decimal.NewFromString(value)
	if err != nil || price.IsNegative() {
		return decimal.Zero, apperrors.Validation("invalid unit price %q", value)
	}
	return price, nil
}

func rowToLine(row CartLineRow) cart.Line {
	var images []string
	if row.Images != "" {
		_ = json.Unmarshal([]byte(row.Images), &images)
	}
	return cart.Line{
		ID:            strconv.FormatUint(uint64(row.ID), 10),
		ProductID:     row.ProductID,
		VariantID:     row.VariantID,
		SellerID:      row.SellerID,
		Quantity:      row.Quantity,
		UnitPrice:     row.UnitPrice,
		Currency:      row.Currency,
		SavedForLater: row.SavedForLater,
		Snapshot: cart.ProductSnapshot{
			Title:  row.Title,
			Slug:   row.Slug,
			Images: images,
			Brand:  row.Brand,
			Seller: row.Seller,
		},
		AddedAt: row.CreatedAt,
	}
}
