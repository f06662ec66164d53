// internal/infrastructure/orderrepo/entity.go
package orderrepo

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus represents the order status
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order represents a submitted order
type Order struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	OrderNumber string      `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	UserID      *uint       `gorm:"index" json:"user_id"` // Nullable for guest orders
	Status      OrderStatus `gorm:"not null;default:'pending'" json:"status"`

	// Financial information
	SubtotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal_amount"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(12,2)" json:"tax_amount"`
	ShippingAmount decimal.Decimal `gorm:"type:numeric(12,2)" json:"shipping_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(12,2)" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	Currency       string          `gorm:"size:3;default:'USD'" json:"currency"`

	// References into the address book and payment selection
	ShippingAddressID uint   `gorm:"not null" json:"shipping_address_id"`
	BillingAddressID  uint   `gorm:"not null" json:"billing_address_id"`
	PaymentMethod     string `gorm:"not null;size:50" json:"payment_method"`

	// Additional information
	CouponCode  string `gorm:"size:50" json:"coupon_code"`
	Notes       string `gorm:"type:text" json:"notes"`
	IsGift      bool   `gorm:"default:false" json:"is_gift"`
	GiftMessage string `gorm:"type:text" json:"gift_message"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// OrderItem represents a line in an order
type OrderItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	OrderID    uint            `gorm:"not null;index" json:"order_id"`
	ProductID  uint            `gorm:"not null;index" json:"product_id"`
	VariantID  *uint           `gorm:"index" json:"variant_id"`
	SellerID   uint            `gorm:"index" json:"seller_id"`
	Title      string          `gorm:"not null;size:255" json:"title"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ProductStock tracks available quantity per product or variant,
// backing the submission-time inventory gate.
type ProductStock struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	VariantID *uint     `gorm:"index" json:"variant_id"`
	Quantity  int       `gorm:"not null;default:0" json:"quantity"`
	Tracked   bool      `gorm:"not null;default:true" json:"tracked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (ProductStock) TableName() string {
	return "product_stock"
}
