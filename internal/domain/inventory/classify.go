// internal/domain/inventory/classify.go
package inventory

import (
	"context"

	"github.com/elsharkawy159/tallaby-sub003/internal/pkg/apperrors"
)

// StockTier represents the display tier derived from a stock quantity
type StockTier string

const (
	TierOutOfStock    StockTier = "out_of_stock"
	TierCriticalStock StockTier = "critical_stock"
	TierLowStock      StockTier = "low_stock"
	TierInStock       StockTier = "in_stock"
)

// Default thresholds used by the dashboard and the storefront
const (
	DefaultLowStockThreshold      = 10
	DefaultCriticalStockThreshold = 5
)

// Classify maps a quantity to its tier using the default thresholds
func Classify(quantity int) StockTier {
	return ClassifyWithThresholds(quantity, DefaultLowStockThreshold, DefaultCriticalStockThreshold)
}

// ClassifyWithThresholds maps a quantity to exactly one tier.
// Boundaries are inclusive on the upper end: quantity equal to the
// critical threshold is critical, equal to the low threshold is low.
func ClassifyWithThresholds(quantity, lowThreshold, criticalThreshold int) StockTier {
	switch {
	case quantity <= 0:
		return TierOutOfStock
	case quantity <= criticalThreshold:
		return TierCriticalStock
	case quantity <= lowThreshold:
		return TierLowStock
	default:
		return TierInStock
	}
}

// ValidateRequested is the submission-time gate: an order line
// requesting more than the available quantity fails validation, it is
// never silently clamped. Untracked products always pass.
func ValidateRequested(requested, available int, tracked bool) error {
	if !tracked {
		return nil
	}
	if requested > available {
		return apperrors.Conflict("requested quantity %d exceeds available stock %d", requested, available)
	}
	return nil
}

// Checker reports availability for a product or variant. Implemented
// by the stock store; the bool reports whether quantity is tracked.
type Checker interface {
	Available(ctx context.Context, productID uint, variantID *uint) (quantity int, tracked bool, err error)
}
