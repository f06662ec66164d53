// internal/domain/inventory/classify_test.go
package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elsharkawy159/tallaby-sub003/internal/domain/inventory"
	"github.com/elsharkawy159/tallaby-sub003/internal/pkg/apperrors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		quantity int
		want     inventory.StockTier
	}{
		{-3, inventory.TierOutOfStock},
		{0, inventory.TierOutOfStock},
		{1, inventory.TierCriticalStock},
		{5, inventory.TierCriticalStock},
		{6, inventory.TierLowStock},
		{10, inventory.TierLowStock},
		{11, inventory.TierInStock},
		{1000, inventory.TierInStock},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, inventory.Classify(tt.quantity), "quantity %d", tt.quantity)
	}
}

func TestClassifyWithThresholds(t *testing.T) {
	// A store with tighter bands
	assert.Equal(t, inventory.TierCriticalStock, inventory.ClassifyWithThresholds(2, 4, 2))
	assert.Equal(t, inventory.TierLowStock, inventory.ClassifyWithThresholds(3, 4, 2))
	assert.Equal(t, inventory.TierInStock, inventory.ClassifyWithThresholds(5, 4, 2))
}

func TestValidateRequested(t *testing.T) {
	// Untracked products always pass
	assert.NoError(t, inventory.ValidateRequested(100, 0, false))

	// Tracked products cap at available stock
	assert.NoError(t, inventory.ValidateRequested(3, 3, true))

	err := inventory.ValidateRequested(4, 3, true)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}
