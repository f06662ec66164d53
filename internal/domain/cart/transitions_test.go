// internal/domain/cart/transitions_test.go
package cart

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elsharkawy159/tallaby-sub003/internal/pkg/apperrors"
)

func guestSnapshot(t *testing.T) *Cart {
	t.Helper()
	return NewEmptyCart(GuestIdentity("tok-1"), "USD")
}

func TestApplyAdd(t *testing.T) {
	variant := uint(7)

	tests := []struct {
		name      string
		req       AddRequest
		wantError bool
	}{
		{
			name: "new line",
			req:  AddRequest{ProductID: 1, Quantity: 2, UnitPrice: "19.99", Currency: "USD"},
		},
		{
			name: "new line with variant",
			req:  AddRequest{ProductID: 1, VariantID: &variant, Quantity: 1, UnitPrice: "5.00", Currency: "USD"},
		},
		{
			name:      "zero quantity",
			req:       AddRequest{ProductID: 1, Quantity: 0},
			wantError: true,
		},
		{
			name:      "negative price",
			req:       AddRequest{ProductID: 1, Quantity: 1, UnitPrice: "-3.00"},
			wantError: true,
		},
		{
			name:      "unparseable price",
			req:       AddRequest{ProductID: 1, Quantity: 1, UnitPrice: "abc"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := guestSnapshot(t)

			next, err := applyAdd(snapshot, tt.req)
			if tt.wantError {
				require.Error(t, err)
				assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
				return
			}
			require.NoError(t, err)

			require.Len(t, next.Lines, 1)
			assert.Equal(t, tt.req.Quantity, next.Lines[0].Quantity)
			assert.True(t, strings.HasPrefix(next.Lines[0].ID, "guest-"))

			// The snapshot itself stays untouched
			assert.Empty(t, snapshot.Lines)
		})
	}
}

func TestApplyAddMergesSameProductVariant(t *testing.T) {
	snapshot := guestSnapshot(t)

	next, err := applyAdd(snapshot, AddRequest{ProductID: 42, Quantity: 1, UnitPrice: "10.00", Currency: "USD"})
	require.NoError(t, err)

	next, err = applyAdd(next, AddRequest{ProductID: 42, Quantity: 2, UnitPrice: "10.00", Currency: "USD"})
	require.NoError(t, err)

	require.Len(t, next.Lines, 1)
	assert.Equal(t, 3, next.Lines[0].Quantity)
}

func TestApplyAddDistinctVariantsStaySeparate(t *testing.T) {
	snapshot := guestSnapshot(t)
	red, blue := uint(1), uint(2)

	next, err := applyAdd(snapshot, AddRequest{ProductID: 42, VariantID: &red, Quantity: 1, UnitPrice: "10.00", Currency: "USD"})
	require.NoError(t, err)

	next, err = applyAdd(next, AddRequest{ProductID: 42, VariantID: &blue, Quantity: 1, UnitPrice: "10.00", Currency: "USD"})
	require.NoError(t, err)

	assert.Len(t, next.Lines, 2)
}

func TestApplyAddDoesNotMergeIntoSavedLine(t *testing.T) {
	snapshot := guestSnapshot(t)

	next, err := applyAdd(snapshot, AddRequest{ProductID: 42, Quantity: 1, UnitPrice: "10.00", Currency: "USD"})
	require.NoError(t, err)

	next, err = applySetSavedForLater(next, next.Lines[0].ID, true)
	require.NoError(t, err)

	next, err = applyAdd(next, AddRequest{ProductID: 42, Quantity: 1, UnitPrice: "10.00", Currency: "USD"})
	require.NoError(t, err)

	// One saved line, one fresh active line
	assert.Len(t, next.Lines, 2)
	assert.Len(t, next.ActiveLines(), 1)
}

func TestApplyUpdateQuantity(t *testing.T) {
	snapshot := guestSnapshot(t)
	next, err := applyAdd(snapshot, AddRequest{ProductID: 1, Quantity: 1, UnitPrice: "2.50", Currency: "USD"})
	require.NoError(t, err)
	lineID := next.Lines[0].ID

	updated, err := applyUpdateQuantity(next, lineID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Lines[0].Quantity)

	_, err = applyUpdateQuantity(next, lineID, 0)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = applyUpdateQuantity(next, "missing", 2)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestApplyRemove(t *testing.T) {
	snapshot := guestSnapshot(t)
	next, err := applyAdd(snapshot, AddRequest{ProductID: 1, Quantity: 1, UnitPrice: "2.50", Currency: "USD"})
	require.NoError(t, err)

	removed, err := applyRemove(next, next.Lines[0].ID)
	require.NoError(t, err)
	assert.Empty(t, removed.Lines)

	_, err = applyRemove(next, "missing")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestApplyClear(t *testing.T) {
	snapshot := guestSnapshot(t)
	next, err := applyAdd(snapshot, AddRequest{ProductID: 1, Quantity: 3, UnitPrice: "2.50", Currency: "USD"})
	require.NoError(t, err)

	cleared, err := applyClear(next)
	require.NoError(t, err)
	assert.Empty(t, cleared.Lines)
	assert.True(t, cleared.IsEmpty())
}

func TestSubtotalExcludesSavedLines(t *testing.T) {
	snapshot := guestSnapshot(t)

	next, err := applyAdd(snapshot, AddRequest{ProductID: 1, Quantity: 2, UnitPrice: "10.00", Currency: "USD"})
	require.NoError(t, err)
	next, err = applyAdd(next, AddRequest{ProductID: 2, Quantity: 1, UnitPrice: "5.00", Currency: "USD"})
	require.NoError(t, err)

	saved, err := applySetSavedForLater(next, next.Lines[1].ID, true)
	require.NoError(t, err)

	assert.True(t, saved.Subtotal().Equal(decimal.RequireFromString("20.00")), "got %s", saved.Subtotal())
	assert.Equal(t, 2, saved.ItemCount())
}

func TestLocalLineIDPrefixes(t *testing.T) {
	assert.True(t, strings.HasPrefix(localLineID(GuestIdentity("tok")), "guest-"))
	assert.True(t, strings.HasPrefix(localLineID(AccountIdentity(9)), "pending-"))
}
