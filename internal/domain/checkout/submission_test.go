// internal/domain/checkout/submission_test.go
package checkout_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elsharkawy159/tallaby-sub003/internal/domain/cart"
	"github.com/elsharkawy159/tallaby-sub003/internal/domain/checkout"
	"github.com/elsharkawy159/tallaby-sub003/internal/pkg/apperrors"
	"github.com/elsharkawy159/tallaby-sub003/internal/pkg/identity"
)

// mapKV is an in-memory cart.KeyValueStorage for guest persistence
type mapKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapKV() *mapKV {
	return &mapKV{data: make(map[string]string)}
}

func (m *mapKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	return value, ok, nil
}

func (m *mapKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mapKV) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// unusedRemote satisfies cart.ReadWriteService for guest-only engines;
// nothing in these tests should reach the remote cart service.
type unusedRemote struct{}

func (unusedRemote) FetchCart(ctx context.Context, identity cart.Identity) (*cart.Cart, error) {
	return nil, apperrors.Network(nil, "unexpected remote call")
}
func (unusedRemote) AddLine(ctx context.Context, identity cart.Identity, req cart.AddRequest) error {
	return apperrors.Network(nil, "unexpected remote call")
}
func (unusedRemote) UpdateLine(ctx context.Context, identity cart.Identity, lineID string, quantity int) error {
	return apperrors.Network(nil, "unexpected remote call")
}
func (unusedRemote) RemoveLine(ctx context.Context, identity cart.Identity, lineID string) error {
	return apperrors.Network(nil, "unexpected remote call")
}
func (unusedRemote) ClearCart(ctx context.Context, identity cart.Identity) error {
	return apperrors.Network(nil, "unexpected remote call")
}
func (unusedRemote) SetSavedForLater(ctx context.Context, identity cart.Identity, lineID string, saved bool) error {
	return apperrors.Network(nil, "unexpected remote call")
}
func (unusedRemote) MergeGuestCart(ctx context.Context, identity cart.Identity, guestToken string) error {
	return apperrors.Network(nil, "unexpected remote call")
}

// recordingOrders captures order creation requests
type recordingOrders struct {
	mu        sync.Mutex
	requests  []checkout.CreateOrderRequest
	createErr error
}

func (r *recordingOrders) CreateOrder(ctx context.Context, req checkout.CreateOrderRequest) (*checkout.OrderRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.requests = append(r.requests, req)
	return &checkout.OrderRef{ID: uint(len(r.requests)), OrderNumber: "ORD-20260830-000001"}, nil
}

// mapStock is a fixed stock table keyed by product ID
type mapStock map[uint]int

func (m mapStock) Available(ctx context.Context, productID uint, variantID *uint) (int, bool, error) {
	quantity, ok := m[productID]
	if !ok {
		return 0, false, nil
	}
	return quantity, true, nil
}

func newGuestEngine(t *testing.T) *cart.Service {
	t.Helper()
	return cart.NewService(unusedRemote{}, identity.StaticProvider{}, newMapKV(), cart.ServiceConfig{
		Scope:    "checkout-test",
		Currency: "USD",
	})
}

func seededEngine(t *testing.T) *cart.Service {
	t.Helper()
	engine := newGuestEngine(t)
	err := engine.Add(context.Background(), cart.AddRequest{
		ProductID: 1,
		Quantity:  2,
		UnitPrice: "25.00",
		Currency:  "USD",
		Snapshot:  cart.ProductSnapshot{Title: "Widget"},
	})
	require.NoError(t, err)
	return engine
}

func validSubmit() checkout.SubmitRequest {
	return checkout.SubmitRequest{
		ShippingAddressID: 11,
		PaymentMethod:     "card",
		TermsAccepted:     true,
		ShippingCost:      money("5.00"),
	}
}

func TestSubmitPreconditions(t *testing.T) {
	orders := &recordingOrders{}
	submission := checkout.NewSubmission(orders, nil, true, nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*checkout.SubmitRequest)
	}{
		{"missing shipping address", func(r *checkout.SubmitRequest) { r.ShippingAddressID = 0 }},
		{"missing payment method", func(r *checkout.SubmitRequest) { r.PaymentMethod = "" }},
		{"terms not accepted", func(r *checkout.SubmitRequest) { r.TermsAccepted = false }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := seededEngine(t)
			req := validSubmit()
			tt.mutate(&req)

			_, err := submission.Submit(ctx, engine, req)
			assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
			assert.Empty(t, orders.requests)
		})
	}
}

func TestSubmitEmptyCart(t *testing.T) {
	orders := &recordingOrders{}
	submission := checkout.NewSubmission(orders, nil, true, nil)
	engine := newGuestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.Fetch(ctx))

	_, err := submission.Submit(ctx, engine, validSubmit())
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestSubmitStockGate(t *testing.T) {
	orders := &recordingOrders{}
	submission := checkout.NewSubmission(orders, mapStock{1: 1}, true, nil)
	engine := seededEngine(t) // wants quantity 2, only 1 available
	ctx := context.Background()

	_, err := submission.Submit(ctx, engine, validSubmit())
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	assert.Empty(t, orders.requests)

	// The cart is untouched
	assert.Equal(t, 2, engine.ItemCount())
}

func TestSubmitOrderFailureLeavesCart(t *testing.T) {
	orders := &recordingOrders{createErr: apperrors.Network(nil, "order service unavailable")}
	submission := checkout.NewSubmission(orders, nil, true, nil)
	engine := seededEngine(t)
	ctx := context.Background()

	_, err := submission.Submit(ctx, engine, validSubmit())
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNetwork))
	assert.Equal(t, 2, engine.ItemCount())
}

func TestSubmitSuccess(t *testing.T) {
	orders := &recordingOrders{}
	submission := checkout.NewSubmission(orders, mapStock{1: 10}, true, nil)
	engine := seededEngine(t)
	ctx := context.Background()

	result, err := submission.Submit(ctx, engine, validSubmit())
	require.NoError(t, err)
	assert.Equal(t, "ORD-20260830-000001", result.OrderNumber)

	// The order request carries the derived summary and the lines
	require.Len(t, orders.requests, 1)
	req := orders.requests[0]
	assert.True(t, req.Summary.Subtotal.Equal(money("50.00")), "subtotal %s", req.Summary.Subtotal)
	assert.True(t, req.Summary.Total.Equal(money("55.00")), "total %s", req.Summary.Total)
	require.Len(t, req.Lines, 1)
	assert.Equal(t, "Widget", req.Lines[0].Title)
	assert.Equal(t, 2, req.Lines[0].Quantity)

	// Billing defaults to the shipping address
	assert.Equal(t, uint(11), req.BillingAddressID)

	// The cart is cleared after submission
	assert.Equal(t, 0, engine.ItemCount())
}

func TestSubmitSavedLinesStayBehind(t *testing.T) {
	orders := &recordingOrders{}
	submission := checkout.NewSubmission(orders, nil, true, nil)
	engine := seededEngine(t)
	ctx := context.Background()

	// Add a second line and park it
	require.NoError(t, engine.Add(ctx, cart.AddRequest{ProductID: 2, Quantity: 1, UnitPrice: "99.00", Currency: "USD"}))
	lines := engine.Lines()
	require.Len(t, lines, 2)
	var parked string
	for _, l := range lines {
		if l.ProductID == 2 {
			parked = l.ID
		}
	}
	require.NoError(t, engine.SetSavedForLater(ctx, parked, true))

	_, err := submission.Submit(ctx, engine, validSubmit())
	require.NoError(t, err)

	// Only the active line was ordered
	require.Len(t, orders.requests, 1)
	require.Len(t, orders.requests[0].Lines, 1)
	assert.Equal(t, uint(1), orders.requests[0].Lines[0].ProductID)
}
