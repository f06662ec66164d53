// internal/infrastructure/orderrepo/repository_test.go
package orderrepo_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/elsharkawy159/tallaby-sub003/internal/domain/checkout"
	"github.com/elsharkawy159/tallaby-sub003/internal/infrastructure/orderrepo"
	"github.com/elsharkawy159/tallaby-sub003/internal/pkg/apperrors"
)

func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:17.6-alpine3.22",
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(pgdriver.Open(connStr), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&orderrepo.Order{}, &orderrepo.OrderItem{}, &orderrepo.ProductStock{}))
	return db
}

func orderRequest(productID uint, quantity int) checkout.CreateOrderRequest {
	price := decimal.RequireFromString("25.00")
	subtotal := price.Mul(decimal.NewFromInt(int64(quantity)))
	return checkout.CreateOrderRequest{
		CartID:            "cart-9",
		AccountID:         9,
		ShippingAddressID: 1,
		BillingAddressID:  1,
		PaymentMethod:     "card",
		Lines: []checkout.OrderLine{{
			ProductID: productID,
			SellerID:  2,
			Title:     "Widget",
			Quantity:  quantity,
			UnitPrice: price,
		}},
		Summary: checkout.Summary{
			Subtotal:  subtotal,
			Total:     subtotal,
			ItemCount: quantity,
			Currency:  "USD",
		},
	}
}

func TestCreateOrderReservesStock(t *testing.T) {
	db := startPostgres(t)
	repo := orderrepo.NewRepository(db, nil)
	ctx := context.Background()

	require.NoError(t, db.Create(&orderrepo.ProductStock{ProductID: 1, Quantity: 5, Tracked: true}).Error)

	ref, err := repo.CreateOrder(ctx, orderRequest(1, 2))
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.NotZero(t, ref.ID)
	assert.Contains(t, ref.OrderNumber, "ORD-")

	available, tracked, err := repo.Available(ctx, 1, nil)
	require.NoError(t, err)
	assert.True(t, tracked)
	assert.Equal(t, 3, available)

	var items []orderrepo.OrderItem
	require.NoError(t, db.Where("order_id = ?", ref.ID).Find(&items).Error)
	require.Len(t, items, 1)
	assert.True(t, items[0].TotalPrice.Equal(decimal.RequireFromString("50.00")))
}

func TestCreateOrderUntrackedProductPasses(t *testing.T) {
	db := startPostgres(t)
	repo := orderrepo.NewRepository(db, nil)
	ctx := context.Background()

	// No stock row at all for product 7, an explicitly untracked row
	// for product 8; neither gates the order.
	require.NoError(t, db.Create(&orderrepo.ProductStock{ProductID: 8, Quantity: 0, Tracked: false}).Error)

	_, err := repo.CreateOrder(ctx, orderRequest(7, 3))
	require.NoError(t, err)

	_, err = repo.CreateOrder(ctx, orderRequest(8, 3))
	require.NoError(t, err)

	available, tracked, err := repo.Available(ctx, 7, nil)
	require.NoError(t, err)
	assert.False(t, tracked)
	assert.Zero(t, available)
}

func TestCreateOrderOversellConflict(t *testing.T) {
	db := startPostgres(t)
	repo := orderrepo.NewRepository(db, nil)
	ctx := context.Background()

	require.NoError(t, db.Create(&orderrepo.ProductStock{ProductID: 1, Quantity: 1, Tracked: true}).Error)

	_, err := repo.CreateOrder(ctx, orderRequest(1, 1))
	require.NoError(t, err)

	_, err = repo.CreateOrder(ctx, orderRequest(1, 1))
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	var stock orderrepo.ProductStock
	require.NoError(t, db.Where("product_id = ?", 1).First(&stock).Error)
	assert.Equal(t, 0, stock.Quantity)

	// The conflicted order left nothing behind
	var count int64
	require.NoError(t, db.Model(&orderrepo.Order{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateOrderConcurrentOversell(t *testing.T) {
	db := startPostgres(t)
	repo := orderrepo.NewRepository(db, nil)
	ctx := context.Background()

	require.NoError(t, db.Create(&orderrepo.ProductStock{ProductID: 1, Quantity: 1, Tracked: true}).Error)

	// Two orders race over the last unit; the conditional decrement
	// admits exactly one and the row never goes negative.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.CreateOrder(ctx, orderRequest(1, 1))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperrors.IsKind(err, apperrors.KindConflict), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	var stock orderrepo.ProductStock
	require.NoError(t, db.Where("product_id = ?", 1).First(&stock).Error)
	assert.Equal(t, 0, stock.Quantity)
}
