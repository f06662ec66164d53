// internal/infrastructure/cartrepo/repository_test.go
package cartrepo_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/elsharkawy159/tallaby-sub003/internal/domain/cart"
	"github.com/elsharkawy159/tallaby-sub003/internal/infrastructure/cartrepo"
)

// kvStore is an in-memory KeyValueStorage standing in for Redis
type kvStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newKVStore() *kvStore {
	return &kvStore{data: make(map[string]string)}
}

func (s *kvStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.data[key]
	return value, ok, nil
}

func (s *kvStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *kvStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func startCartPostgres(t *testing.T) *gorm.DB {
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
	require.NoError(t, db.AutoMigrate(&cartrepo.CartLineRow{}))
	return db
}

// saveGuestCart writes a guest cart record under a fresh session token
// and returns the token, the same shape the storefront persists.
func saveGuestCart(t *testing.T, kv cart.KeyValueStorage, lines []cart.Line) string {
	t.Helper()
	ctx := context.Background()

	sessions := cart.NewSessionManager(kv, "merge-test-scope")
	token, err := sessions.Token(ctx)
	require.NoError(t, err)

	guestCart := cart.NewEmptyCart(cart.GuestIdentity(token), "USD")
	guestCart.Lines = lines
	require.NoError(t, cart.NewGuestStore(kv, sessions, 0).Save(ctx, guestCart))
	return token
}

func TestMergeGuestCartSumsQuantities(t *testing.T) {
	db := startCartPostgres(t)
	kv := newKVStore()
	repo := cartrepo.NewRepository(db, kv, nil)
	ctx := context.Background()
	identity := cart.AccountIdentity(9)

	// The account already holds product 1
	require.NoError(t, repo.AddLine(ctx, identity, cart.AddRequest{
		ProductID: 1,
		Quantity:  2,
		UnitPrice: "10.00",
		Currency:  "USD",
		Snapshot:  cart.ProductSnapshot{Title: "Widget"},
	}))

	token := saveGuestCart(t, kv, []cart.Line{
		{
			ID:        "guest-1",
			ProductID: 1,
			Quantity:  3,
			UnitPrice: decimal.RequireFromString("10.00"),
			Currency:  "USD",
			Snapshot:  cart.ProductSnapshot{Title: "Widget"},
		},
		{
			ID:        "guest-2",
			ProductID: 2,
			Quantity:  1,
			UnitPrice: decimal.RequireFromString("4.50"),
			Currency:  "USD",
			Snapshot:  cart.ProductSnapshot{Title: "Gadget", Brand: "Acme"},
		},
	})

	require.NoError(t, repo.MergeGuestCart(ctx, identity, token))

	merged, err := repo.FetchCart(ctx, identity)
	require.NoError(t, err)
	require.Len(t, merged.Lines, 2)

	byProduct := make(map[uint]cart.Line, len(merged.Lines))
	for _, line := range merged.Lines {
		byProduct[line.ProductID] = line
	}

	// Overlapping product: quantities summed into the existing row
	assert.Equal(t, 5, byProduct[1].Quantity)
	// New product: inserted with its snapshot intact
	assert.Equal(t, 1, byProduct[2].Quantity)
	assert.Equal(t, "Gadget", byProduct[2].Snapshot.Title)
	assert.Equal(t, "Acme", byProduct[2].Snapshot.Brand)
	assert.True(t, byProduct[2].UnitPrice.Equal(decimal.RequireFromString("4.50")))
}

func TestMergeGuestCartVariantsStaySeparate(t *testing.T) {
	db := startCartPostgres(t)
	kv := newKVStore()
	repo := cartrepo.NewRepository(db, kv, nil)
	ctx := context.Background()
	identity := cart.AccountIdentity(9)

	variant := uint(11)
	require.NoError(t, repo.AddLine(ctx, identity, cart.AddRequest{
		ProductID: 1,
		VariantID: &variant,
		Quantity:  1,
		UnitPrice: "10.00",
		Currency:  "USD",
	}))

	// The guest line is the same product without a variant; it must
	// not be folded into the variant row.
	token := saveGuestCart(t, kv, []cart.Line{{
		ID:        "guest-1",
		ProductID: 1,
		Quantity:  2,
		UnitPrice: decimal.RequireFromString("10.00"),
		Currency:  "USD",
	}})

	require.NoError(t, repo.MergeGuestCart(ctx, identity, token))

	merged, err := repo.FetchCart(ctx, identity)
	require.NoError(t, err)
	require.Len(t, merged.Lines, 2)
}

func TestMergeGuestCartMissingRecordIsNoOp(t *testing.T) {
	db := startCartPostgres(t)
	kv := newKVStore()
	repo := cartrepo.NewRepository(db, kv, nil)
	ctx := context.Background()
	identity := cart.AccountIdentity(9)

	require.NoError(t, repo.MergeGuestCart(ctx, identity, "never-stored"))
	require.NoError(t, repo.MergeGuestCart(ctx, identity, ""))

	merged, err := repo.FetchCart(ctx, identity)
	require.NoError(t, err)
	assert.Empty(t, merged.Lines)
}
