package service

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-ledger/internal/domain"
	"stock-ledger/internal/kvstore"
	"stock-ledger/internal/ledger"
	"stock-ledger/internal/repository/kv"
)

// countingStore records every write that reaches the backend.
type countingStore struct {
	*kvstore.MemoryStore
	writes int
}

func (s *countingStore) Set(ctx context.Context, key string, value []byte) error {
	s.writes++
	return s.MemoryStore.Set(ctx, key, value)
}

func (s *countingStore) SetMany(ctx context.Context, values map[string][]byte) error {
	s.writes++
	return s.MemoryStore.SetMany(ctx, values)
}

type fixture struct {
	store   *countingStore
	adapter *kvstore.Adapter
	inv     Inventory
	clock   time.Time
	seq     int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: &countingStore{MemoryStore: kvstore.NewMemoryStore()},
		clock: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
	}
	logger, _ := test.NewNullLogger()
	f.adapter = kvstore.NewAdapter(f.store, logger)
	f.inv = Open(context.Background(), f.adapter, f.config())
	return f
}

func (f *fixture) config() Config {
	logger, _ := test.NewNullLogger()
	return Config{
		Logger: logger,
		Now: func() time.Time {
			f.clock = f.clock.Add(time.Second)
			return f.clock
		},
		NewID: func() string {
			f.seq++
			return fmt.Sprintf("id-%03d", f.seq)
		},
	}
}

func (f *fixture) reopen() Inventory {
	return Open(context.Background(), f.adapter, f.config())
}

func countTypes(txs []domain.Transaction, productID string) map[domain.TransactionType]int {
	out := map[domain.TransactionType]int{}
	for _, tx := range txs {
		if tx.ProductID == productID {
			out[tx.Type]++
		}
	}
	return out
}

func TestWidgetScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.inv.RegisterProduct(ctx, "A1", "Widget", "9.99", "3")
	require.NoError(t, err)
	assert.Equal(t, 3, p.Quantity)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("9.99")))
	require.Len(t, f.inv.ListProducts(ctx), 1)

	txs := f.inv.ListTransactions(ctx, 1, 10).Items
	require.Len(t, txs, 1)
	assert.Equal(t, domain.TransactionInitial, txs[0].Type)
	assert.Equal(t, 3, txs[0].Amount)
	assert.Equal(t, p.ID, txs[0].ProductID)

	res := f.inv.AdjustStock(ctx, p.ID, 2)
	require.True(t, res.Applied())
	assert.Equal(t, 5, res.Product.Quantity)
	require.NotNil(t, res.Transaction)
	assert.Equal(t, domain.TransactionIncrease, res.Transaction.Type)
	assert.Equal(t, 2, res.Transaction.Amount)
	assert.True(t, res.Product.LastUpdated.After(p.LastUpdated))

	res = f.inv.AdjustStock(ctx, p.ID, -10)
	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.Equal(t, 5, res.Product.Quantity)
	assert.Nil(t, res.Transaction)

	got, ok := f.inv.FindProduct(ctx, p.ID)
	require.True(t, ok)
	assert.Equal(t, 5, got.Quantity)
	assert.Equal(t, 2, f.inv.ListTransactions(ctx, 1, 10).Total)
}

func TestRejectedAdjustmentIsInvisible(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.inv.RegisterProduct(ctx, "A1", "Widget", "1", "1")
	require.NoError(t, err)

	writes := f.store.writes
	before, _, _ := f.store.Get(ctx, kvstore.KeyProducts)

	res := f.inv.AdjustStock(ctx, p.ID, -2)
	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.Equal(t, p, res.Product)

	after, _, _ := f.store.Get(ctx, kvstore.KeyProducts)
	assert.Equal(t, writes, f.store.writes, "no persistence on rejection")
	assert.Equal(t, before, after)
	assert.Equal(t, 1, f.inv.ListTransactions(ctx, 1, 10).Total)
}

func TestAdjustUnknownProductIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	writes := f.store.writes

	res := f.inv.AdjustStock(ctx, "missing", 5)
	assert.Equal(t, OutcomeNotFound, res.Outcome)
	assert.Equal(t, domain.Product{}, res.Product)
	assert.Empty(t, f.inv.ListProducts(ctx))
	assert.Zero(t, f.inv.ListTransactions(ctx, 1, 10).Total)
	assert.Equal(t, writes, f.store.writes)
}

func TestZeroDeltaIsRecordedAsDecrease(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.inv.RegisterProduct(ctx, "Z", "Zero", "2", "0")
	require.NoError(t, err)

	res := f.inv.AdjustStock(ctx, p.ID, 0)
	require.True(t, res.Applied())
	assert.Equal(t, domain.TransactionDecrease, res.Transaction.Type)
	assert.Equal(t, 0, res.Transaction.Amount)
	assert.Equal(t, 0, res.Product.Quantity)
}

func TestDecreaseToExactlyZero(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.inv.RegisterProduct(ctx, "A1", "Widget", "2", "4")
	require.NoError(t, err)

	res := f.inv.AdjustStock(ctx, p.ID, -4)
	require.True(t, res.Applied())
	assert.Equal(t, 0, res.Product.Quantity)
	assert.Equal(t, domain.TransactionDecrease, res.Transaction.Type)
	assert.Equal(t, 4, res.Transaction.Amount)
}

func TestRegisterProductRecordsExactlyOneInitial(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 40; i++ {
		qty := rng.Intn(500)
		price := fmt.Sprintf("%d.%02d", rng.Intn(1000), 1+rng.Intn(99))
		p, err := f.inv.RegisterProduct(ctx, fmt.Sprintf("SKU-%d", i), "Item", price, fmt.Sprint(qty))
		require.NoError(t, err)

		history, ok := f.inv.ProductHistory(ctx, p.ID)
		require.True(t, ok)
		require.Len(t, history, 1)
		assert.Equal(t, domain.TransactionInitial, history[0].Type)
		assert.Equal(t, qty, history[0].Amount)
	}
	assert.Len(t, f.inv.ListProducts(ctx), 40)
	assert.Equal(t, 40, f.inv.ListTransactions(ctx, 1, 10).Total)
}

func TestRandomAdjustmentsNeverGoNegative(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rng := rand.New(rand.NewSource(42))

	p, err := f.inv.RegisterProduct(ctx, "A1", "Widget", "3.50", "5")
	require.NoError(t, err)

	expected := 5
	accepted := 0
	for i := 0; i < 500; i++ {
		delta := rng.Intn(21) - 10
		res := f.inv.AdjustStock(ctx, p.ID, delta)

		require.GreaterOrEqual(t, res.Product.Quantity, 0)
		if expected+delta < 0 {
			require.Equal(t, OutcomeRejected, res.Outcome)
			continue
		}
		require.True(t, res.Applied())
		expected += delta
		accepted++
		require.Equal(t, expected, res.Product.Quantity)
	}

	got, _ := f.inv.FindProduct(ctx, p.ID)
	assert.Equal(t, expected, got.Quantity)

	history, _ := f.inv.ProductHistory(ctx, p.ID)
	counts := countTypes(history, p.ID)
	assert.Equal(t, 1, counts[domain.TransactionInitial])
	assert.Equal(t, accepted, counts[domain.TransactionIncrease]+counts[domain.TransactionDecrease])
}

func TestValidationErrorsLeaveStateUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	writes := f.store.writes

	_, err := f.inv.RegisterProduct(ctx, "A1", "Widget", "0", "3")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.inv.RegisterProduct(ctx, "A1", "Widget", "1", "-3")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.inv.RegisterUser(ctx, "Ada", "abc")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.inv.RegisterUser(ctx, "", "a@b.com")
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Empty(t, f.inv.ListProducts(ctx))
	assert.Empty(t, f.inv.ListUsers(ctx))
	assert.Zero(t, f.inv.ListTransactions(ctx, 1, 10).Total)
	assert.Equal(t, writes, f.store.writes)
}

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	u, err := f.inv.RegisterUser(ctx, "Ada Lovelace", "a@b.com")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	// duplicate emails are allowed
	_, err = f.inv.RegisterUser(ctx, "Ada Again", "a@b.com")
	require.NoError(t, err)

	users := f.inv.ListUsers(ctx)
	require.Len(t, users, 2)
	assert.Equal(t, u, users[0])
	assert.Zero(t, f.inv.ListTransactions(ctx, 1, 10).Total, "users do not touch the ledger")
}

func TestListingIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		p, err := f.inv.RegisterProduct(ctx, fmt.Sprintf("S%d", i), "Item", "1", "2")
		require.NoError(t, err)
		f.inv.AdjustStock(ctx, p.ID, 1)
	}

	assert.Equal(t, f.inv.ListProducts(ctx), f.inv.ListProducts(ctx))
	assert.Equal(t, f.inv.ListUsers(ctx), f.inv.ListUsers(ctx))
	assert.Equal(t, f.inv.ListTransactions(ctx, 1, 10), f.inv.ListTransactions(ctx, 1, 10))
}

func TestStateSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.inv.RegisterUser(ctx, "Ada", "a@b.com")
	require.NoError(t, err)
	p, err := f.inv.RegisterProduct(ctx, "A1", "Widget", "9.99", "3")
	require.NoError(t, err)
	f.inv.AdjustStock(ctx, p.ID, 2)

	reopened := f.reopen()
	assert.Equal(t, f.inv.ListUsers(ctx), reopened.ListUsers(ctx))

	got, ok := reopened.FindProduct(ctx, p.ID)
	require.True(t, ok)
	assert.Equal(t, 5, got.Quantity)
	assert.True(t, got.Price.Equal(p.Price))

	txs := reopened.ListTransactions(ctx, 1, 10).Items
	require.Len(t, txs, 2)
	assert.Equal(t, domain.TransactionIncrease, txs[0].Type)
	assert.Equal(t, domain.TransactionInitial, txs[1].Type)

	// adjustments continue against the rehydrated state
	res := reopened.AdjustStock(ctx, p.ID, -5)
	require.True(t, res.Applied())
	assert.Equal(t, 0, res.Product.Quantity)
}

func TestCorruptTableFallsBackPerKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.inv.RegisterUser(ctx, "Ada", "a@b.com")
	require.NoError(t, err)
	_, err = f.inv.RegisterProduct(ctx, "A1", "Widget", "9.99", "3")
	require.NoError(t, err)

	require.NoError(t, f.store.MemoryStore.Set(ctx, kvstore.KeyProducts, []byte(`{"legacy":true}`)))

	reopened := f.reopen()
	assert.Empty(t, reopened.ListProducts(ctx), "incompatible products table is dropped")
	assert.Len(t, reopened.ListUsers(ctx), 1, "other keys still load")
	assert.Equal(t, 1, reopened.ListTransactions(ctx, 1, 10).Total)
}

func TestProductHistoryUnknownProduct(t *testing.T) {
	f := newFixture(t)
	_, ok := f.inv.ProductHistory(context.Background(), "nope")
	assert.False(t, ok)
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	a, err := f.inv.RegisterProduct(ctx, "A1", "Widget", "9.99", "3")
	require.NoError(t, err)
	_, err = f.inv.RegisterProduct(ctx, "B2", "Gadget", "0.50", "10")
	require.NoError(t, err)
	f.inv.AdjustStock(ctx, a.ID, 2)
	_, err = f.inv.RegisterUser(ctx, "Ada", "a@b.com")
	require.NoError(t, err)

	sum := f.inv.Summary(ctx)
	assert.Equal(t, 1, sum.Users)
	assert.Equal(t, 2, sum.Products)
	assert.Equal(t, 15, sum.TotalUnits)
	assert.Equal(t, "54.95", sum.StockValue.String())
	assert.Equal(t, 3, sum.Transactions)
}

func TestSQLiteCommitWritesBothTables(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stock.db")

	db, err := kvstore.Open(path)
	require.NoError(t, err)
	store := kvstore.NewSQLiteStore(db)
	require.NoError(t, store.Init(ctx))

	inv := Open(ctx, kvstore.NewAdapter(store, nil), Config{})
	p, err := inv.RegisterProduct(ctx, "A1", "Widget", "9.99", "3")
	require.NoError(t, err)
	inv.AdjustStock(ctx, p.ID, -1)
	require.NoError(t, db.Close())

	db, err = kvstore.Open(path)
	require.NoError(t, err)
	defer db.Close()
	reopened := Open(ctx, kvstore.NewAdapter(kvstore.NewSQLiteStore(db), nil), Config{})

	got, ok := reopened.FindProduct(ctx, p.ID)
	require.True(t, ok)
	assert.Equal(t, 2, got.Quantity)
	history, _ := reopened.ProductHistory(ctx, p.ID)
	require.Len(t, history, 2)
	assert.Equal(t, domain.TransactionDecrease, history[0].Type)
	assert.Equal(t, 1, history[0].Amount)
}

func TestNewUsesTablesAsGiven(t *testing.T) {
	ctx := context.Background()
	adapter := kvstore.NewAdapter(kvstore.NewMemoryStore(), nil)
	adapter.Save(ctx, kvstore.KeyProducts, []domain.Product{{ID: "stale", Quantity: 1}})

	products := kv.NewProductRepository(adapter)
	products.Append(domain.Product{ID: "p-1", SKU: "A1", Name: "Widget", Price: decimal.NewFromInt(1), Quantity: 2})

	inv := New(adapter, kv.NewUserRepository(adapter), products, ledger.New(adapter), Config{})
	_, ok := inv.FindProduct(ctx, "stale")
	assert.False(t, ok)

	res := inv.AdjustStock(ctx, "p-1", 1)
	require.True(t, res.Applied())
	assert.Equal(t, 3, res.Product.Quantity)
}
