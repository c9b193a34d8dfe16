package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"stock-ledger/internal/domain"
	"stock-ledger/internal/kvstore"
	"stock-ledger/internal/ledger"
	"stock-ledger/internal/repository"
	"stock-ledger/internal/repository/kv"
)

// Inventory is the command interface of the stock ledger. Every call runs to
// completion before the next one starts.
type Inventory interface {
	RegisterUser(ctx context.Context, fullName, email string) (domain.User, error)
	ListUsers(ctx context.Context) []domain.User

	RegisterProduct(ctx context.Context, sku, name, price, quantity string) (domain.Product, error)
	AdjustStock(ctx context.Context, productID string, delta int) AdjustResult
	FindProduct(ctx context.Context, id string) (domain.Product, bool)
	ListProducts(ctx context.Context) []domain.Product

	ListTransactions(ctx context.Context, page, pageSize int) ledger.Page
	ProductHistory(ctx context.Context, productID string) ([]domain.Transaction, bool)
	Summary(ctx context.Context) Summary
}

// Config carries the collaborators shared by every command. Zero values fall
// back to logrus.New, UTC wall clock and random UUIDs.
type Config struct {
	Logger *logrus.Logger
	Now    func() time.Time
	NewID  func() string
}

// Summary aggregates the current inventory.
type Summary struct {
	Users        int             `json:"users"`
	Products     int             `json:"products"`
	TotalUnits   int             `json:"totalUnits"`
	StockValue   decimal.Decimal `json:"stockValue"`
	Transactions int             `json:"transactions"`
}

type inventory struct {
	mu       sync.Mutex
	store    *kvstore.Adapter
	users    repository.UserRepository
	products repository.ProductRepository
	ledger   *ledger.Ledger
	now      func() time.Time
	newID    func() string
	logger   *logrus.Logger
}

// Open builds an Inventory over store and loads the three tables from it.
func Open(ctx context.Context, store *kvstore.Adapter, cfg Config) Inventory {
	cfg = withDefaults(cfg)
	inv := newInventory(
		store,
		kv.NewUserRepository(store),
		kv.NewProductRepository(store),
		ledger.New(store, ledger.WithClock(cfg.Now), ledger.WithIDGenerator(cfg.NewID)),
		cfg,
	)
	inv.load(ctx)
	return inv
}

// New wires an Inventory from already constructed tables. The tables are
// used as they are; call Open to rehydrate from the store.
func New(store *kvstore.Adapter, users repository.UserRepository, products repository.ProductRepository, journal *ledger.Ledger, cfg Config) Inventory {
	return newInventory(store, users, products, journal, withDefaults(cfg))
}

func newInventory(store *kvstore.Adapter, users repository.UserRepository, products repository.ProductRepository, journal *ledger.Ledger, cfg Config) *inventory {
	return &inventory{
		store:    store,
		users:    users,
		products: products,
		ledger:   journal,
		now:      cfg.Now,
		newID:    cfg.NewID,
		logger:   cfg.Logger,
	}
}

func withDefaults(cfg Config) Config {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return cfg
}

func (s *inventory) load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users.Load(ctx)
	s.products.Load(ctx)
	s.ledger.Load(ctx)
	s.logger.WithFields(logrus.Fields{
		"users":        len(s.users.List()),
		"products":     len(s.products.List()),
		"transactions": s.ledger.Len(),
	}).Info("inventory loaded")
}

// commit writes full snapshots of the given tables in one adapter call.
func (s *inventory) commit(ctx context.Context, entries ...kvstore.Entry) {
	s.store.SaveAll(ctx, entries...)
}

func (s *inventory) ListTransactions(_ context.Context, page, pageSize int) ledger.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Page(page, pageSize)
}

func (s *inventory) Summary(_ context.Context) Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := s.products.List()
	sum := Summary{
		Users:        len(s.users.List()),
		Products:     len(products),
		StockValue:   decimal.Zero,
		Transactions: s.ledger.Len(),
	}
	for _, p := range products {
		sum.TotalUnits += p.Quantity
		sum.StockValue = sum.StockValue.Add(p.StockValue())
	}
	return sum
}
