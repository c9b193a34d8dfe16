// Package ledger keeps the append-only, newest-first record of stock changes.
package ledger

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"stock-ledger/internal/domain"
	"stock-ledger/internal/kvstore"
)

// DefaultPageSize is used when a caller asks for a non-positive page size.
const DefaultPageSize = 10

// Page is one slice of the ledger.
type Page struct {
	Items      []domain.Transaction `json:"items"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"pageSize"`
	Total      int                  `json:"total"`
	TotalPages int                  `json:"totalPages"`
}

// Ledger is not safe for concurrent use; callers serialize access.
type Ledger struct {
	store   *kvstore.Adapter
	entries []domain.Transaction
	now     func() time.Time
	newID   func() string
}

type Option func(*Ledger)

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

func New(store *kvstore.Adapter, opts ...Option) *Ledger {
	l := &Ledger{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load replaces the in-memory entries with the persisted ones.
func (l *Ledger) Load(ctx context.Context) {
	l.entries = kvstore.Load(ctx, l.store, kvstore.KeyTransactions, []domain.Transaction{})
}

// Record prepends a transaction for product. The amount is the magnitude of
// signedAmount. The entry is persisted with the next Snapshot save.
func (l *Ledger) Record(product domain.Product, typ domain.TransactionType, signedAmount int) domain.Transaction {
	amount := signedAmount
	if amount < 0 {
		amount = -amount
	}
	tx := domain.Transaction{
		ID:          l.newID(),
		ProductID:   product.ID,
		SKU:         product.SKU,
		ProductName: product.Name,
		Type:        typ,
		Amount:      amount,
		Timestamp:   l.now(),
	}
	l.entries = slices.Insert(l.entries, 0, tx)
	return tx
}

// Page returns the 1-indexed page of entries, newest first. Out of range page
// numbers are clamped to the first or last page.
func (l *Ledger) Page(pageNumber, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(l.entries)
	totalPages := (total + pageSize - 1) / pageSize
	last := max(totalPages, 1)
	pageNumber = min(max(pageNumber, 1), last)

	start := min((pageNumber-1)*pageSize, total)
	end := min(start+pageSize, total)

	return Page{
		Items:      append([]domain.Transaction{}, l.entries[start:end]...),
		Page:       pageNumber,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// ForProduct returns the entries of one product, newest first.
func (l *Ledger) ForProduct(productID string) []domain.Transaction {
	out := []domain.Transaction{}
	for _, tx := range l.entries {
		if tx.ProductID == productID {
			out = append(out, tx)
		}
	}
	return out
}

func (l *Ledger) Len() int {
	return len(l.entries)
}

func (l *Ledger) All() []domain.Transaction {
	if l.entries == nil {
		return []domain.Transaction{}
	}
	return slices.Clone(l.entries)
}

func (l *Ledger) Snapshot() kvstore.Entry {
	return kvstore.Entry{Key: kvstore.KeyTransactions, Value: l.All()}
}
