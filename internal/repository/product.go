package repository

import (
	"context"

	"stock-ledger/internal/domain"
	"stock-ledger/internal/kvstore"
)

// ProductRepository holds the Products table in memory, in insertion order.
type ProductRepository interface {
	Load(ctx context.Context)
	Append(product domain.Product)
	// Update replaces the product with the same ID and reports whether it existed.
	Update(product domain.Product) bool
	Get(id string) (domain.Product, bool)
	List() []domain.Product
	Snapshot() kvstore.Entry
}
