package kv

import (
	"context"
	"slices"

	"stock-ledger/internal/domain"
	"stock-ledger/internal/kvstore"
	"stock-ledger/internal/repository"
)

type ProductRepository struct {
	store    *kvstore.Adapter
	products []domain.Product
	index    map[string]int
}

func NewProductRepository(store *kvstore.Adapter) repository.ProductRepository {
	return &ProductRepository{store: store, index: map[string]int{}}
}

func (r *ProductRepository) Load(ctx context.Context) {
	r.products = kvstore.Load(ctx, r.store, kvstore.KeyProducts, []domain.Product{})
	r.index = make(map[string]int, len(r.products))
	for i, p := range r.products {
		if _, dup := r.index[p.ID]; !dup {
			r.index[p.ID] = i
		}
	}
}

func (r *ProductRepository) Append(product domain.Product) {
	r.index[product.ID] = len(r.products)
	r.products = append(r.products, product)
}

func (r *ProductRepository) Update(product domain.Product) bool {
	i, ok := r.index[product.ID]
	if !ok {
		return false
	}
	r.products[i] = product
	return true
}

func (r *ProductRepository) Get(id string) (domain.Product, bool) {
	i, ok := r.index[id]
	if !ok {
		return domain.Product{}, false
	}
	return r.products[i], true
}

func (r *ProductRepository) List() []domain.Product {
	if r.products == nil {
		return []domain.Product{}
	}
	return slices.Clone(r.products)
}

func (r *ProductRepository) Snapshot() kvstore.Entry {
	return kvstore.Entry{Key: kvstore.KeyProducts, Value: r.List()}
}
