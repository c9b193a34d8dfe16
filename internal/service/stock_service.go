package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"stock-ledger/internal/domain"
	"stock-ledger/internal/metrics"
)

// AdjustOutcome tells the caller what AdjustStock did.
type AdjustOutcome string

const (
	OutcomeApplied  AdjustOutcome = "applied"
	OutcomeRejected AdjustOutcome = "rejected"
	OutcomeNotFound AdjustOutcome = "not_found"
)

// AdjustResult is returned by AdjustStock. Product is the stored product
// after the call: unchanged when the adjustment was rejected and zero when
// the product does not exist. Transaction is set only when applied.
type AdjustResult struct {
	Product     domain.Product
	Outcome     AdjustOutcome
	Transaction *domain.Transaction
}

func (r AdjustResult) Applied() bool {
	return r.Outcome == OutcomeApplied
}

// RegisterProduct validates and appends a product together with its initial
// ledger entry. Both tables are saved in the same commit. SKUs are not
// required to be unique.
func (s *inventory) RegisterProduct(ctx context.Context, sku, name, price, quantity string) (domain.Product, error) {
	in, err := domain.ParseProduct(sku, name, price, quantity)
	if err != nil {
		return domain.Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product := domain.Product{
		ID:          s.newID(),
		SKU:         in.SKU,
		Name:        in.Name,
		Price:       in.Price,
		Quantity:    in.Quantity,
		LastUpdated: s.now(),
	}
	s.products.Append(product)
	s.ledger.Record(product, domain.TransactionInitial, product.Quantity)
	s.commit(ctx, s.products.Snapshot(), s.ledger.Snapshot())

	metrics.RecordRegistration("product")
	s.logger.WithFields(logrus.Fields{
		"product_id": product.ID,
		"sku":        product.SKU,
		"quantity":   product.Quantity,
	}).Info("product registered")
	return product, nil
}

// AdjustStock applies a signed delta to a product's quantity. An unknown
// product is a no-op. A delta that would take the quantity below zero is
// rejected without touching the product, the ledger or the store; neither
// case returns an error.
func (s *inventory) AdjustStock(ctx context.Context, productID string, delta int) AdjustResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.logger.WithFields(logrus.Fields{"product_id": productID, "delta": delta})

	product, ok := s.products.Get(productID)
	if !ok {
		metrics.RecordAdjustment(string(OutcomeNotFound))
		log.Debug("adjust stock: product not found")
		return AdjustResult{Outcome: OutcomeNotFound}
	}

	newQuantity := product.Quantity + delta
	if newQuantity < 0 {
		metrics.RecordAdjustment(string(OutcomeRejected))
		log.WithField("quantity", product.Quantity).Info("adjust stock rejected: quantity would go negative")
		return AdjustResult{Product: product, Outcome: OutcomeRejected}
	}

	product.Quantity = newQuantity
	product.LastUpdated = s.now()
	s.products.Update(product)
	tx := s.ledger.Record(product, domain.ClassifyDelta(delta), delta)
	s.commit(ctx, s.products.Snapshot(), s.ledger.Snapshot())

	metrics.RecordAdjustment(string(OutcomeApplied))
	log.WithFields(logrus.Fields{"quantity": newQuantity, "type": tx.Type}).Info("stock adjusted")
	return AdjustResult{Product: product, Outcome: OutcomeApplied, Transaction: &tx}
}

func (s *inventory) FindProduct(_ context.Context, id string) (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products.Get(id)
}

// ListProducts returns products in registration order.
func (s *inventory) ListProducts(_ context.Context) []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products.List()
}

// ProductHistory returns the ledger entries of one product, newest first. The
// second result is false when the product is unknown.
func (s *inventory) ProductHistory(_ context.Context, productID string) ([]domain.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products.Get(productID); !ok {
		return nil, false
	}
	return s.ledger.ForProduct(productID), true
}
