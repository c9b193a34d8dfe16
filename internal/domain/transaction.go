package domain

import "time"

type TransactionType string

const (
	TransactionInitial  TransactionType = "initial"
	TransactionIncrease TransactionType = "increase"
	TransactionDecrease TransactionType = "decrease"
)

// Transaction is a write-once ledger record of a stock change. SKU and
// ProductName are copied from the product when the record is written.
type Transaction struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	SKU         string          `json:"sku"`
	ProductName string          `json:"productName"`
	Type        TransactionType `json:"type"`
	Amount      int             `json:"amount"`
	Timestamp   time.Time       `json:"timestamp"`
}

// ClassifyDelta maps a signed stock delta to the ledger type. Zero counts as
// a decrease; initial is reserved for registration.
func ClassifyDelta(delta int) TransactionType {
	if delta > 0 {
		return TransactionIncrease
	}
	return TransactionDecrease
}
