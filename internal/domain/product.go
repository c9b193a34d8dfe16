package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Stored records carry the price as a JSON number.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is a stock keeping unit tracked by the inventory.
type Product struct {
	ID          string          `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

// StockValue returns price multiplied by the quantity on hand.
func (p Product) StockValue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Quantity)))
}
