package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

// Available reports whether there is any stock left to sell.
func (p Product) Available() bool {
	return p.Stock > 0
}

// HasStock reports whether the product covers the given quantity.
func (p Product) HasStock(quantity int) bool {
	return p.Stock >= quantity
}
