package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionItem is the frozen form of a cart line stored inside a
// transaction record. The JSON field names are a stable contract.
type TransactionItem struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Transaction is an immutable sale record, created exactly once per
// successful checkout. ID is assigned by the ledger store.
type Transaction struct {
	ID          int64             `json:"id"`
	Date        time.Time         `json:"date"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	MoneyPaid   decimal.Decimal   `json:"money_paid"`
	Change      decimal.Decimal   `json:"change"`
	Items       []TransactionItem `json:"items"`
}
