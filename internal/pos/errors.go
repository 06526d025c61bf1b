package pos

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrOutOfStock = errors.New("product is out of stock")
	ErrEmptyCart  = errors.New("cart is empty, nothing to checkout")
)

// InsufficientStockError is returned when a cart mutation asks for more
// units than the product's snapshot has.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// InsufficientPaymentError is returned when the paid amount does not
// cover the cart subtotal.
type InsufficientPaymentError struct {
	Total decimal.Decimal
	Paid  decimal.Decimal
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("insufficient payment: total %s, paid %s, short %s",
		e.Total, e.Paid, e.Shortfall())
}

func (e *InsufficientPaymentError) Shortfall() decimal.Decimal {
	return e.Total.Sub(e.Paid)
}

// StockConflictError is returned when checkout-time re-validation finds
// the authoritative stock below a cart line's quantity, or the product
// gone entirely.
type StockConflictError struct {
	ProductID   int64
	ProductName string
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("stock conflict for %s (product %d)", e.ProductName, e.ProductID)
}

// CheckoutFailedError wraps a store failure that aborted a checkout.
type CheckoutFailedError struct {
	Cause error
}

func (e *CheckoutFailedError) Error() string {
	return fmt.Sprintf("checkout failed: %v", e.Cause)
}

func (e *CheckoutFailedError) Unwrap() error {
	return e.Cause
}
