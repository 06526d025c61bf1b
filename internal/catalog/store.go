package catalog

import (
	"context"
	"errors"

	"github.com/fjod/go_pos/internal/domain"
)

// Common errors returned by the store
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNegativeStock     = errors.New("stock must not be negative")
)

// StockDecrement is one product's share of a checkout's stock write.
type StockDecrement struct {
	ProductID int64
	Quantity  int
}

// Store defines the catalog contract consumed by the checkout manager
// and the HTTP layer.
type Store interface {
	// GetAll returns every product, ordered by name.
	GetAll(ctx context.Context) ([]domain.Product, error)

	// GetAvailable returns only products with stock left, ordered by name.
	GetAvailable(ctx context.Context) ([]domain.Product, error)

	// GetByID returns the product or ErrProductNotFound.
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// Search matches the name case-insensitively by substring.
	Search(ctx context.Context, query string) ([]domain.Product, error)

	// Insert creates a product and returns its assigned id.
	Insert(ctx context.Context, p domain.Product) (int64, error)

	// InsertAll seeds multiple products in one transaction.
	InsertAll(ctx context.Context, products []domain.Product) error

	// UpdateStock sets the absolute stock level (restock path).
	UpdateStock(ctx context.Context, id int64, newStock int) error

	// DecrementStock applies all decrements in a single transaction.
	// Either every product's stock is reduced or none is; returns
	// ErrProductNotFound or ErrInsufficientStock wrapped with the
	// offending product id.
	DecrementStock(ctx context.Context, decrements []StockDecrement) error

	// IncrementStock returns previously decremented stock, used to
	// compensate a failed checkout after its stock write committed.
	IncrementStock(ctx context.Context, increments []StockDecrement) error

	// Watch returns a channel that receives a signal after every
	// committed catalog mutation, and a function to cancel it.
	Watch() (<-chan struct{}, func())
}
