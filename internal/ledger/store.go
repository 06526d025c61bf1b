package ledger

import (
	"context"
	"errors"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/shopspring/decimal"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// Summary aggregates the ledger over one day.
type Summary struct {
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// Store defines the append-only ledger contract.
type Store interface {
	// Append persists a transaction and returns its assigned id.
	Append(ctx context.Context, t *domain.Transaction) (int64, error)

	// GetAll returns every transaction, newest first.
	GetAll(ctx context.Context) ([]*domain.Transaction, error)

	// GetByID returns the transaction or ErrTransactionNotFound.
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)

	// Last returns the most recent transaction (receipt lookup),
	// or ErrTransactionNotFound when the ledger is empty.
	Last(ctx context.Context) (*domain.Transaction, error)

	// ListToday returns today's transactions, newest first.
	ListToday(ctx context.Context) ([]*domain.Transaction, error)

	// TodaySummary returns the sum and count of today's sales.
	TodaySummary(ctx context.Context) (Summary, error)
}
