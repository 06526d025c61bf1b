package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/shopspring/decimal"
)

// Repository implements Store on the embedded sqlite database. Line
// items are stored as a JSON column, frozen at checkout time.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Append(ctx context.Context, t *domain.Transaction) (int64, error) {
	itemsJSON, err := json.Marshal(t.Items)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal transaction items: %w", err)
	}

	query := `INSERT INTO transactions (date, total_amount, money_paid, change, items)
	          VALUES ($1, $2, $3, $4, $5)`

	res, err := r.db.ExecContext(ctx, query,
		t.Date,
		t.TotalAmount,
		t.MoneyPaid,
		t.Change,
		itemsJSON)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert transaction id: %w", err)
	}

	return id, nil
}

func (r *Repository) GetAll(ctx context.Context) ([]*domain.Transaction, error) {
	query := `SELECT id, date, total_amount, money_paid, change, items
	          FROM transactions ORDER BY date DESC, id DESC`
	return r.queryTransactions(ctx, query)
}

func (r *Repository) ListToday(ctx context.Context) ([]*domain.Transaction, error) {
	query := `SELECT id, date, total_amount, money_paid, change, items
	          FROM transactions WHERE date >= $1 ORDER BY date DESC, id DESC`
	return r.queryTransactions(ctx, query, startOfToday())
}

func (r *Repository) queryTransactions(ctx context.Context, query string, args ...any) ([]*domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return transactions, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	query := `SELECT id, date, total_amount, money_paid, change, items
	          FROM transactions WHERE id = $1`

	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %d: %w", id, ErrTransactionNotFound)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *Repository) Last(ctx context.Context) (*domain.Transaction, error) {
	query := `SELECT id, date, total_amount, money_paid, change, items
	          FROM transactions ORDER BY id DESC LIMIT 1`

	t, err := scanTransaction(r.db.QueryRowContext(ctx, query).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// TodaySummary sums in Go: amounts are stored as decimal text, which
// SQL SUM would coerce to float.
func (r *Repository) TodaySummary(ctx context.Context) (Summary, error) {
	query := `SELECT total_amount FROM transactions WHERE date >= $1`

	rows, err := r.db.QueryContext(ctx, query, startOfToday())
	if err != nil {
		return Summary{}, fmt.Errorf("query today summary: %w", err)
	}
	defer rows.Close()

	summary := Summary{Total: decimal.Zero}
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return Summary{}, fmt.Errorf("scan total amount: %w", err)
		}
		summary.Total = summary.Total.Add(amount)
		summary.Count++
	}

	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("row iteration error: %w", err)
	}

	return summary, nil
}

func scanTransaction(scan func(dest ...any) error) (*domain.Transaction, error) {
	var t domain.Transaction
	var itemsJSON []byte
	if err := scan(
		&t.ID,
		&t.Date,
		&t.TotalAmount,
		&t.MoneyPaid,
		&t.Change,
		&itemsJSON,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan transaction row: %w", err)
	}

	if err := json.Unmarshal(itemsJSON, &t.Items); err != nil {
		return nil, fmt.Errorf("unmarshal transaction items: %w", err)
	}

	return &t, nil
}

// startOfToday is local midnight of the process clock.
func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
