package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_pos/internal/domain"
)

// Repository implements Store on the embedded sqlite database.
type Repository struct {
	db       *sql.DB
	notifier *notifier
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db:       db,
		notifier: newNotifier(),
	}
}

func (r *Repository) GetAll(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT id, name, price, stock
		FROM products
		ORDER BY name ASC
	`
	return r.queryProducts(ctx, query)
}

func (r *Repository) GetAvailable(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT id, name, price, stock
		FROM products
		WHERE stock > 0
		ORDER BY name ASC
	`
	return r.queryProducts(ctx, query)
}

func (r *Repository) Search(ctx context.Context, query string) ([]domain.Product, error) {
	stmt := `
		SELECT id, name, price, stock
		FROM products
		WHERE lower(name) LIKE '%' || lower($1) || '%'
		ORDER BY name ASC
	`
	return r.queryProducts(ctx, stmt, query)
}

func (r *Repository) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, name, price, stock
		FROM products
		WHERE id = $1
	`

	var p domain.Product
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Price, &p.Stock)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %d: %w", id, ErrProductNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

func (r *Repository) Insert(ctx context.Context, p domain.Product) (int64, error) {
	query := `INSERT INTO products (name, price, stock) VALUES ($1, $2, $3)`

	res, err := r.db.ExecContext(ctx, query, p.Name, p.Price, p.Stock)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert product id: %w", err)
	}

	r.notifier.broadcast()
	return id, nil
}

func (r *Repository) InsertAll(ctx context.Context, products []domain.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO products (name, price, stock) VALUES ($1, $2, $3)`
	for _, p := range products {
		if _, err := tx.ExecContext(ctx, query, p.Name, p.Price, p.Stock); err != nil {
			return fmt.Errorf("insert product %q: %w", p.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}

	r.notifier.broadcast()
	return nil
}

func (r *Repository) UpdateStock(ctx context.Context, id int64, newStock int) error {
	if newStock < 0 {
		return ErrNegativeStock
	}

	query := `UPDATE products SET stock = $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, newStock, id)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update stock rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("product %d: %w", id, ErrProductNotFound)
	}

	r.notifier.broadcast()
	return nil
}

// DecrementStock runs every decrement in one transaction. The stock guard
// sits in the WHERE clause, so a row that cannot cover its quantity is
// simply not updated and the whole transaction rolls back.
func (r *Repository) DecrementStock(ctx context.Context, decrements []StockDecrement) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin stock transaction: %w", err)
	}
	defer tx.Rollback()

	for _, dec := range decrements {
		query := `UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1`
		res, err := tx.ExecContext(ctx, query, dec.Quantity, dec.ProductID)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("decrement stock rows affected: %w", err)
		}
		if affected == 0 {
			var exists bool
			checkErr := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, dec.ProductID).Scan(&exists)
			if checkErr != nil {
				return fmt.Errorf("check product %d: %w", dec.ProductID, checkErr)
			}
			if !exists {
				return fmt.Errorf("product %d: %w", dec.ProductID, ErrProductNotFound)
			}
			return fmt.Errorf("product %d: %w", dec.ProductID, ErrInsufficientStock)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit stock transaction: %w", err)
	}

	r.notifier.broadcast()
	return nil
}

func (r *Repository) IncrementStock(ctx context.Context, increments []StockDecrement) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin stock transaction: %w", err)
	}
	defer tx.Rollback()

	for _, inc := range increments {
		query := `UPDATE products SET stock = stock + $1 WHERE id = $2`
		res, err := tx.ExecContext(ctx, query, inc.Quantity, inc.ProductID)
		if err != nil {
			return fmt.Errorf("increment stock: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("increment stock rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("product %d: %w", inc.ProductID, ErrProductNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit stock transaction: %w", err)
	}

	r.notifier.broadcast()
	return nil
}

func (r *Repository) Watch() (<-chan struct{}, func()) {
	return r.notifier.subscribe()
}
