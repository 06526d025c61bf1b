package pos

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fjod/go_pos/internal/catalog"
	"github.com/fjod/go_pos/internal/domain"
	"github.com/fjod/go_pos/internal/ledger"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// Manager owns the live cart of one checkout session and drives checkout
// against the catalog and ledger stores. All commands are serialized by a
// single mutex: a cart mutation issued while a checkout is in flight
// waits for it to finish.
type Manager struct {
	catalog catalog.Store
	ledger  ledger.Store
	sfg     singleflight.Group // Collapses concurrent product list reads

	mu       sync.Mutex
	cart     domain.Cart
	loading  bool
	lastErr  error
	lastTxID int64

	broadcaster *broadcaster
}

func NewManager(catalogStore catalog.Store, ledgerStore ledger.Store) *Manager {
	return &Manager{
		catalog:     catalogStore,
		ledger:      ledgerStore,
		broadcaster: newBroadcaster(),
	}
}

// State returns a point-in-time snapshot.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

// Subscribe registers an observer. The channel immediately carries the
// current state and then a snapshot after every command.
func (m *Manager) Subscribe() (<-chan State, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.broadcaster.subscribe(m.stateLocked())
}

func (m *Manager) stateLocked() State {
	lines := make([]domain.CartLine, len(m.cart.Lines))
	copy(lines, m.cart.Lines)
	return State{
		Lines:             lines,
		Subtotal:          m.cart.Subtotal(),
		Units:             m.cart.Units(),
		Loading:           m.loading,
		LastError:         m.lastErr,
		LastTransactionID: m.lastTxID,
	}
}

func (m *Manager) publishLocked() {
	m.broadcaster.publish(m.stateLocked())
}

// failLocked records err as the last error and leaves the cart untouched.
func (m *Manager) failLocked(err error) error {
	m.loading = false
	m.lastErr = err
	m.publishLocked()
	return err
}

func (m *Manager) okLocked() {
	m.loading = false
	m.lastErr = nil
	m.publishLocked()
}

// AddToCart adds one unit of the product, incrementing an existing line.
// The quantity check runs against the snapshot's stock; the authoritative
// store is consulted only at checkout.
func (m *Manager) AddToCart(p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if line := m.cart.Find(p.ID); line != nil {
		if !line.Product.HasStock(line.Quantity + 1) {
			return m.failLocked(&InsufficientStockError{
				ProductID:   line.Product.ID,
				ProductName: line.Product.Name,
				Requested:   line.Quantity + 1,
				Available:   line.Product.Stock,
			})
		}
		line.Quantity++
	} else {
		if !p.Available() {
			return m.failLocked(fmt.Errorf("%s: %w", p.Name, ErrOutOfStock))
		}
		m.cart.Lines = append(m.cart.Lines, domain.CartLine{Product: p, Quantity: 1})
	}

	m.okLocked()
	return nil
}

// RemoveFromCart deletes the line for productID. Absent lines are a
// no-op, not an error.
func (m *Manager) RemoveFromCart(productID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart.Remove(productID)
	m.okLocked()
}

// SetQuantity sets the line's quantity. Zero or negative removes the
// line; a quantity beyond the snapshot's stock fails and leaves the cart
// unchanged.
func (m *Manager) SetQuantity(productID int64, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setQuantityLocked(productID, quantity)
}

func (m *Manager) setQuantityLocked(productID int64, quantity int) error {
	line := m.cart.Find(productID)
	if line == nil {
		return nil
	}

	if quantity <= 0 {
		m.cart.Remove(productID)
		m.okLocked()
		return nil
	}

	if !line.Product.HasStock(quantity) {
		return m.failLocked(&InsufficientStockError{
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			Requested:   quantity,
			Available:   line.Product.Stock,
		})
	}

	line.Quantity = quantity
	m.okLocked()
	return nil
}

func (m *Manager) IncrementQuantity(productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	line := m.cart.Find(productID)
	if line == nil {
		return nil
	}
	return m.setQuantityLocked(productID, line.Quantity+1)
}

func (m *Manager) DecrementQuantity(productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	line := m.cart.Find(productID)
	if line == nil {
		return nil
	}
	return m.setQuantityLocked(productID, line.Quantity-1)
}

// ClearCart empties the cart. Always succeeds.
func (m *Manager) ClearCart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart = domain.Cart{}
	m.okLocked()
}

// ClearError acknowledges the last error.
func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = nil
	m.publishLocked()
}

// ClearLastTransaction resets the last completed transaction id after
// the caller has shown the receipt.
func (m *Manager) ClearLastTransaction() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTxID = 0
	m.publishLocked()
}

// Checkout converts the cart into a persisted transaction and stock
// decrements. On any failure the cart is exactly as it was before the
// call and no partial stock decrement remains observable.
func (m *Manager) Checkout(ctx context.Context, moneyPaid decimal.Decimal) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cart.IsEmpty() {
		return 0, m.failLocked(ErrEmptyCart)
	}

	total := m.cart.Subtotal()
	if moneyPaid.LessThan(total) {
		return 0, m.failLocked(&InsufficientPaymentError{Total: total, Paid: moneyPaid})
	}

	m.loading = true
	m.publishLocked()

	// Re-validate every line against the authoritative store. Stock may
	// have changed since the snapshot was taken at add-to-cart time.
	for _, line := range m.cart.Lines {
		p, err := m.catalog.GetByID(ctx, line.Product.ID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			return 0, m.failLocked(&StockConflictError{
				ProductID:   line.Product.ID,
				ProductName: line.Product.Name,
			})
		}
		if err != nil {
			return 0, m.failLocked(&CheckoutFailedError{Cause: err})
		}
		if !p.HasStock(line.Quantity) {
			return 0, m.failLocked(&StockConflictError{
				ProductID:   p.ID,
				ProductName: p.Name,
			})
		}
	}

	decrements := make([]catalog.StockDecrement, 0, len(m.cart.Lines))
	for _, line := range m.cart.Lines {
		decrements = append(decrements, catalog.StockDecrement{
			ProductID: line.Product.ID,
			Quantity:  line.Quantity,
		})
	}

	if err := m.catalog.DecrementStock(ctx, decrements); err != nil {
		return 0, m.failLocked(&CheckoutFailedError{Cause: err})
	}

	transaction := &domain.Transaction{
		Date:        time.Now(),
		TotalAmount: total,
		MoneyPaid:   moneyPaid,
		Change:      moneyPaid.Sub(total),
		Items:       m.cart.Items(),
	}

	id, err := m.ledger.Append(ctx, transaction)
	if err != nil {
		// The stock write already committed; give it back so the failed
		// checkout leaves no trace.
		if restoreErr := m.catalog.IncrementStock(context.Background(), decrements); restoreErr != nil {
			log.Printf("failed to restore stock after ledger error: %v", restoreErr)
		}
		return 0, m.failLocked(&CheckoutFailedError{Cause: err})
	}

	m.cart = domain.Cart{}
	m.lastTxID = id
	m.okLocked()
	return id, nil
}

// Products lists the catalog, optionally filtered by a case-insensitive
// name substring or to in-stock products only. Concurrent identical
// reads are collapsed into one store query.
func (m *Manager) Products(ctx context.Context, query string, availableOnly bool) ([]domain.Product, error) {
	m.setLoading(true)
	defer m.setLoading(false)

	key := fmt.Sprintf("q=%s;available=%t", query, availableOnly)
	v, err, _ := m.sfg.Do(key, func() (interface{}, error) {
		switch {
		case query != "":
			return m.catalog.Search(ctx, query)
		case availableOnly:
			return m.catalog.GetAvailable(ctx)
		default:
			return m.catalog.GetAll(ctx)
		}
	})
	if err != nil {
		m.recordError(err)
		return nil, err
	}

	return v.([]domain.Product), nil
}

func (m *Manager) setLoading(loading bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = loading
	m.publishLocked()
}

func (m *Manager) recordError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = err
	m.publishLocked()
}
