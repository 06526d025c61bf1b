package pos

import (
	"context"
	"sync"

	"github.com/fjod/go_pos/internal/catalog"
	"github.com/fjod/go_pos/internal/domain"
	"github.com/fjod/go_pos/internal/ledger"
	"github.com/shopspring/decimal"
)

// mockCatalog implements catalog.Store for testing
type mockCatalog struct {
	m        sync.Mutex
	products map[int64]domain.Product

	getErr       error
	decrementErr error
	incrementErr error
	getHook      func() // called on entry to GetByID, outside the lock

	decremented [][]catalog.StockDecrement
	incremented [][]catalog.StockDecrement
}

func newMockCatalog(products ...domain.Product) *mockCatalog {
	byID := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &mockCatalog{products: byID}
}

func (m *mockCatalog) stock(id int64) int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.products[id].Stock
}

func (m *mockCatalog) GetAll(context.Context) ([]domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	var products []domain.Product
	for _, p := range m.products {
		products = append(products, p)
	}
	return products, nil
}

func (m *mockCatalog) GetAvailable(ctx context.Context) ([]domain.Product, error) {
	all, err := m.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var available []domain.Product
	for _, p := range all {
		if p.Available() {
			available = append(available, p)
		}
	}
	return available, nil
}

func (m *mockCatalog) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	if m.getHook != nil {
		m.getHook()
	}
	m.m.Lock()
	defer m.m.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return &p, nil
}

func (m *mockCatalog) Search(ctx context.Context, _ string) ([]domain.Product, error) {
	return m.GetAll(ctx)
}

func (m *mockCatalog) Insert(_ context.Context, p domain.Product) (int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.products[p.ID] = p
	return p.ID, nil
}

func (m *mockCatalog) InsertAll(ctx context.Context, products []domain.Product) error {
	for _, p := range products {
		if _, err := m.Insert(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockCatalog) UpdateStock(_ context.Context, id int64, newStock int) error {
	m.m.Lock()
	defer m.m.Unlock()
	p, ok := m.products[id]
	if !ok {
		return catalog.ErrProductNotFound
	}
	p.Stock = newStock
	m.products[id] = p
	return nil
}

func (m *mockCatalog) DecrementStock(_ context.Context, decrements []catalog.StockDecrement) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.decrementErr != nil {
		return m.decrementErr
	}
	for _, dec := range decrements {
		p, ok := m.products[dec.ProductID]
		if !ok {
			return catalog.ErrProductNotFound
		}
		if p.Stock < dec.Quantity {
			return catalog.ErrInsufficientStock
		}
	}
	for _, dec := range decrements {
		p := m.products[dec.ProductID]
		p.Stock -= dec.Quantity
		m.products[dec.ProductID] = p
	}
	m.decremented = append(m.decremented, decrements)
	return nil
}

func (m *mockCatalog) IncrementStock(_ context.Context, increments []catalog.StockDecrement) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.incrementErr != nil {
		return m.incrementErr
	}
	for _, inc := range increments {
		p := m.products[inc.ProductID]
		p.Stock += inc.Quantity
		m.products[inc.ProductID] = p
	}
	m.incremented = append(m.incremented, increments)
	return nil
}

func (m *mockCatalog) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	return ch, func() {}
}

// mockLedger implements ledger.Store for testing
type mockLedger struct {
	m        sync.Mutex
	nextID   int64
	appended []*domain.Transaction

	appendErr error
}

func (m *mockLedger) Append(_ context.Context, t *domain.Transaction) (int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.appendErr != nil {
		return 0, m.appendErr
	}
	m.nextID++
	t.ID = m.nextID
	m.appended = append(m.appended, t)
	return m.nextID, nil
}

func (m *mockLedger) GetAll(context.Context) ([]*domain.Transaction, error) {
	m.m.Lock()
	defer m.m.Unlock()
	out := make([]*domain.Transaction, len(m.appended))
	copy(out, m.appended)
	return out, nil
}

func (m *mockLedger) GetByID(_ context.Context, id int64) (*domain.Transaction, error) {
	m.m.Lock()
	defer m.m.Unlock()
	for _, t := range m.appended {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, ledger.ErrTransactionNotFound
}

func (m *mockLedger) Last(context.Context) (*domain.Transaction, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if len(m.appended) == 0 {
		return nil, ledger.ErrTransactionNotFound
	}
	return m.appended[len(m.appended)-1], nil
}

func (m *mockLedger) ListToday(ctx context.Context) ([]*domain.Transaction, error) {
	return m.GetAll(ctx)
}

func (m *mockLedger) TodaySummary(context.Context) (ledger.Summary, error) {
	m.m.Lock()
	defer m.m.Unlock()
	summary := ledger.Summary{Total: decimal.Zero}
	for _, t := range m.appended {
		summary.Total = summary.Total.Add(t.TotalAmount)
		summary.Count++
	}
	return summary, nil
}
