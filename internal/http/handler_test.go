package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fjod/go_pos/internal/catalog"
	"github.com/fjod/go_pos/internal/db"
	"github.com/fjod/go_pos/internal/domain"
	h "github.com/fjod/go_pos/internal/http"
	"github.com/fjod/go_pos/internal/ledger"
	"github.com/fjod/go_pos/internal/pos"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router  chi.Router
	catalog *catalog.Repository
}

// setupServer wires real repositories on an in-memory database behind
// the full route table, so the tests exercise the same stack the binary
// runs.
func setupServer(t *testing.T) *testServer {
	t.Helper()

	conn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.RunMigrations(conn, "../db/migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	catalogStore := catalog.NewRepository(conn)
	ledgerStore := ledger.NewRepository(conn)
	manager := pos.NewManager(catalogStore, ledgerStore)

	timeout := 5 * time.Second
	productHandler := h.NewProductHandler(manager, timeout)
	cartHandler := h.NewCartHandler(manager, catalogStore, timeout)
	transactionsHandler := h.NewTransactionsHandler(ledgerStore, timeout)

	r := chi.NewRouter()
	r.Use(h.RequestIDMiddleware)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", productHandler.ListProducts)
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_id}", cartHandler.SetQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
		})
		r.Post("/checkout", cartHandler.Checkout)
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", transactionsHandler.ListTransactions)
			r.Get("/last", transactionsHandler.GetLastTransaction)
			r.Get("/{id}", transactionsHandler.GetTransaction)
		})
		r.Get("/reports/today", transactionsHandler.TodayReport)
	})

	return &testServer{router: r, catalog: catalogStore}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestListProducts_ReturnsSeededCatalog(t *testing.T) {
	ts := setupServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	products := decode[[]domain.Product](t, rec)
	assert.Len(t, products, 5)
}

func TestListProducts_Search(t *testing.T) {
	ts := setupServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/products?q=coffee", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	products := decode[[]domain.Product](t, rec)
	require.Len(t, products, 1)
	assert.Equal(t, "Instant Coffee", products[0].Name)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	ts := setupServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": 99999})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddItem_InvalidBody(t *testing.T) {
	ts := setupServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartFlow_AddUpdateRemove(t *testing.T) {
	ts := setupServer(t)

	id, err := ts.catalog.Insert(context.Background(), domain.Product{
		Name:  "Flow Item",
		Price: decimal.NewFromInt(3000),
		Stock: 2,
	})
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": id})
	require.Equal(t, http.StatusCreated, rec.Code)
	cart := decode[h.CartResponseDTO](t, rec)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 1, cart.Lines[0].Quantity)
	assert.True(t, cart.Subtotal.Equal(decimal.NewFromInt(3000)))

	rec = ts.do(t, http.MethodPut, fmt.Sprintf("/api/v1/cart/items/%d", id), map[string]any{"quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	cart = decode[h.CartResponseDTO](t, rec)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
	assert.True(t, cart.Subtotal.Equal(decimal.NewFromInt(6000)))

	// Beyond snapshot stock
	rec = ts.do(t, http.MethodPut, fmt.Sprintf("/api/v1/cart/items/%d", id), map[string]any{"quantity": 3})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/cart/items/%d", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cart = decode[h.CartResponseDTO](t, rec)
	assert.Empty(t, cart.Lines)
}

func TestCheckout_EndToEnd(t *testing.T) {
	ts := setupServer(t)

	id, err := ts.catalog.Insert(context.Background(), domain.Product{
		Name:  "Checkout Item",
		Price: decimal.NewFromInt(5000),
		Stock: 10,
	})
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": id})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = ts.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": id})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/checkout", map[string]any{"money_paid": "15000"})
	require.Equal(t, http.StatusCreated, rec.Code)
	result := decode[h.CheckoutResponseDTO](t, rec)
	require.NotZero(t, result.TransactionID)

	// Stock persisted
	p, err := ts.catalog.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 8, p.Stock)

	// Cart cleared
	rec = ts.do(t, http.MethodGet, "/api/v1/cart", nil)
	cart := decode[h.CartResponseDTO](t, rec)
	assert.Empty(t, cart.Lines)
	assert.Equal(t, result.TransactionID, cart.LastTransactionID)

	// Transaction readable with frozen items and change
	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/transactions/%d", result.TransactionID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tx := decode[domain.Transaction](t, rec)
	assert.True(t, tx.TotalAmount.Equal(decimal.NewFromInt(10000)))
	assert.True(t, tx.Change.Equal(decimal.NewFromInt(5000)))
	require.Len(t, tx.Items, 1)
	assert.Equal(t, 2, tx.Items[0].Quantity)

	// Report reflects the sale
	rec = ts.do(t, http.MethodGet, "/api/v1/reports/today", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[ledger.Summary](t, rec)
	assert.Equal(t, 1, summary.Count)
	assert.True(t, summary.Total.Equal(decimal.NewFromInt(10000)))
}

func TestCheckout_InsufficientPayment(t *testing.T) {
	ts := setupServer(t)

	id, err := ts.catalog.Insert(context.Background(), domain.Product{
		Name:  "Pricey",
		Price: decimal.NewFromInt(9000),
		Stock: 3,
	})
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": id})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/checkout", map[string]any{"money_paid": "5000"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// The failure left nothing behind
	p, err := ts.catalog.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)

	rec = ts.do(t, http.MethodGet, "/api/v1/cart", nil)
	cart := decode[h.CartResponseDTO](t, rec)
	assert.Len(t, cart.Lines, 1)
	assert.NotEmpty(t, cart.LastError)
}

func TestCheckout_EmptyCart(t *testing.T) {
	ts := setupServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/checkout", map[string]any{"money_paid": "5000"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckout_StaleCartConflicts(t *testing.T) {
	ts := setupServer(t)

	id, err := ts.catalog.Insert(context.Background(), domain.Product{
		Name:  "Stale",
		Price: decimal.NewFromInt(2000),
		Stock: 3,
	})
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": id})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = ts.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": id})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Stock drops behind the cart's back
	require.NoError(t, ts.catalog.UpdateStock(context.Background(), id, 1))

	rec = ts.do(t, http.MethodPost, "/api/v1/checkout", map[string]any{"money_paid": "4000"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	p, err := ts.catalog.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock)
}

func TestGetLastTransaction_EmptyLedger(t *testing.T) {
	ts := setupServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/transactions/last", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestID_Assigned(t *testing.T) {
	ts := setupServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/products", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
