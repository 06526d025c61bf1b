package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_pos/internal/catalog"
	"github.com/fjod/go_pos/internal/domain"
	"github.com/fjod/go_pos/internal/pos"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type CartHandler struct {
	manager *pos.Manager
	catalog catalog.Store
	timeout time.Duration
}

func NewCartHandler(manager *pos.Manager, catalogStore catalog.Store, timeout time.Duration) *CartHandler {
	return &CartHandler{
		manager: manager,
		catalog: catalogStore,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
}

type SetQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CheckoutRequestDTO struct {
	MoneyPaid decimal.Decimal `json:"money_paid"`
}

type CheckoutResponseDTO struct {
	TransactionID int64 `json:"transaction_id"`
}

type CartResponseDTO struct {
	Lines             []domain.CartLine `json:"lines"`
	Subtotal          decimal.Decimal   `json:"subtotal"`
	Units             int               `json:"units"`
	Loading           bool              `json:"loading"`
	LastError         string            `json:"last_error,omitempty"`
	LastTransactionID int64             `json:"last_transaction_id,omitempty"`
}

func cartResponse(st pos.State) CartResponseDTO {
	dto := CartResponseDTO{
		Lines:             st.Lines,
		Subtotal:          st.Subtotal,
		Units:             st.Units,
		Loading:           st.Loading,
		LastTransactionID: st.LastTransactionID,
	}
	if dto.Lines == nil {
		dto.Lines = []domain.CartLine{}
	}
	if st.LastError != nil {
		dto.LastError = st.LastError.Error()
	}
	return dto
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, cartResponse(h.manager.State()))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	product, err := h.catalog.GetByID(ctx, req.ProductID)
	if err != nil {
		handlePosError(w, err)
		return
	}

	if err := h.manager.AddToCart(*product); err != nil {
		handlePosError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, cartResponse(h.manager.State()))
}

// PUT /api/v1/cart/items/{product_id}
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be an integer")
		return
	}

	var req SetQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.manager.SetQuantity(productID, req.Quantity); err != nil {
		handlePosError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(h.manager.State()))
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be an integer")
		return
	}

	h.manager.RemoveFromCart(productID)
	respondJSON(w, http.StatusOK, cartResponse(h.manager.State()))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.manager.ClearCart()
	respondJSON(w, http.StatusOK, cartResponse(h.manager.State()))
}

// POST /api/v1/checkout
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	id, err := h.manager.Checkout(ctx, req.MoneyPaid)
	if err != nil {
		handlePosError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{TransactionID: id})
}
