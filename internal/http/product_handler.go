package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/fjod/go_pos/internal/pos"
)

type ProductHandler struct {
	manager *pos.Manager
	timeout time.Duration
}

func NewProductHandler(manager *pos.Manager, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		manager: manager,
		timeout: timeout,
	}
}

// GET /api/v1/products?q=...&available=true
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	query := r.URL.Query().Get("q")
	availableOnly := r.URL.Query().Get("available") == "true"

	products, err := h.manager.Products(ctx, query, availableOnly)
	if err != nil {
		handlePosError(w, err)
		return
	}

	if products == nil {
		products = []domain.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}
