package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/fjod/go_pos/internal/catalog"
	"github.com/fjod/go_pos/internal/ledger"
	"github.com/fjod/go_pos/internal/pos"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, details string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    code,
		Details: details,
	})
}

// handlePosError maps manager and store errors onto HTTP statuses.
func handlePosError(w http.ResponseWriter, err error) {
	var insufficientStock *pos.InsufficientStockError
	var insufficientPayment *pos.InsufficientPaymentError
	var stockConflict *pos.StockConflictError
	var checkoutFailed *pos.CheckoutFailedError

	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, ledger.ErrTransactionNotFound):
		respondError(w, http.StatusNotFound, "transaction_not_found", err.Error())
	case errors.Is(err, pos.ErrOutOfStock):
		respondError(w, http.StatusConflict, "out_of_stock", err.Error())
	case errors.Is(err, pos.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.As(err, &insufficientStock):
		respondError(w, http.StatusConflict, "insufficient_stock", err.Error())
	case errors.As(err, &insufficientPayment):
		respondError(w, http.StatusUnprocessableEntity, "insufficient_payment", err.Error())
	case errors.As(err, &stockConflict):
		respondError(w, http.StatusConflict, "stock_conflict", err.Error())
	case errors.As(err, &checkoutFailed):
		log.Printf("checkout failed: %v", err)
		respondError(w, http.StatusInternalServerError, "checkout_failed", "checkout could not be completed")
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
	}
}
