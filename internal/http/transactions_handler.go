package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/fjod/go_pos/internal/ledger"
	"github.com/go-chi/chi/v5"
)

type TransactionsHandler struct {
	ledger  ledger.Store
	timeout time.Duration
}

func NewTransactionsHandler(ledgerStore ledger.Store, timeout time.Duration) *TransactionsHandler {
	return &TransactionsHandler{
		ledger:  ledgerStore,
		timeout: timeout,
	}
}

// GET /api/v1/transactions?today=true
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var transactions []*domain.Transaction
	var err error
	if r.URL.Query().Get("today") == "true" {
		transactions, err = h.ledger.ListToday(ctx)
	} else {
		transactions, err = h.ledger.GetAll(ctx)
	}
	if err != nil {
		handlePosError(w, err)
		return
	}

	if transactions == nil {
		transactions = []*domain.Transaction{}
	}
	respondJSON(w, http.StatusOK, transactions)
}

// GET /api/v1/transactions/{id}
func (h *TransactionsHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_transaction_id", "id must be an integer")
		return
	}

	transaction, err := h.ledger.GetByID(ctx, id)
	if err != nil {
		handlePosError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, transaction)
}

// GET /api/v1/transactions/last
func (h *TransactionsHandler) GetLastTransaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	transaction, err := h.ledger.Last(ctx)
	if err != nil {
		handlePosError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, transaction)
}

// GET /api/v1/reports/today
func (h *TransactionsHandler) TodayReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	summary, err := h.ledger.TodaySummary(ctx)
	if err != nil {
		handlePosError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
