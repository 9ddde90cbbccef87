/**
 * @description
 * This file contains the HTTP handlers for the ledger-service's API
 * endpoints. Handlers are responsible for parsing incoming requests, calling
 * the appropriate methods on the ledger service, and writing the HTTP
 * response. They act as the bridge between the web layer and the business
 * logic layer; domain errors pass through unchanged and are only translated
 * to status codes here.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/ledger, internal/domain, internal/store, internal/stats.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/coinkeeper/ledger-service/internal/domain"
	"github.com/coinkeeper/ledger-service/internal/ledger"
	"github.com/coinkeeper/ledger-service/internal/stats"
	"github.com/coinkeeper/ledger-service/internal/store"
)

// LedgerHandlers holds the ledger service and read-side collaborators the
// handlers use.
type LedgerHandlers struct {
	service  *ledger.Service
	store    store.Store
	cache    *stats.Cache
	currency string
}

// NewLedgerHandlers creates a new instance of LedgerHandlers. The cache may
// be nil, which disables statistics caching. currency is the default for
// accounts created without one.
func NewLedgerHandlers(service *ledger.Service, st store.Store, cache *stats.Cache, currency string) *LedgerHandlers {
	return &LedgerHandlers{service: service, store: st, cache: cache, currency: currency}
}

// transactionPayload is the DTO for create and update requests.
type transactionPayload struct {
	AccountID  uuid.UUID  `json:"account_id"`
	CategoryID uuid.UUID  `json:"category_id"`
	Kind       string     `json:"kind"`
	Amount     int64      `json:"amount"` // in cents
	Date       *time.Time `json:"date,omitempty"`
	Note       string     `json:"note"`
}

func (p *transactionPayload) toDomain() *domain.Transaction {
	tx := &domain.Transaction{
		AccountID:  p.AccountID,
		CategoryID: p.CategoryID,
		Kind:       domain.TransactionKind(p.Kind),
		Amount:     p.Amount,
		Note:       p.Note,
	}
	if p.Date != nil {
		tx.Date = *p.Date
	}
	return tx
}

// accountPayload is the DTO for account creation requests.
type accountPayload struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	InitialBalance int64  `json:"initial_balance"` // in cents
	Currency       string `json:"currency"`
	IsDefault      bool   `json:"is_default"`
}

// CreateTransactionHandler handles POST /transactions.
func (h *LedgerHandlers) CreateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	var payload transactionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, err := h.service.CreateTransaction(r.Context(), payload.toDomain())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

// UpdateTransactionHandler handles PUT /transactions/{id}. The stored version
// of the transaction is loaded first so the engine can reverse its effect
// before applying the new version.
func (h *LedgerHandlers) UpdateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	var payload transactionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	old, err := h.store.GetTransaction(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	updated := payload.toDomain()
	if updated.Date.IsZero() {
		updated.Date = old.Date
	}
	if err := h.service.UpdateTransaction(r.Context(), old, updated); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"id": id.String()})
}

// DeleteTransactionHandler handles DELETE /transactions/{id}.
func (h *LedgerHandlers) DeleteTransactionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	tx, err := h.store.GetTransaction(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := h.service.DeleteTransaction(r.Context(), tx); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAccountTransactionsHandler handles DELETE /accounts/{id}/transactions.
func (h *LedgerHandlers) DeleteAccountTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid account id")
		return
	}
	if err := h.service.DeleteAllForAccount(r.Context(), accountID); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TransferHandler handles POST /transfers.
func (h *LedgerHandlers) TransferHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	transferID, err := h.service.Transfer(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"transfer_id": transferID.String()})
}

// CreateAccountHandler handles POST /accounts.
func (h *LedgerHandlers) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	var payload accountPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if payload.Currency == "" {
		payload.Currency = h.currency
	}
	account := &domain.Account{
		Name:           payload.Name,
		Type:           domain.AccountType(payload.Type),
		InitialBalance: payload.InitialBalance,
		Currency:       payload.Currency,
		IsDefault:      payload.IsDefault,
	}
	id, err := h.service.CreateAccount(r.Context(), account)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

// ArchiveAccountHandler handles POST /accounts/{id}/archive.
func (h *LedgerHandlers) ArchiveAccountHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid account id")
		return
	}
	if err := h.service.ArchiveAccount(r.Context(), accountID); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAccountsHandler handles GET /accounts.
func (h *LedgerHandlers) ListAccountsHandler(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.store.ListAccounts(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, accounts)
}

// ListAccountTransactionsHandler handles GET /accounts/{id}/transactions.
func (h *LedgerHandlers) ListAccountTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid account id")
		return
	}
	transactions, err := h.store.ListByAccount(r.Context(), accountID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if transactions == nil {
		transactions = []domain.Transaction{}
	}
	h.writeJSON(w, http.StatusOK, transactions)
}

// StatisticsHandler handles GET /statistics?from=&to=&bucket=. Aggregates are
// served from the cache when available; any cache failure degrades to direct
// computation over a consistent snapshot.
func (h *LedgerHandlers) StatisticsHandler(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	bucket := stats.BucketMonthly
	if r.URL.Query().Get("bucket") == string(stats.BucketDaily) {
		bucket = stats.BucketDaily
	}

	cacheKey := []string{period.From.Format(time.RFC3339), period.To.Format(time.RFC3339), string(bucket)}
	if cached, ok := h.cache.Get(r.Context(), cacheKey...); ok {
		h.writeJSON(w, http.StatusOK, cached)
		return
	}

	transactions, err := h.store.ListByPeriod(r.Context(), period)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	aggregate := stats.Compute(transactions, bucket)
	h.cache.Set(r.Context(), &aggregate, cacheKey...)
	h.writeJSON(w, http.StatusOK, aggregate)
}

// BudgetProgressHandler handles GET /budgets/progress?from=&to=.
func (h *LedgerHandlers) BudgetProgressHandler(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	budgets, err := h.store.ListBudgets(r.Context(), period)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	transactions, err := h.store.ListByPeriod(r.Context(), period)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats.BudgetProgress(budgets, transactions))
}

func parsePeriod(r *http.Request) (store.Period, error) {
	var period store.Period
	if raw := r.URL.Query().Get("from"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return period, errors.New("from must be RFC3339")
		}
		period.From = ts
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return period, errors.New("to must be RFC3339")
		}
		period.To = ts
	}
	return period, nil
}

// writeDomainError maps ledger errors onto HTTP status codes. The underlying
// error text is surfaced unchanged; nothing is swallowed or downgraded.
func (h *LedgerHandlers) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrAccountNotFound), errors.Is(err, store.ErrTransactionNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidKind),
		errors.Is(err, ledger.ErrMissingAccount),
		errors.Is(err, ledger.ErrInvalidAccount):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrInsufficientFunds),
		errors.Is(err, store.ErrInvalidTransfer),
		errors.Is(err, store.ErrAccountNotEmpty),
		errors.Is(err, store.ErrLastActiveAccount):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrConcurrencyConflict):
		h.writeError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("level=error component=api msg=\"unhandled ledger error\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *LedgerHandlers) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("level=error component=api msg=\"response encode failed\" err=%v", err)
	}
}

func (h *LedgerHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
