/**
 * @description
 * This file sets up the HTTP router for the ledger-service. It defines the
 * API endpoints, associates them with their corresponding handlers, and
 * applies middleware for logging, panic recovery, timeouts, and auth.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// LedgerRoutes creates and returns a new router for the ledger service.
func LedgerRoutes(h *LedgerHandlers, jwtSecret string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwtSecret))

		// Ledger mutations
		r.Post("/transactions", h.CreateTransactionHandler)
		r.Put("/transactions/{id}", h.UpdateTransactionHandler)
		r.Delete("/transactions/{id}", h.DeleteTransactionHandler)
		r.Post("/transfers", h.TransferHandler)

		// Account management
		r.Get("/accounts", h.ListAccountsHandler)
		r.Post("/accounts", h.CreateAccountHandler)
		r.Post("/accounts/{id}/archive", h.ArchiveAccountHandler)
		r.Get("/accounts/{id}/transactions", h.ListAccountTransactionsHandler)
		r.Delete("/accounts/{id}/transactions", h.DeleteAccountTransactionsHandler)

		// Read-only reporting
		r.Get("/statistics", h.StatisticsHandler)
		r.Get("/budgets/progress", h.BudgetProgressHandler)
	})

	return r
}
