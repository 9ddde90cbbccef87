/**
 * @description
 * This file defines the `Store` and `Scope` interfaces, which specify the
 * contract for all data access required by the ledger engine. By defining
 * interfaces, we decouple the business logic from the specific database
 * implementation (PostgreSQL), making the code more modular and easier to
 * test.
 *
 * The split between the two interfaces is deliberate: every mutating method
 * lives on `Scope`, and a `Scope` can only be obtained inside
 * `Store.WithinScope`. That makes "balance writes happen only inside an
 * atomic scope" a compile-time property rather than a convention.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/coinkeeper/ledger-service/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidTransfer     = errors.New("transfer endpoints must be two distinct accounts")
	ErrConcurrencyConflict = errors.New("concurrent ledger update conflict")
	ErrAccountNotEmpty     = errors.New("account balance must be zero")
	ErrLastActiveAccount   = errors.New("at least one active account must remain")
)

// Period bounds a half-open time range [From, To) for read queries.
type Period struct {
	From time.Time
	To   time.Time
}

// Contains reports whether ts falls inside the period. A zero bound is open.
func (p Period) Contains(ts time.Time) bool {
	if !p.From.IsZero() && ts.Before(p.From) {
		return false
	}
	if !p.To.IsZero() && !ts.Before(p.To) {
		return false
	}
	return true
}

// Store is the persistence boundary of the ledger. Reads outside a scope
// observe either the complete pre-state or complete post-state of any
// in-flight scope, never partial writes.
type Store interface {
	// WithinScope runs body inside a single atomic transaction. If body
	// returns an error every write performed through the Scope is discarded
	// and that error is returned unchanged; otherwise all writes commit
	// together. Scopes do not nest: one top-level scope per logical
	// operation.
	WithinScope(ctx context.Context, body func(Scope) error) error

	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error)
	ListByPeriod(ctx context.Context, period Period) ([]domain.Transaction, error)
	ListBudgets(ctx context.Context, period Period) ([]domain.Budget, error)
}

// Scope exposes the mutations permitted inside one atomic unit of work.
// Implementations serialize concurrent writers per account row; a detected
// conflict surfaces as ErrConcurrencyConflict, never as a lost update.
type Scope interface {
	// GetAccountForUpdate loads an account and locks its row for the
	// remainder of the scope.
	GetAccountForUpdate(id uuid.UUID) (*domain.Account, error)
	SetAccountBalance(id uuid.UUID, balance int64) error
	InsertAccount(account *domain.Account) error
	ArchiveAccount(id uuid.UUID) error
	CountActiveAccounts() (int, error)

	// GetTransactionForUpdate loads a transaction row and locks it for the
	// remainder of the scope.
	GetTransactionForUpdate(id uuid.UUID) (*domain.Transaction, error)
	InsertTransaction(tx *domain.Transaction) error
	UpdateTransaction(tx *domain.Transaction) error
	DeleteTransaction(id uuid.UUID) error
	// SumSignedEffects returns the net signed effect of every transaction
	// owned by the account in a single pass.
	SumSignedEffects(accountID uuid.UUID) (int64, error)
	DeleteTransactionsForAccount(accountID uuid.UUID) (int64, error)
}
