/**
 * @description
 * This file provides the PostgreSQL implementation of the `Store` and `Scope`
 * interfaces. It contains all SQL needed for the accounts and transactions
 * tables, plus the scoped-transaction primitive the ledger engine builds on.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coinkeeper/ledger-service/internal/domain"
)

// PostgresStore is a concrete implementation of the Store interface for PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new instance of PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// mapPgError converts Postgres serialization and deadlock failures into
// ErrConcurrencyConflict so callers can retry, and passes everything else
// through unchanged.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return ErrConcurrencyConflict
		}
	}
	return err
}

// WithinScope runs body inside one database transaction. The scope uses a
// context detached from caller cancellation: once a scope has begun it must
// reach a commit or rollback before control returns, so an abandoned caller
// can never leave a partially-applied mutation observable.
func (s *PostgresStore) WithinScope(ctx context.Context, body func(Scope) error) error {
	ctx = context.WithoutCancel(ctx)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return mapPgError(err)
	}
	defer tx.Rollback(ctx)

	if err := body(&pgScope{ctx: ctx, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return mapPgError(err)
	}
	return nil
}

const accountColumns = `id, name, type, balance, initial_balance, currency, archived, is_default, created_at, updated_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	err := row.Scan(
		&account.ID, &account.Name, &account.Type, &account.Balance,
		&account.InitialBalance, &account.Currency, &account.Archived,
		&account.IsDefault, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, mapPgError(err)
	}
	return &account, nil
}

// GetAccount retrieves an account by its ID.
func (s *PostgresStore) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(s.db.QueryRow(ctx, query, id))
}

// ListAccounts retrieves all accounts, active ones first.
func (s *PostgresStore) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY archived ASC, created_at ASC`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

const transactionColumns = `id, account_id, category_id, kind, amount, transfer_id, date, COALESCE(note, '') AS note, created_at, updated_at`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := row.Scan(
		&tx.ID, &tx.AccountID, &tx.CategoryID, &tx.Kind, &tx.Amount,
		&tx.TransferID, &tx.Date, &tx.Note, &tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrTransactionNotFound
		}
		return nil, mapPgError(err)
	}
	return &tx, nil
}

// GetTransaction retrieves a single transaction by its ID.
func (s *PostgresStore) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return scanTransaction(s.db.QueryRow(ctx, query, id))
}

// ListByAccount retrieves every transaction owned by an account, newest first.
func (s *PostgresStore) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE account_id = $1 ORDER BY date DESC, created_at DESC`
	return s.queryTransactions(ctx, query, accountID)
}

// ListByPeriod retrieves every transaction dated inside the period, all
// accounts combined. Zero bounds leave that side of the range open.
func (s *PostgresStore) ListByPeriod(ctx context.Context, period Period) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE ($1::timestamptz IS NULL OR date >= $1)
		  AND ($2::timestamptz IS NULL OR date < $2)
		ORDER BY date ASC, created_at ASC
	`
	return s.queryTransactions(ctx, query, nullableTime(period.From), nullableTime(period.To))
}

func (s *PostgresStore) queryTransactions(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *tx)
	}
	return transactions, rows.Err()
}

// ListBudgets retrieves budgets overlapping the period. Budgets are owned by
// an external collaborator and are read-only here.
func (s *PostgresStore) ListBudgets(ctx context.Context, period Period) ([]domain.Budget, error) {
	query := `
		SELECT id, category_id, amount, period_start, period_end
		FROM budgets
		WHERE ($1::timestamptz IS NULL OR period_end > $1)
		  AND ($2::timestamptz IS NULL OR period_start < $2)
		ORDER BY period_start ASC
	`
	rows, err := s.db.Query(ctx, query, nullableTime(period.From), nullableTime(period.To))
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var budgets []domain.Budget
	for rows.Next() {
		var budget domain.Budget
		if err := rows.Scan(&budget.ID, &budget.CategoryID, &budget.Amount, &budget.PeriodStart, &budget.PeriodEnd); err != nil {
			return nil, mapPgError(err)
		}
		budgets = append(budgets, budget)
	}
	return budgets, rows.Err()
}

func nullableTime(ts interface{ IsZero() bool }) any {
	if ts.IsZero() {
		return nil
	}
	return ts
}

// pgScope implements Scope on top of one pgx transaction. It is only ever
// constructed by WithinScope.
type pgScope struct {
	ctx context.Context
	tx  pgx.Tx
}

// GetAccountForUpdate loads an account and takes a row lock with FOR UPDATE,
// serializing concurrent scopes that target the same account.
func (sc *pgScope) GetAccountForUpdate(id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return scanAccount(sc.tx.QueryRow(sc.ctx, query, id))
}

func (sc *pgScope) SetAccountBalance(id uuid.UUID, balance int64) error {
	result, err := sc.tx.Exec(sc.ctx, `UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2`, balance, id)
	if err != nil {
		return mapPgError(err)
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (sc *pgScope) InsertAccount(account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, name, type, balance, initial_balance, currency, archived, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := sc.tx.Exec(sc.ctx, query,
		account.ID, account.Name, account.Type, account.Balance,
		account.InitialBalance, account.Currency, account.Archived, account.IsDefault,
	)
	return mapPgError(err)
}

func (sc *pgScope) ArchiveAccount(id uuid.UUID) error {
	result, err := sc.tx.Exec(sc.ctx, `UPDATE accounts SET archived = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (sc *pgScope) CountActiveAccounts() (int, error) {
	var count int
	err := sc.tx.QueryRow(sc.ctx, `SELECT COUNT(*) FROM accounts WHERE archived = FALSE`).Scan(&count)
	if err != nil {
		return 0, mapPgError(err)
	}
	return count, nil
}

// GetTransactionForUpdate loads a transaction row with FOR UPDATE so a
// concurrent scope cannot change or delete it until this scope finishes.
func (sc *pgScope) GetTransactionForUpdate(id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`
	return scanTransaction(sc.tx.QueryRow(sc.ctx, query, id))
}

func (sc *pgScope) InsertTransaction(tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, account_id, category_id, kind, amount, transfer_id, date, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := sc.tx.Exec(sc.ctx, query,
		tx.ID, tx.AccountID, tx.CategoryID, tx.Kind, tx.Amount, tx.TransferID, tx.Date, tx.Note,
	)
	return mapPgError(err)
}

func (sc *pgScope) UpdateTransaction(tx *domain.Transaction) error {
	query := `
		UPDATE transactions
		SET account_id = $1, category_id = $2, kind = $3, amount = $4, date = $5, note = $6, updated_at = NOW()
		WHERE id = $7
	`
	result, err := sc.tx.Exec(sc.ctx, query,
		tx.AccountID, tx.CategoryID, tx.Kind, tx.Amount, tx.Date, tx.Note, tx.ID,
	)
	if err != nil {
		return mapPgError(err)
	}
	if result.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (sc *pgScope) DeleteTransaction(id uuid.UUID) error {
	result, err := sc.tx.Exec(sc.ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if result.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// SumSignedEffects computes the net balance effect of every transaction on
// the account in one aggregate query, so a bulk reversal needs a single
// balance correction instead of one per row.
func (sc *pgScope) SumSignedEffects(accountID uuid.UUID) (int64, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN kind = 'income' THEN amount ELSE -amount END), 0)
		FROM transactions
		WHERE account_id = $1
	`
	var sum int64
	if err := sc.tx.QueryRow(sc.ctx, query, accountID).Scan(&sum); err != nil {
		return 0, mapPgError(err)
	}
	return sum, nil
}

func (sc *pgScope) DeleteTransactionsForAccount(accountID uuid.UUID) (int64, error) {
	result, err := sc.tx.Exec(sc.ctx, `DELETE FROM transactions WHERE account_id = $1`, accountID)
	if err != nil {
		return 0, mapPgError(err)
	}
	return result.RowsAffected(), nil
}
