/**
 * @description
 * This file defines the core domain models for the ledger-service. These
 * structs represent the entities used throughout the business logic, database
 * interactions, and API layers.
 *
 * @notes
 * - Amounts are stored as `int64` in the smallest currency unit (cents),
 *   which avoids floating-point inaccuracies with financial data.
 * - A transaction's amount is a positive magnitude only; its direction is
 *   derived from `Kind` so the same fact is never represented two ways.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionKind classifies the balance effect of a transaction.
type TransactionKind string

const (
	KindIncome  TransactionKind = "income"
	KindExpense TransactionKind = "expense"
)

// Valid reports whether the kind is one of the known values.
func (k TransactionKind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// TransferCategoryID is the well-known category marker carried by both legs
// of a transfer so they can be excluded from spending statistics and
// recognized as internal money movement.
var TransferCategoryID = uuid.MustParse("00000000-0000-0000-0000-00000000aaaa")

// Transaction represents one ledger record owned by exactly one account.
// This struct maps directly to the `transactions` table.
type Transaction struct {
	ID         uuid.UUID       `json:"id"`
	AccountID  uuid.UUID       `json:"account_id"`
	CategoryID uuid.UUID       `json:"category_id"`
	Kind       TransactionKind `json:"kind"`
	Amount     int64           `json:"amount"` // in cents, always > 0
	TransferID *uuid.UUID      `json:"transfer_id,omitempty"`
	Date       time.Time       `json:"date"`
	Note       string          `json:"note"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// SignedEffect returns the directional impact of the transaction on its
// owning account's balance: +Amount for income, -Amount for expense.
func (t *Transaction) SignedEffect() int64 {
	if t.Kind == KindExpense {
		return -t.Amount
	}
	return t.Amount
}

// TransferRequest is the DTO for a cross-account transfer.
type TransferRequest struct {
	FromAccountID uuid.UUID `json:"from_account_id"`
	ToAccountID   uuid.UUID `json:"to_account_id"`
	Amount        int64     `json:"amount"` // in cents
	Note          string    `json:"note"`
}
