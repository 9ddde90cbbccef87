package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountType classifies where the money physically lives.
type AccountType string

const (
	AccountCash    AccountType = "cash"
	AccountBank    AccountType = "bank"
	AccountEWallet AccountType = "e_wallet"
	AccountOther   AccountType = "other"
)

// Valid reports whether the account type is one of the known values.
func (t AccountType) Valid() bool {
	switch t {
	case AccountCash, AccountBank, AccountEWallet, AccountOther:
		return true
	}
	return false
}

// Account represents a user's money account. The stored balance is kept in
// exact agreement with the signed sum of the account's transaction log:
//
//	Balance == InitialBalance + Σ SignedEffect(tx)
//
// Only the ledger engine mutates Balance; no other component writes it.
type Account struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	Type           AccountType `json:"type"`
	Balance        int64       `json:"balance"`         // in cents
	InitialBalance int64       `json:"initial_balance"` // in cents
	Currency       string      `json:"currency"`
	Archived       bool        `json:"archived"`
	IsDefault      bool        `json:"is_default"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}
