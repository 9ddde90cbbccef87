/**
 * @description
 * Account lifecycle operations. Accounts are created by user action and may
 * only be archived once their balance is zero and at least one other active
 * account remains. Balances themselves are never written here outside the
 * initial insert; only the mutation engine and the transfer orchestrator
 * change them.
 */

package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/coinkeeper/ledger-service/internal/domain"
	"github.com/coinkeeper/ledger-service/internal/store"
)

var ErrInvalidAccount = errors.New("account is missing required fields")

// CreateAccount registers a new account. The stored balance starts equal to
// the initial balance, which keeps the ledger invariant trivially true for
// an empty log.
func (s *Service) CreateAccount(ctx context.Context, account *domain.Account) (uuid.UUID, error) {
	if account == nil || strings.TrimSpace(account.Name) == "" {
		return uuid.Nil, ErrInvalidAccount
	}
	if !account.Type.Valid() {
		return uuid.Nil, ErrInvalidAccount
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	if account.Currency == "" {
		account.Currency = "USD"
	}
	account.Balance = account.InitialBalance
	account.Archived = false

	err := s.store.WithinScope(ctx, func(sc store.Scope) error {
		return sc.InsertAccount(account)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return account.ID, nil
}

// ArchiveAccount marks an account as archived. Allowed only when the balance
// is exactly zero and archiving would still leave an active account.
func (s *Service) ArchiveAccount(ctx context.Context, accountID uuid.UUID) error {
	if accountID == uuid.Nil {
		return store.ErrAccountNotFound
	}

	return s.store.WithinScope(ctx, func(sc store.Scope) error {
		account, err := sc.GetAccountForUpdate(accountID)
		if err != nil {
			return err
		}
		if account.Archived {
			return nil
		}
		if account.Balance != 0 {
			return store.ErrAccountNotEmpty
		}
		active, err := sc.CountActiveAccounts()
		if err != nil {
			return err
		}
		if active <= 1 {
			return store.ErrLastActiveAccount
		}
		return sc.ArchiveAccount(accountID)
	})
}
