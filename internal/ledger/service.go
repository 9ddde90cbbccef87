/**
 * @description
 * This file contains the transaction mutation engine, the core business logic
 * of the ledger-service. The `Service` struct applies every single-transaction
 * create/update/delete against the store's scoped-transaction primitive so an
 * account's stored balance never drifts from the signed sum of its log.
 *
 * Key properties:
 * - Validation that can fail without touching state runs before any scope is
 *   opened; validation that needs current balances runs inside the scope and
 *   aborts the whole scope on failure.
 * - Balance writes happen only here and in the transfer orchestrator, always
 *   through a Scope, never directly against the pool.
 * - Events are published only after a successful commit, so consumers observe
 *   committed ledger state exclusively.
 *
 * @dependencies
 * - internal/domain, internal/store: Domain models and the persistence boundary.
 * - pkg/rabbitmq (via the EventPublisher interface): Post-commit event fan-out.
 */

package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/coinkeeper/ledger-service/internal/domain"
	"github.com/coinkeeper/ledger-service/internal/store"
)

// EventsExchange is the topic exchange all ledger events are published to.
const EventsExchange = "ledger.events"

var (
	ErrInvalidKind    = errors.New("unknown transaction kind")
	ErrMissingAccount = errors.New("transaction must reference an account")
)

// EventPublisher publishes post-commit ledger events. Implemented by
// pkg/rabbitmq; a nil publisher disables fan-out.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// StatsCache invalidates cached statistics after a ledger mutation commits.
// A nil cache disables caching.
type StatsCache interface {
	Invalidate(ctx context.Context)
}

// Service provides the core ledger mutation logic. It holds no state between
// calls; every operation is self-contained and safe to retry after a failure
// because a failed scope leaves the store unchanged.
type Service struct {
	store  store.Store
	events EventPublisher
	cache  StatsCache
}

// NewService creates a new ledger service instance.
func NewService(st store.Store, events EventPublisher, cache StatsCache) *Service {
	return &Service{store: st, events: events, cache: cache}
}

// validateTransaction checks the shape of a transaction before any scope is
// opened. Balance-dependent checks belong inside the scope.
func validateTransaction(tx *domain.Transaction) error {
	if tx == nil {
		return ErrMissingAccount
	}
	if tx.AccountID == uuid.Nil {
		return ErrMissingAccount
	}
	if !tx.Kind.Valid() {
		return ErrInvalidKind
	}
	if tx.Amount <= 0 {
		return store.ErrInvalidAmount
	}
	return nil
}

// CreateTransaction records a new income or expense transaction and applies
// its signed effect to the owning account's balance, all inside one scope.
// An expense that would drive the balance negative is rejected with
// ErrInsufficientFunds and leaves no trace.
func (s *Service) CreateTransaction(ctx context.Context, tx *domain.Transaction) (uuid.UUID, error) {
	if err := validateTransaction(tx); err != nil {
		return uuid.Nil, err
	}
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if tx.Date.IsZero() {
		tx.Date = time.Now().UTC()
	}

	var balanceAfter int64
	err := s.store.WithinScope(ctx, func(sc store.Scope) error {
		account, err := sc.GetAccountForUpdate(tx.AccountID)
		if err != nil {
			return err
		}
		if tx.Kind == domain.KindExpense && account.Balance < tx.Amount {
			return store.ErrInsufficientFunds
		}
		if err := sc.InsertTransaction(tx); err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
		balanceAfter = account.Balance + tx.SignedEffect()
		return sc.SetAccountBalance(account.ID, balanceAfter)
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.afterCommit(ctx, "ledger.transaction.created", domain.TransactionEvent{
		TransactionID: tx.ID,
		AccountID:     tx.AccountID,
		Kind:          tx.Kind,
		Amount:        tx.Amount,
		Balance:       balanceAfter,
		Timestamp:     time.Now().UTC(),
	})
	return tx.ID, nil
}

// snapshotMatches reports whether the caller's view of a transaction still
// agrees with the stored row on every balance-affecting field. A divergence
// means another operation committed in between; reversing based on the stale
// snapshot would silently corrupt the balance.
func snapshotMatches(snapshot, stored *domain.Transaction) bool {
	return snapshot.AccountID == stored.AccountID &&
		snapshot.Kind == stored.Kind &&
		snapshot.Amount == stored.Amount
}

// UpdateTransaction replaces an existing transaction with a new version.
// Inside one scope it locks the stored row, rejects a stale caller snapshot
// with ErrConcurrencyConflict, reverses the stored version's effect on its
// account, validates the new version against the restored balance (of the new
// owning account, which may differ), persists the row in place, and applies
// the new effect. Failure at any point rolls the whole scope back: both
// accounts and the row stay untouched.
func (s *Service) UpdateTransaction(ctx context.Context, old, updated *domain.Transaction) error {
	if old == nil || old.ID == uuid.Nil {
		return store.ErrTransactionNotFound
	}
	if err := validateTransaction(updated); err != nil {
		return err
	}
	// The new version is persisted in place of the old row.
	updated.ID = old.ID

	var accountID uuid.UUID
	var balanceAfter int64
	err := s.store.WithinScope(ctx, func(sc store.Scope) error {
		stored, err := sc.GetTransactionForUpdate(old.ID)
		if err != nil {
			return err
		}
		if !snapshotMatches(old, stored) {
			return store.ErrConcurrencyConflict
		}

		if stored.AccountID == updated.AccountID {
			account, err := sc.GetAccountForUpdate(stored.AccountID)
			if err != nil {
				return err
			}
			restored := account.Balance - stored.SignedEffect()
			if updated.Kind == domain.KindExpense && restored < updated.Amount {
				return store.ErrInsufficientFunds
			}
			if err := sc.UpdateTransaction(updated); err != nil {
				return err
			}
			balanceAfter = restored + updated.SignedEffect()
			accountID = account.ID
			return sc.SetAccountBalance(account.ID, balanceAfter)
		}

		// Two distinct accounts are touched: reversal on the old one,
		// validation and application on the new one. Locks are taken in
		// ascending account-id order so two concurrent cross-account updates
		// cannot deadlock.
		oldAccount, newAccount, err := lockPair(sc, stored.AccountID, updated.AccountID)
		if err != nil {
			return err
		}
		if updated.Kind == domain.KindExpense && newAccount.Balance < updated.Amount {
			return store.ErrInsufficientFunds
		}
		if err := sc.UpdateTransaction(updated); err != nil {
			return err
		}
		if err := sc.SetAccountBalance(oldAccount.ID, oldAccount.Balance-stored.SignedEffect()); err != nil {
			return err
		}
		balanceAfter = newAccount.Balance + updated.SignedEffect()
		accountID = newAccount.ID
		return sc.SetAccountBalance(newAccount.ID, balanceAfter)
	})
	if err != nil {
		return err
	}

	s.afterCommit(ctx, "ledger.transaction.updated", domain.TransactionEvent{
		TransactionID: updated.ID,
		AccountID:     accountID,
		Kind:          updated.Kind,
		Amount:        updated.Amount,
		Balance:       balanceAfter,
		Timestamp:     time.Now().UTC(),
	})
	return nil
}

// DeleteTransaction removes a transaction and restores its account's balance
// as if the transaction never existed, inside one scope. The reversal is
// computed from the stored row, and a caller snapshot that no longer matches
// it is rejected with ErrConcurrencyConflict.
func (s *Service) DeleteTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx == nil || tx.ID == uuid.Nil {
		return store.ErrTransactionNotFound
	}

	var balanceAfter int64
	err := s.store.WithinScope(ctx, func(sc store.Scope) error {
		stored, err := sc.GetTransactionForUpdate(tx.ID)
		if err != nil {
			return err
		}
		if !snapshotMatches(tx, stored) {
			return store.ErrConcurrencyConflict
		}
		account, err := sc.GetAccountForUpdate(stored.AccountID)
		if err != nil {
			return err
		}
		if err := sc.DeleteTransaction(stored.ID); err != nil {
			return err
		}
		balanceAfter = account.Balance - stored.SignedEffect()
		return sc.SetAccountBalance(account.ID, balanceAfter)
	})
	if err != nil {
		return err
	}

	s.afterCommit(ctx, "ledger.transaction.deleted", domain.TransactionEvent{
		TransactionID: tx.ID,
		AccountID:     tx.AccountID,
		Kind:          tx.Kind,
		Amount:        tx.Amount,
		Balance:       balanceAfter,
		Timestamp:     time.Now().UTC(),
	})
	return nil
}

// DeleteAllForAccount removes every transaction owned by an account and
// applies the net reversal as one balance correction. The account never
// observably passes through intermediate balances.
func (s *Service) DeleteAllForAccount(ctx context.Context, accountID uuid.UUID) error {
	if accountID == uuid.Nil {
		return store.ErrAccountNotFound
	}

	err := s.store.WithinScope(ctx, func(sc store.Scope) error {
		account, err := sc.GetAccountForUpdate(accountID)
		if err != nil {
			return err
		}
		net, err := sc.SumSignedEffects(accountID)
		if err != nil {
			return err
		}
		if err := sc.SetAccountBalance(account.ID, account.Balance-net); err != nil {
			return err
		}
		_, err = sc.DeleteTransactionsForAccount(accountID)
		return err
	})
	if err != nil {
		return err
	}

	s.invalidateStats(ctx)
	return nil
}

// lockPair locks two account rows in ascending id order and returns them
// keyed back to the requested order (first return matches firstID).
func lockPair(sc store.Scope, firstID, secondID uuid.UUID) (*domain.Account, *domain.Account, error) {
	lo, hi := firstID, secondID
	if bytes.Compare(hi[:], lo[:]) < 0 {
		lo, hi = hi, lo
	}
	loAccount, err := sc.GetAccountForUpdate(lo)
	if err != nil {
		return nil, nil, err
	}
	hiAccount, err := sc.GetAccountForUpdate(hi)
	if err != nil {
		return nil, nil, err
	}
	if loAccount.ID == firstID {
		return loAccount, hiAccount, nil
	}
	return hiAccount, loAccount, nil
}

// afterCommit performs the post-commit side effects shared by all mutations:
// stats cache invalidation and best-effort event publishing. Neither can fail
// the already-committed operation.
func (s *Service) afterCommit(ctx context.Context, routingKey string, event interface{}) {
	s.invalidateStats(ctx)
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, EventsExchange, routingKey, event); err != nil {
		log.Printf("level=warn component=ledger msg=\"event publish failed\" routing_key=%s err=%v", routingKey, err)
	}
}

func (s *Service) invalidateStats(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}
