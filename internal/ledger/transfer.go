/**
 * @description
 * This file contains the transfer orchestrator: moving money between two
 * accounts as a single atomic operation. A transfer produces exactly two
 * transaction rows (an expense leg on the source account, an income leg on
 * the destination account) and two balance updates, all of which become
 * visible together or not at all.
 */

package ledger

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/coinkeeper/ledger-service/internal/domain"
	"github.com/coinkeeper/ledger-service/internal/store"
)

// Transfer moves amount from one account to another inside one scope. Both
// legs carry the transfer category marker and one shared correlation id so
// the pair is queryable and reversible as a unit. On any failure neither
// account's balance nor either transaction log changes.
func (s *Service) Transfer(ctx context.Context, req domain.TransferRequest) (uuid.UUID, error) {
	if req.FromAccountID == uuid.Nil || req.ToAccountID == uuid.Nil || req.FromAccountID == req.ToAccountID {
		return uuid.Nil, store.ErrInvalidTransfer
	}
	if req.Amount <= 0 {
		return uuid.Nil, store.ErrInvalidAmount
	}

	transferID := uuid.New()
	now := time.Now().UTC()

	err := s.store.WithinScope(ctx, func(sc store.Scope) error {
		from, to, err := lockPair(sc, req.FromAccountID, req.ToAccountID)
		if err != nil {
			return err
		}
		if from.Balance < req.Amount {
			return store.ErrInsufficientFunds
		}

		debitLeg := &domain.Transaction{
			ID:         uuid.New(),
			AccountID:  from.ID,
			CategoryID: domain.TransferCategoryID,
			Kind:       domain.KindExpense,
			Amount:     req.Amount,
			TransferID: &transferID,
			Date:       now,
			Note:       req.Note,
		}
		creditLeg := &domain.Transaction{
			ID:         uuid.New(),
			AccountID:  to.ID,
			CategoryID: domain.TransferCategoryID,
			Kind:       domain.KindIncome,
			Amount:     req.Amount,
			TransferID: &transferID,
			Date:       now,
			Note:       req.Note,
		}

		if err := sc.InsertTransaction(debitLeg); err != nil {
			return err
		}
		if err := sc.InsertTransaction(creditLeg); err != nil {
			return err
		}
		if err := sc.SetAccountBalance(from.ID, from.Balance-req.Amount); err != nil {
			return err
		}
		return sc.SetAccountBalance(to.ID, to.Balance+req.Amount)
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.invalidateStats(ctx)
	if s.events != nil {
		event := domain.TransferEvent{
			TransferID:    transferID,
			FromAccountID: req.FromAccountID,
			ToAccountID:   req.ToAccountID,
			Amount:        req.Amount,
			Timestamp:     now,
		}
		if err := s.events.Publish(ctx, EventsExchange, "ledger.transfer.completed", event); err != nil {
			log.Printf("level=warn component=ledger msg=\"transfer event publish failed\" transfer_id=%s err=%v", transferID, err)
		}
	}
	return transferID, nil
}
