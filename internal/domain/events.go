package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionEvent is published to the message broker after a transaction
// mutation commits. Consumers (notification, sync) only ever observe fully
// committed ledger state.
type TransactionEvent struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	AccountID     uuid.UUID       `json:"account_id"`
	Kind          TransactionKind `json:"kind"`
	Amount        int64           `json:"amount"`
	Balance       int64           `json:"balance"` // account balance after commit
	Timestamp     time.Time       `json:"timestamp"`
}

// TransferEvent is published after both legs of a transfer commit together.
type TransferEvent struct {
	TransferID    uuid.UUID `json:"transfer_id"`
	FromAccountID uuid.UUID `json:"from_account_id"`
	ToAccountID   uuid.UUID `json:"to_account_id"`
	Amount        int64     `json:"amount"`
	Timestamp     time.Time `json:"timestamp"`
}
