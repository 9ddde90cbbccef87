package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/coinkeeper/ledger-service/internal/domain"
	"github.com/coinkeeper/ledger-service/internal/store"
)

func TestCreateAccount_StartsAtInitialBalance(t *testing.T) {
	m := newMemStore()
	svc := newTestService(m)

	id, err := svc.CreateAccount(context.Background(), &domain.Account{
		Name:           "Wallet",
		Type:           domain.AccountCash,
		InitialBalance: 5000,
	})
	if err != nil {
		t.Fatalf("create account failed: %v", err)
	}

	account := m.accounts[id]
	if account.Balance != 5000 || account.InitialBalance != 5000 {
		t.Fatalf("expected balance and initial balance of 5000, got %d/%d", account.Balance, account.InitialBalance)
	}
	if account.Currency != "USD" {
		t.Fatalf("expected default currency USD, got %q", account.Currency)
	}
	checkInvariant(t, m, id)
}

func TestCreateAccount_Validation(t *testing.T) {
	m := newMemStore()
	svc := newTestService(m)

	tests := []struct {
		name    string
		account *domain.Account
	}{
		{name: "nil account", account: nil},
		{name: "blank name", account: &domain.Account{Name: "   ", Type: domain.AccountBank}},
		{name: "unknown type", account: &domain.Account{Name: "Wallet", Type: domain.AccountType("crypto")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateAccount(context.Background(), tt.account); !errors.Is(err, ErrInvalidAccount) {
				t.Fatalf("expected ErrInvalidAccount, got %v", err)
			}
		})
	}
}

func TestArchiveAccount_RequiresZeroBalance(t *testing.T) {
	m := newMemStore()
	accountID := m.addAccount(100)
	m.addAccount(0)
	svc := newTestService(m)

	if err := svc.ArchiveAccount(context.Background(), accountID); !errors.Is(err, store.ErrAccountNotEmpty) {
		t.Fatalf("expected ErrAccountNotEmpty, got %v", err)
	}
	if m.accounts[accountID].Archived {
		t.Fatal("expected account to stay active")
	}
}

func TestArchiveAccount_KeepsOneActiveAccount(t *testing.T) {
	m := newMemStore()
	accountID := m.addAccount(0)
	svc := newTestService(m)

	if err := svc.ArchiveAccount(context.Background(), accountID); !errors.Is(err, store.ErrLastActiveAccount) {
		t.Fatalf("expected ErrLastActiveAccount, got %v", err)
	}
}

func TestArchiveAccount_Succeeds(t *testing.T) {
	m := newMemStore()
	accountID := m.addAccount(0)
	m.addAccount(500)
	svc := newTestService(m)

	if err := svc.ArchiveAccount(context.Background(), accountID); err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	if !m.accounts[accountID].Archived {
		t.Fatal("expected account archived")
	}

	// Archiving an already-archived account is a no-op.
	if err := svc.ArchiveAccount(context.Background(), accountID); err != nil {
		t.Fatalf("expected idempotent archive, got %v", err)
	}
}

func TestArchiveAccount_Unknown(t *testing.T) {
	m := newMemStore()
	m.addAccount(0)
	svc := newTestService(m)

	if err := svc.ArchiveAccount(context.Background(), uuid.New()); !errors.Is(err, store.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
