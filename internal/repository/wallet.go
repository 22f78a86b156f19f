package repository

import (
	"context"

	"github.com/vantari-labs/CompanionBot_Go/internal/domain"
)

// Wallet defines the interface for durable points-wallet persistence.
type Wallet interface {
	// GetWallet returns the user's wallet, creating a default row when absent.
	GetWallet(ctx context.Context, userID int64) (*domain.Wallet, error)

	// WithWalletLock runs fn with the wallet row locked for update.
	// The row is created first when absent. fn's mutations are persisted
	// when it returns nil; any error rolls the transaction back.
	WithWalletLock(ctx context.Context, userID int64, fn func(w *domain.Wallet) error) (*domain.Wallet, error)

	// AppendLedger records a points mutation for audit.
	AppendLedger(ctx context.Context, entry *LedgerEntry) error

	// EligibleReminderUserIDs returns users whose last claim day is today or
	// yesterday (UTC), capped at limit.
	EligibleReminderUserIDs(ctx context.Context, today, yesterday string, limit int) ([]int64, error)
}

// LedgerEntry is one audit row for a points mutation.
type LedgerEntry struct {
	UserID int64
	Delta  int
	Reason string
	Meta   map[string]any
}
