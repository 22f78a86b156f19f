package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantari-labs/CompanionBot_Go/internal/domain"
	"github.com/vantari-labs/CompanionBot_Go/internal/repository"
)

// WalletRepository implements the wallet repository for PostgreSQL
type WalletRepository struct {
	db *pgxpool.Pool
}

// NewWalletRepository creates a new WalletRepository
func NewWalletRepository(db *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{db: db}
}

// GetWallet returns the user's wallet, creating a default row when absent.
func (r *WalletRepository) GetWallet(ctx context.Context, userID int64) (*domain.Wallet, error) {
	w, err := scanWallet(ctx, r.db, SQLSelectWallet, userID)
	if err == nil {
		return w, nil
	}
	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	if _, err := r.db.Exec(ctx, SQLInsertDefaultWallet, userID); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	w, err = scanWallet(ctx, r.db, SQLSelectWallet, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload wallet: %w", err)
	}
	return w, nil
}

// WithWalletLock runs fn with the wallet row locked FOR UPDATE. Claim and
// restore mutations go through here so concurrent claims cannot double-award.
func (r *WalletRepository) WithWalletLock(ctx context.Context, userID int64, fn func(w *domain.Wallet) error) (*domain.Wallet, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, SQLInsertDefaultWallet, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure wallet: %w", err)
	}

	w, err := scanWallet(ctx, tx, SQLSelectWalletForUpdate, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}

	if err := fn(w); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, SQLUpdateWallet,
		w.UserID, w.Balance, w.LastClaimDay, w.FirstClaimed, w.StreakSaved, w.RestoreDeadlineDay)
	if err != nil {
		return nil, fmt.Errorf("failed to update wallet: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit wallet update: %w", err)
	}
	return w, nil
}

// AppendLedger records a points mutation for audit.
func (r *WalletRepository) AppendLedger(ctx context.Context, entry *repository.LedgerEntry) error {
	meta := entry.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode ledger meta: %w", err)
	}
	if _, err := r.db.Exec(ctx, SQLInsertLedger, entry.UserID, entry.Delta, entry.Reason, string(raw)); err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

// EligibleReminderUserIDs returns users whose last claim day is today or
// yesterday. Users whose streak has been dead for longer are not re-nagged.
func (r *WalletRepository) EligibleReminderUserIDs(ctx context.Context, today, yesterday string, limit int) ([]int64, error) {
	rows, err := r.db.Query(ctx, SQLSelectEligibleReminderUsers, today, yesterday, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible users: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan eligible user: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate eligible users: %w", err)
	}
	return out, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanWallet(ctx context.Context, q rowQuerier, query string, userID int64) (*domain.Wallet, error) {
	var w domain.Wallet
	err := q.QueryRow(ctx, query, userID).Scan(
		&w.UserID,
		&w.Balance,
		&w.LastClaimDay,
		&w.FirstClaimed,
		&w.StreakSaved,
		&w.RestoreDeadlineDay,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
