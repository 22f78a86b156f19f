package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantari-labs/CompanionBot_Go/internal/domain"
)

// UserStateRepository implements the user-state repository for PostgreSQL
type UserStateRepository struct {
	db *pgxpool.Pool
}

// NewUserStateRepository creates a new UserStateRepository
func NewUserStateRepository(db *pgxpool.Pool) *UserStateRepository {
	return &UserStateRepository{db: db}
}

// GetState returns the user's state, creating a default row when absent.
func (r *UserStateRepository) GetState(ctx context.Context, userID int64) (*domain.UserState, error) {
	st, err := r.scanState(ctx, userID)
	if err == nil {
		return st, nil
	}
	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("failed to get user state: %w", err)
	}

	if _, err := r.db.Exec(ctx, SQLInsertDefaultUserState, userID); err != nil {
		return nil, fmt.Errorf("failed to create user state: %w", err)
	}
	st, err = r.scanState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user state: %w", err)
	}
	return st, nil
}

func (r *UserStateRepository) scanState(ctx context.Context, userID int64) (*domain.UserState, error) {
	var st domain.UserState
	err := r.db.QueryRow(ctx, SQLSelectUserState, userID).Scan(
		&st.UserID,
		&st.ActiveCharacterID,
		&st.Points,
		&st.RollDay,
		&st.RollUsed,
		&st.PityMythic,
		&st.PityLegendary,
		&st.InventoryUpgrades,
		&st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// SaveState upserts the full state row.
func (r *UserStateRepository) SaveState(ctx context.Context, st *domain.UserState) error {
	_, err := r.db.Exec(ctx, SQLUpsertUserState,
		st.UserID,
		domain.NormalizeID(st.ActiveCharacterID),
		st.Points,
		st.RollDay,
		st.RollUsed,
		st.PityMythic,
		st.PityLegendary,
		st.InventoryUpgrades,
	)
	if err != nil {
		return fmt.Errorf("failed to save user state: %w", err)
	}
	return nil
}

// IncrementInventoryUpgrades adds delta under a row lock and returns the new
// total. The lock closes the read-increment-write race between concurrent
// upgrade purchases.
func (r *UserStateRepository) IncrementInventoryUpgrades(ctx context.Context, userID int64, delta int) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, SQLInsertDefaultUserState, userID); err != nil {
		return 0, fmt.Errorf("failed to ensure user state: %w", err)
	}

	var current int
	if err := tx.QueryRow(ctx, SQLSelectUpgradesForUpdate, userID).Scan(&current); err != nil {
		return 0, fmt.Errorf("failed to lock user state: %w", err)
	}

	next := current + delta
	if next < 0 {
		next = 0
	}
	if _, err := tx.Exec(ctx, SQLUpdateUpgrades, userID, next); err != nil {
		return 0, fmt.Errorf("failed to update inventory upgrades: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit upgrade increment: %w", err)
	}
	return next, nil
}
