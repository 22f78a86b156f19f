package repository

import (
	"context"

	"github.com/vantari-labs/CompanionBot_Go/internal/domain"
)

// UserState defines the interface for durable per-user economy state.
// Rows are created lazily on first access and never destroyed.
type UserState interface {
	// GetState returns the user's state, creating a default row when absent.
	GetState(ctx context.Context, userID int64) (*domain.UserState, error)

	// SaveState upserts the full state row.
	SaveState(ctx context.Context, st *domain.UserState) error

	// IncrementInventoryUpgrades adds delta (never below zero) under a row
	// lock and returns the new total. Concurrent purchases must not lose
	// increments.
	IncrementInventoryUpgrades(ctx context.Context, userID int64, delta int) (int, error)
}

// Ownership defines the interface for owned-character persistence.
// A (user, character) pair lives in at most one of the two categories:
// registry-owned or custom profile.
type Ownership interface {
	// ListOwnedIDs returns all owned character ids for the user across both
	// categories, normalized, including the synthetic base ids.
	ListOwnedIDs(ctx context.Context, userID int64) (map[string]bool, error)

	// Owns reports whether the user owns the (normalized) character id in
	// either category.
	Owns(ctx context.Context, userID int64, characterID string) (bool, error)

	// AppendOwned records registry ownership. Idempotent per pair.
	AppendOwned(ctx context.Context, userID int64, characterID string) error

	// RemoveOwned deletes the pair from both categories. Returns true when
	// at least one record was removed.
	RemoveOwned(ctx context.Context, userID int64, characterID string) (bool, error)

	// UpsertCustomProfile stores a user-authored character profile.
	UpsertCustomProfile(ctx context.Context, profile *domain.CustomProfile) error

	// GetCustomProfile returns the profile or nil when absent.
	GetCustomProfile(ctx context.Context, userID int64, characterID string) (*domain.CustomProfile, error)

	// ListCustomProfiles returns the user's profiles, newest first.
	ListCustomProfiles(ctx context.Context, userID int64, limit int) ([]domain.CustomProfile, error)
}
