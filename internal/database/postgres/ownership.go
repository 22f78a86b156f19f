package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantari-labs/CompanionBot_Go/internal/domain"
	"github.com/vantari-labs/CompanionBot_Go/internal/registry"
)

// OwnershipRepository implements the ownership repository for PostgreSQL
type OwnershipRepository struct {
	db *pgxpool.Pool
}

// NewOwnershipRepository creates a new OwnershipRepository
func NewOwnershipRepository(db *pgxpool.Pool) *OwnershipRepository {
	return &OwnershipRepository{db: db}
}

// ListOwnedIDs returns all owned ids across both categories, normalized,
// including the synthetic base ids which are always owned.
func (r *OwnershipRepository) ListOwnedIDs(ctx context.Context, userID int64) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, id := range registry.BaseIDs() {
		out[id] = true
	}

	for _, query := range []string{SQLSelectOwnedIDs, SQLSelectCustomIDs} {
		rows, err := r.db.Query(ctx, query, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to list owned characters: %w", err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan owned character: %w", err)
			}
			if n := domain.NormalizeID(id); n != "" {
				out[n] = true
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate owned characters: %w", err)
		}
	}
	return out, nil
}

// Owns checks both categories so shop and rolled characters are found.
func (r *OwnershipRepository) Owns(ctx context.Context, userID int64, characterID string) (bool, error) {
	id := domain.NormalizeID(characterID)
	if id == "" {
		return false, nil
	}
	for _, query := range []string{SQLSelectOwnsRegistry, SQLSelectOwnsCustom} {
		var one int
		err := r.db.QueryRow(ctx, query, userID, id).Scan(&one)
		if err == nil {
			return true, nil
		}
		if err != pgx.ErrNoRows {
			return false, fmt.Errorf("failed to check ownership: %w", err)
		}
	}
	return false, nil
}

// AppendOwned records registry ownership. Idempotent per pair.
func (r *OwnershipRepository) AppendOwned(ctx context.Context, userID int64, characterID string) error {
	id := domain.NormalizeID(characterID)
	if id == "" {
		return domain.ErrInvalidInput
	}
	if _, err := r.db.Exec(ctx, SQLInsertOwned, userID, id); err != nil {
		return fmt.Errorf("failed to append owned character: %w", err)
	}
	return nil
}

// RemoveOwned deletes the pair from both categories atomically.
func (r *OwnershipRepository) RemoveOwned(ctx context.Context, userID int64, characterID string) (bool, error) {
	id := domain.NormalizeID(characterID)
	if id == "" {
		return false, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var removed int64
	for _, query := range []string{SQLDeleteOwned, SQLDeleteCustom} {
		tag, err := tx.Exec(ctx, query, userID, id)
		if err != nil {
			return false, fmt.Errorf("failed to remove owned character: %w", err)
		}
		removed += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit removal: %w", err)
	}
	return removed > 0, nil
}

// UpsertCustomProfile stores a user-authored character profile.
func (r *OwnershipRepository) UpsertCustomProfile(ctx context.Context, profile *domain.CustomProfile) error {
	id := domain.NormalizeID(profile.CharacterID)
	if id == "" {
		return domain.ErrInvalidInput
	}
	_, err := r.db.Exec(ctx, SQLUpsertCustomProfile,
		profile.UserID, id, truncate(profile.Name, maxProfileNameLen), truncate(profile.Prompt, maxProfilePromptLen))
	if err != nil {
		return fmt.Errorf("failed to upsert custom profile: %w", err)
	}
	return nil
}

// GetCustomProfile returns the profile or nil when absent.
func (r *OwnershipRepository) GetCustomProfile(ctx context.Context, userID int64, characterID string) (*domain.CustomProfile, error) {
	var p domain.CustomProfile
	err := r.db.QueryRow(ctx, SQLSelectCustomProfile, userID, domain.NormalizeID(characterID)).Scan(
		&p.UserID, &p.CharacterID, &p.Name, &p.Prompt, &p.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get custom profile: %w", err)
	}
	return &p, nil
}

// ListCustomProfiles returns the user's profiles, newest first.
func (r *OwnershipRepository) ListCustomProfiles(ctx context.Context, userID int64, limit int) ([]domain.CustomProfile, error) {
	if limit <= 0 || limit > maxProfileListLen {
		limit = maxProfileListLen
	}
	rows, err := r.db.Query(ctx, SQLSelectCustomProfiles, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom profiles: %w", err)
	}
	defer rows.Close()

	var out []domain.CustomProfile
	for rows.Next() {
		var p domain.CustomProfile
		if err := rows.Scan(&p.UserID, &p.CharacterID, &p.Name, &p.Prompt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan custom profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate custom profiles: %w", err)
	}
	return out, nil
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

const (
	maxProfileNameLen   = 50
	maxProfilePromptLen = 1500
	maxProfileListLen   = 50
)
