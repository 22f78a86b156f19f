// Package inventory manages the capacity-bounded character collection:
// adding, removing, replacing and purchasing characters, the active
// selection, and paid capacity upgrades. Base characters are always owned,
// never counted and never removable.
package inventory

import (
	"context"
	"fmt"

	"github.com/vantari-labs/CompanionBot_Go/internal/domain"
	"github.com/vantari-labs/CompanionBot_Go/internal/leaderboard"
	"github.com/vantari-labs/CompanionBot_Go/internal/logger"
	"github.com/vantari-labs/CompanionBot_Go/internal/metrics"
	"github.com/vantari-labs/CompanionBot_Go/internal/registry"
	"github.com/vantari-labs/CompanionBot_Go/internal/repository"
)

// packListLimit bounds the lazy pack sweep when a granted id is missing from
// the runtime catalog.
const packListLimit = 600

// TalkStreakDeleter removes a character's talk streak so the reminder loop
// stops reporting on characters the user no longer owns.
type TalkStreakDeleter interface {
	DeleteTalkStreak(ctx context.Context, userID int64, characterID string) int
}

// Service implements the collection operations.
type Service struct {
	states  repository.UserState
	owned   repository.Ownership
	catalog registry.Registry
	packs   registry.PackSource
	streaks TalkStreakDeleter
	boards  leaderboard.Service
}

// NewService creates an inventory Service. packs, streaks and boards are
// optional collaborators; nil disables the lazy merge, streak cleanup and
// ranking propagation respectively.
func NewService(
	states repository.UserState,
	owned repository.Ownership,
	catalog registry.Registry,
	packs registry.PackSource,
	streaks TalkStreakDeleter,
	boards leaderboard.Service,
) *Service {
	return &Service{
		states:  states,
		owned:   owned,
		catalog: catalog,
		packs:   packs,
		streaks: streaks,
		boards:  boards,
	}
}

// ComputeCapacity returns the slot capacity for a tier with the given number
// of purchased upgrades.
func ComputeCapacity(tier string, upgrades int) int {
	base := domain.BaseSlotsFree
	if domain.NormalizeID(tier) == domain.TierPro {
		base = domain.BaseSlotsPro
	}
	if upgrades < 0 {
		upgrades = 0
	}
	return base + upgrades*domain.SlotsPerUpgrade
}

// countNonBase counts distinct owned ids excluding base characters. Ids in
// the set are already normalized by the repository.
func (s *Service) countNonBase(ownedIDs map[string]bool) int {
	n := 0
	for id := range ownedIDs {
		if id != "" && !s.catalog.IsBaseID(id) {
			n++
		}
	}
	return n
}

// Usage returns (used, capacity) for the user at the given tier.
func (s *Service) Usage(ctx context.Context, userID int64, tier string) (int, int, error) {
	ownedIDs, err := s.owned.ListOwnedIDs(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	st, err := s.states.GetState(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	return s.countNonBase(ownedIDs), ComputeCapacity(tier, st.InventoryUpgrades), nil
}

// resolveCharacter looks the id up in the catalog, lazily merging custom
// packs when it is absent. Shop singles live in internal packs that may not
// be merged at startup. The sweep is best effort.
func (s *Service) resolveCharacter(ctx context.Context, id string) (*domain.Character, bool) {
	if c, ok := s.catalog.GetCharacter(id); ok {
		return c, true
	}
	if s.packs == nil {
		return nil, false
	}

	packs, err := s.packs.ListCustomPacks(ctx, packListLimit, true, true)
	if err != nil {
		logger.FromContext(ctx).Debug("Custom pack sweep failed", "character_id", id, "error", err)
		return nil, false
	}
	for _, p := range packs {
		for _, c := range p.Characters {
			if domain.NormalizeID(c.ID) == id {
				s.catalog.MergePack(p)
				return s.catalog.GetCharacter(id)
			}
		}
	}
	return nil, false
}

// AddCharacter grants a character to the user, enforcing the capacity bound.
// scope widens leaderboard propagation beyond the global board when non-zero.
func (s *Service) AddCharacter(ctx context.Context, userID int64, characterID, tier string, scope int64) error {
	log := logger.FromContext(ctx)
	id := domain.NormalizeID(characterID)
	if id == "" || id == registry.PrimaryBaseID {
		return domain.ErrInvalidInput
	}

	if _, ok := s.resolveCharacter(ctx, id); !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownCharacter, id)
	}

	owns, err := s.owned.Owns(ctx, userID, id)
	if err != nil {
		return err
	}
	if owns {
		return domain.ErrAlreadyOwned
	}

	ownedIDs, err := s.owned.ListOwnedIDs(ctx, userID)
	if err != nil {
		return err
	}
	st, err := s.states.GetState(ctx, userID)
	if err != nil {
		return err
	}
	capacity := ComputeCapacity(tier, st.InventoryUpgrades)
	if s.countNonBase(ownedIDs) >= capacity {
		return domain.ErrCollectionFull
	}

	if err := s.owned.AppendOwned(ctx, userID, id); err != nil {
		return err
	}
	metrics.CharactersAdded.Inc()
	log.Info("Added character to collection", "user_id", userID, "character_id", id)
	s.propagateCount(ctx, userID, scope, s.countNonBase(ownedIDs)+1)
	return nil
}

// SaveCustomProfile creates or edits a user-authored character. A brand-new
// id counts against capacity like any non-base character; editing an
// already-owned id bypasses the check.
func (s *Service) SaveCustomProfile(ctx context.Context, userID int64, tier string, profile domain.CustomProfile, scope int64) error {
	log := logger.FromContext(ctx)
	id := domain.NormalizeID(profile.CharacterID)
	if id == "" || s.catalog.IsBaseID(id) {
		return domain.ErrInvalidInput
	}
	profile.UserID = userID
	profile.CharacterID = id

	ownedIDs, err := s.owned.ListOwnedIDs(ctx, userID)
	if err != nil {
		return err
	}
	if !ownedIDs[id] {
		st, err := s.states.GetState(ctx, userID)
		if err != nil {
			return err
		}
		capacity := ComputeCapacity(tier, st.InventoryUpgrades)
		if s.countNonBase(ownedIDs) >= capacity {
			return domain.ErrCollectionFull
		}
	}

	if err := s.owned.UpsertCustomProfile(ctx, &profile); err != nil {
		return err
	}
	if !ownedIDs[id] {
		metrics.CharactersAdded.Inc()
		s.propagateCount(ctx, userID, scope, s.countNonBase(ownedIDs)+1)
	}
	log.Info("Saved custom profile", "user_id", userID, "character_id", id)
	return nil
}

// ListCustomProfiles returns the user's authored characters, newest first.
func (s *Service) ListCustomProfiles(ctx context.Context, userID int64, limit int) ([]domain.CustomProfile, error) {
	return s.owned.ListCustomProfiles(ctx, userID, limit)
}

// RemoveCharacter drops a character from the collection. It clears the
// active selection if it pointed at the character and deletes the talk
// streak, returning the streak length that was deleted (0 if none).
func (s *Service) RemoveCharacter(ctx context.Context, userID int64, characterID string) (int, error) {
	log := logger.FromContext(ctx)
	id := domain.NormalizeID(characterID)
	if id == "" {
		return 0, domain.ErrInvalidInput
	}
	if s.catalog.IsBaseID(id) {
		return 0, domain.ErrBaseCharacter
	}

	owns, err := s.owned.Owns(ctx, userID, id)
	if err != nil {
		return 0, err
	}
	if !owns {
		return 0, domain.ErrNotOwned
	}

	removed, err := s.owned.RemoveOwned(ctx, userID, id)
	if err != nil {
		return 0, err
	}

	if err := s.clearActiveIfSelected(ctx, userID, id); err != nil {
		return 0, err
	}

	if !removed {
		return 0, domain.ErrNotOwned
	}

	oldStreak := 0
	if s.streaks != nil {
		oldStreak = s.streaks.DeleteTalkStreak(ctx, userID, id)
	}
	metrics.CharactersRemoved.Inc()
	log.Info("Removed character from collection",
		"user_id", userID, "character_id", id, "old_streak", oldStreak)
	return oldStreak, nil
}

// ReplaceCharacter swaps one owned character for a registry character in a
// single operation. The target must be in the catalog; custom profiles
// cannot be created through a swap.
func (s *Service) ReplaceCharacter(ctx context.Context, userID int64, oldID, newID string) error {
	log := logger.FromContext(ctx)
	from := domain.NormalizeID(oldID)
	to := domain.NormalizeID(newID)
	if from == "" || to == "" {
		return domain.ErrInvalidInput
	}

	owns, err := s.owned.Owns(ctx, userID, from)
	if err != nil {
		return err
	}
	if !owns {
		return domain.ErrNotOwned
	}
	if _, ok := s.catalog.GetCharacter(to); !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownCharacter, to)
	}

	if _, err := s.owned.RemoveOwned(ctx, userID, from); err != nil {
		return err
	}
	if err := s.owned.AppendOwned(ctx, userID, to); err != nil {
		return err
	}
	if err := s.clearActiveIfSelected(ctx, userID, from); err != nil {
		return err
	}
	if s.streaks != nil {
		s.streaks.DeleteTalkStreak(ctx, userID, from)
	}
	log.Info("Replaced character", "user_id", userID, "old_id", from, "new_id", to)
	return nil
}

// PurchaseCharacter buys a catalog character with durable points and grants
// it. scope widens leaderboard propagation.
func (s *Service) PurchaseCharacter(ctx context.Context, userID int64, characterID, tier string, scope int64) error {
	log := logger.FromContext(ctx)
	id := domain.NormalizeID(characterID)
	if id == "" {
		return domain.ErrInvalidInput
	}
	if s.catalog.IsBaseID(id) {
		return domain.ErrAlreadyOwned
	}

	c, ok := s.catalog.GetCharacter(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownCharacter, id)
	}

	owns, err := s.owned.Owns(ctx, userID, id)
	if err != nil {
		return err
	}
	if owns {
		return domain.ErrAlreadyOwned
	}

	st, err := s.states.GetState(ctx, userID)
	if err != nil {
		return err
	}
	if st.Points < c.CostPoints {
		return fmt.Errorf("%w: need %d", domain.ErrInsufficientPoints, c.CostPoints)
	}

	ownedIDs, err := s.owned.ListOwnedIDs(ctx, userID)
	if err != nil {
		return err
	}
	if s.countNonBase(ownedIDs) >= ComputeCapacity(tier, st.InventoryUpgrades) {
		return domain.ErrCollectionFull
	}

	st.Points -= c.CostPoints
	if err := s.states.SaveState(ctx, st); err != nil {
		return err
	}
	if err := s.owned.AppendOwned(ctx, userID, id); err != nil {
		return err
	}
	metrics.CharactersAdded.Inc()
	metrics.PointsSpent.Add(float64(c.CostPoints))
	log.Info("Purchased character",
		"user_id", userID, "character_id", id, "cost", c.CostPoints, "points_left", st.Points)
	s.propagateCount(ctx, userID, scope, s.countNonBase(ownedIDs)+1)
	return nil
}

// SetActive selects an owned character. An empty id clears the selection.
func (s *Service) SetActive(ctx context.Context, userID int64, characterID string) error {
	id := domain.NormalizeID(characterID)
	if id == "" {
		return s.ClearActive(ctx, userID)
	}

	owns, err := s.owned.Owns(ctx, userID, id)
	if err != nil {
		return err
	}
	if !owns {
		return domain.ErrNotOwned
	}

	st, err := s.states.GetState(ctx, userID)
	if err != nil {
		return err
	}
	st.ActiveCharacterID = id
	return s.states.SaveState(ctx, st)
}

// ClearActive drops the active selection.
func (s *Service) ClearActive(ctx context.Context, userID int64) error {
	st, err := s.states.GetState(ctx, userID)
	if err != nil {
		return err
	}
	st.ActiveCharacterID = ""
	return s.states.SaveState(ctx, st)
}

func (s *Service) clearActiveIfSelected(ctx context.Context, userID int64, id string) error {
	st, err := s.states.GetState(ctx, userID)
	if err != nil {
		return err
	}
	if domain.NormalizeID(st.ActiveCharacterID) != id {
		return nil
	}
	st.ActiveCharacterID = ""
	return s.states.SaveState(ctx, st)
}

// PurchaseUpgrade adds one paid capacity upgrade and returns the new upgrade
// count. Point spend is handled by the caller's wallet flow.
func (s *Service) PurchaseUpgrade(ctx context.Context, userID int64) (int, error) {
	total, err := s.states.IncrementInventoryUpgrades(ctx, userID, 1)
	if err != nil {
		return 0, err
	}
	logger.FromContext(ctx).Info("Purchased inventory upgrade", "user_id", userID, "upgrades", total)
	return total, nil
}

func (s *Service) propagateCount(ctx context.Context, userID, scope int64, count int) {
	if s.boards == nil {
		return
	}
	s.boards.UpdateAllPeriods(ctx, leaderboard.CategoryCharacters, domain.GlobalScopeID, userID, float64(count))
	if scope != domain.GlobalScopeID {
		s.boards.UpdateAllPeriods(ctx, leaderboard.CategoryCharacters, scope, userID, float64(count))
	}
}
