package roll

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vantari-labs/CompanionBot_Go/internal/domain"
	"github.com/vantari-labs/CompanionBot_Go/internal/logger"
)

// GetPity returns the durable (mythic, legendary) pity counters.
func (s *Service) GetPity(ctx context.Context, userID int64) (int, int, error) {
	st, err := s.states.GetState(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	return st.PityMythic, st.PityLegendary, nil
}

// SetPity stores the pity counters, clamping negatives to zero.
func (s *Service) SetPity(ctx context.Context, userID int64, mythic, legendary int) error {
	st, err := s.states.GetState(ctx, userID)
	if err != nil {
		return err
	}
	if mythic < 0 {
		mythic = 0
	}
	if legendary < 0 {
		legendary = 0
	}
	st.PityMythic = mythic
	st.PityLegendary = legendary
	return s.states.SaveState(ctx, st)
}

// AdvancePity applies one roll outcome to in-memory pity counters. A mythic
// resets both; a legendary resets its own counter but still advances mythic.
// Pure so multi-roll batches can thread it through without a store hit per
// roll.
func AdvancePity(mythic, legendary int, rarity string) (int, int) {
	switch domain.NormalizeID(rarity) {
	case string(domain.RarityMythic):
		return 0, 0
	case string(domain.RarityLegendary):
		mythic++
		if mythic > domain.PityMythicCap {
			mythic = domain.PityMythicCap
		}
		return mythic, 0
	default:
		mythic++
		if mythic > domain.PityMythicCap {
			mythic = domain.PityMythicCap
		}
		legendary++
		if legendary > domain.PityLegendaryCap {
			legendary = domain.PityLegendaryCap
		}
		return mythic, legendary
	}
}

// PityShadow is the legacy per-community pity blob kept for the older
// surface. Ephemeral and safe to lose.
type PityShadow struct {
	Pity           int   `json:"pity"`
	GuaranteedNext bool  `json:"guaranteed_next"`
	LastRollTS     int64 `json:"last_roll_ts"`
}

func pityShadowKey(scope, userID int64) string {
	return fmt.Sprintf("%s%d:%d", pityShadowPrefix, scope, userID)
}

// ApplyPityAfterRoll updates the shadow blob after one roll. A high-rarity
// result resets the count and clears the guarantee unless the featured
// character was missed (wonFeatured explicitly false), which arms it for the
// next roll. Otherwise the count advances and the guarantee arms at the
// threshold. Best effort throughout.
func (s *Service) ApplyPityAfterRoll(ctx context.Context, scope, userID int64, rolledRarity string, wonFeatured *bool) PityShadow {
	log := logger.FromContext(ctx)
	key := pityShadowKey(scope, userID)

	var state PityShadow
	if raw, err := s.kv.Get(ctx, key); err == nil {
		_ = json.Unmarshal([]byte(raw), &state)
	}

	state.LastRollTS = s.nowFunc().Unix()

	if domain.IsHighRarity(rolledRarity) {
		state.Pity = 0
		state.GuaranteedNext = wonFeatured != nil && !*wonFeatured
	} else {
		state.Pity++
		if state.Pity >= domain.PityGuaranteeThreshold {
			state.GuaranteedNext = true
		}
	}

	data, _ := json.Marshal(state)
	if err := s.kv.Set(ctx, key, string(data), pityShadowTTL); err != nil {
		log.Debug("Pity shadow write failed", "user_id", userID, "scope", scope, "error", err)
	}
	return state
}
