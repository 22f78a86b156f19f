package roll

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantari-labs/CompanionBot_Go/internal/domain"
)

func TestAdvancePity(t *testing.T) {
	tests := []struct {
		name          string
		mythic        int
		legendary     int
		rarity        string
		wantMythic    int
		wantLegendary int
	}{
		{"common advances both", 5, 3, "common", 6, 4},
		{"legendary resets own, advances mythic", 5, 3, "legendary", 6, 0},
		{"mythic resets both", 5, 3, "mythic", 0, 0},
		{"legendary cap holds", 10, 99, "rare", 11, 99},
		{"mythic cap holds", 999, 10, "rare", 999, 11},
		{"rarity is case-insensitive", 1, 1, "  Mythic ", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, l := AdvancePity(tt.mythic, tt.legendary, tt.rarity)
			assert.Equal(t, tt.wantMythic, m)
			assert.Equal(t, tt.wantLegendary, l)
		})
	}
}

func TestSetPity_ClampsNegatives(t *testing.T) {
	svc, _, _, _ := newTestService(t, testWindow)
	ctx := context.Background()

	require.NoError(t, svc.SetPity(ctx, 1, -5, 7))
	m, l, err := svc.GetPity(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, m)
	assert.Equal(t, 7, l)
}

func TestApplyPityAfterRoll_ArmsGuaranteeAtThreshold(t *testing.T) {
	svc, _, _, _ := newTestService(t, testWindow)
	ctx := context.Background()

	var state PityShadow
	for i := 0; i < domain.PityGuaranteeThreshold; i++ {
		state = svc.ApplyPityAfterRoll(ctx, 100, 1, "common", nil)
	}
	assert.Equal(t, domain.PityGuaranteeThreshold, state.Pity)
	assert.True(t, state.GuaranteedNext)
}

func TestApplyPityAfterRoll_HighRarityResets(t *testing.T) {
	svc, _, _, _ := newTestService(t, testWindow)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		svc.ApplyPityAfterRoll(ctx, 100, 1, "common", nil)
	}

	won := true
	state := svc.ApplyPityAfterRoll(ctx, 100, 1, "legendary", &won)
	assert.Zero(t, state.Pity)
	assert.False(t, state.GuaranteedNext)
}

func TestApplyPityAfterRoll_MissedFeaturedArmsGuarantee(t *testing.T) {
	svc, _, _, _ := newTestService(t, testWindow)
	ctx := context.Background()

	lost := false
	state := svc.ApplyPityAfterRoll(ctx, 100, 1, "mythic", &lost)
	assert.Zero(t, state.Pity)
	assert.True(t, state.GuaranteedNext)
}

func TestApplyPityAfterRoll_ScopesAreIndependent(t *testing.T) {
	svc, _, _, _ := newTestService(t, testWindow)
	ctx := context.Background()

	svc.ApplyPityAfterRoll(ctx, 100, 1, "common", nil)
	svc.ApplyPityAfterRoll(ctx, 100, 1, "common", nil)
	state := svc.ApplyPityAfterRoll(ctx, 200, 1, "common", nil)

	assert.Equal(t, 1, state.Pity)
}
