package roll

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantari-labs/CompanionBot_Go/internal/cache"
	"github.com/vantari-labs/CompanionBot_Go/internal/domain"
)

type fakeStateRepo struct {
	states map[int64]*domain.UserState
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{states: make(map[int64]*domain.UserState)}
}

func (f *fakeStateRepo) GetState(_ context.Context, userID int64) (*domain.UserState, error) {
	if st, ok := f.states[userID]; ok {
		cp := *st
		return &cp, nil
	}
	return &domain.UserState{UserID: userID}, nil
}

func (f *fakeStateRepo) SaveState(_ context.Context, st *domain.UserState) error {
	cp := *st
	f.states[st.UserID] = &cp
	return nil
}

func (f *fakeStateRepo) IncrementInventoryUpgrades(_ context.Context, userID int64, delta int) (int, error) {
	st, ok := f.states[userID]
	if !ok {
		st = &domain.UserState{UserID: userID}
		f.states[userID] = st
	}
	st.InventoryUpgrades += delta
	if st.InventoryUpgrades < 0 {
		st.InventoryUpgrades = 0
	}
	return st.InventoryUpgrades, nil
}

const testWindow = 18000 // 5 hours

func newTestService(t *testing.T, windowSeconds int) (*Service, *cache.Memory, *fakeStateRepo, *testClock) {
	t.Helper()
	mem := cache.NewMemory()
	clk := &testClock{now: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
	mem.SetNowFunc(clk.Now)
	repo := newFakeStateRepo()
	svc := NewService(mem, repo, windowSeconds)
	svc.SetNowFunc(clk.Now)
	return svc, mem, repo, clk
}

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestCanRoll_FreshWindowByTier(t *testing.T) {
	svc, _, _, _ := newTestService(t, testWindow)
	ctx := context.Background()

	free, err := svc.CanRoll(ctx, 1, domain.TierFree)
	require.NoError(t, err)
	assert.True(t, free.Allowed)
	assert.Equal(t, 1, free.Remaining)
	assert.Equal(t, 1, free.PerDay)

	pro, err := svc.CanRoll(ctx, 2, domain.TierPro)
	require.NoError(t, err)
	assert.True(t, pro.Allowed)
	assert.Equal(t, 3, pro.Remaining)
	assert.Equal(t, 3, pro.PerDay)
}

func TestConsumeRoll_ExhaustsWindowThenResets(t *testing.T) {
	svc, _, _, clk := newTestService(t, testWindow)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.ConsumeRoll(ctx, 1))
	}
	res, err := svc.CanRoll(ctx, 1, domain.TierPro)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Zero(t, res.Remaining)

	clk.Advance(time.Duration(testWindow)*time.Second + time.Second)
	res, err = svc.CanRoll(ctx, 1, domain.TierPro)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 3, res.Remaining)
}

func TestConsumeRoll_PrefersBonus(t *testing.T) {
	svc, _, _, _ := newTestService(t, testWindow)
	ctx := context.Background()

	_, err := svc.GrantBonusRolls(ctx, 1, 2, 0)
	require.NoError(t, err)

	res, err := svc.CanRoll(ctx, 1, domain.TierFree)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Remaining, "window remaining plus bonus")

	// Two consumes eat the bonus balance, leaving the window untouched.
	require.NoError(t, svc.ConsumeRoll(ctx, 1))
	require.NoError(t, svc.ConsumeRoll(ctx, 1))
	assert.Zero(t, svc.GetBonusRolls(ctx, 1))

	res, err = svc.CanRoll(ctx, 1, domain.TierFree)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Remaining)
}

func TestCanRoll_CalendarDayMode(t *testing.T) {
	svc, _, repo, clk := newTestService(t, 0)
	ctx := context.Background()

	require.NoError(t, svc.ConsumeRoll(ctx, 1))
	res, err := svc.CanRoll(ctx, 1, domain.TierFree)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	// New UTC day resets the counter lazily.
	clk.Advance(24 * time.Hour)
	res, err = svc.CanRoll(ctx, 1, domain.TierFree)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)

	st := repo.states[1]
	require.NotNil(t, st)
	assert.Equal(t, domain.UTCDay(clk.Now()), st.RollDay)
	assert.Zero(t, st.RollUsed)
}

func TestCanRoll_CacheDownDegradesToBonusOnly(t *testing.T) {
	repo := newFakeStateRepo()
	svc := NewService(failingKV{}, repo, testWindow)

	res, err := svc.CanRoll(context.Background(), 1, domain.TierPro)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Zero(t, res.Remaining)
	assert.Equal(t, 3, res.PerDay)
}

func TestRetryAfter(t *testing.T) {
	svc, _, _, clk := newTestService(t, testWindow)
	ctx := context.Background()

	assert.Zero(t, svc.RetryAfter(ctx, 1, domain.TierFree), "no window record yet")

	require.NoError(t, svc.ConsumeRoll(ctx, 1))
	clk.Advance(time.Hour)

	got := svc.RetryAfter(ctx, 1, domain.TierFree)
	assert.Equal(t, time.Duration(testWindow)*time.Second-time.Hour, got)

	assert.Zero(t, svc.RetryAfter(ctx, 1, domain.TierPro), "pro still has rolls left")
}

func TestRetryAfter_CalendarMode(t *testing.T) {
	svc, _, _, _ := newTestService(t, 0)
	ctx := context.Background()

	assert.Zero(t, svc.RetryAfter(ctx, 1, domain.TierFree), "nothing consumed yet")

	require.NoError(t, svc.ConsumeRoll(ctx, 1))

	// Clock fixed at 12:00 UTC; the free allowance is spent until midnight.
	assert.Equal(t, 12*time.Hour, svc.RetryAfter(ctx, 1, domain.TierFree))
	assert.Zero(t, svc.RetryAfter(ctx, 1, domain.TierPro), "pro cap not reached")
}

func TestClearRollWindow(t *testing.T) {
	svc, _, _, _ := newTestService(t, testWindow)
	ctx := context.Background()

	require.NoError(t, svc.ConsumeRoll(ctx, 1))
	svc.ClearRollWindow(ctx, 1)

	res, err := svc.CanRoll(ctx, 1, domain.TierFree)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Remaining)
}

func TestGrantBonusRolls_Validation(t *testing.T) {
	svc, _, _, _ := newTestService(t, testWindow)

	_, err := svc.GrantBonusRolls(context.Background(), 1, 0, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGrantOnboardingBonus_OnlyOnce(t *testing.T) {
	svc, _, _, _ := newTestService(t, testWindow)
	ctx := context.Background()

	granted, err := svc.GrantOnboardingBonus(ctx, 1)
	require.NoError(t, err)
	assert.True(t, granted)
	assert.Equal(t, 1, svc.GetBonusRolls(ctx, 1))

	granted, err = svc.GrantOnboardingBonus(ctx, 1)
	require.NoError(t, err)
	assert.False(t, granted)
	assert.Equal(t, 1, svc.GetBonusRolls(ctx, 1))
}

type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, error) {
	return "", context.DeadlineExceeded
}
func (failingKV) Set(context.Context, string, string, time.Duration) error {
	return context.DeadlineExceeded
}
func (failingKV) SetNX(context.Context, string, string, time.Duration) (bool, error) {
	return false, context.DeadlineExceeded
}
func (failingKV) IncrBy(context.Context, string, int64) (int64, error) {
	return 0, context.DeadlineExceeded
}
func (failingKV) DecrIfPositive(context.Context, string) (bool, error) {
	return false, context.DeadlineExceeded
}
func (failingKV) Expire(context.Context, string, time.Duration) error {
	return context.DeadlineExceeded
}
func (failingKV) Exists(context.Context, string) (bool, error) {
	return false, context.DeadlineExceeded
}
func (failingKV) Delete(context.Context, ...string) error { return context.DeadlineExceeded }
func (failingKV) ScanPrefix(context.Context, string, int) ([]string, error) {
	return nil, context.DeadlineExceeded
}
