package streak

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantari-labs/CompanionBot_Go/internal/cache"
)

func newTestTracker(t *testing.T) (*Tracker, *cache.Memory, *clock) {
	t.Helper()
	mem := cache.NewMemory()
	clk := &clock{now: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
	mem.SetNowFunc(clk.Now)
	tr := NewTracker(mem, nil)
	tr.SetNowFunc(clk.Now)
	return tr, mem, clk
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestRecordClaim_FirstEventStartsAtOne(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	ctx := context.Background()

	res, err := tr.RecordClaim(ctx, 42, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Streak)
	assert.False(t, res.Continued)
	assert.Zero(t, res.Broken)
}

func TestRecordClaim_SameDayIsIdempotent(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	ctx := context.Background()

	_, err := tr.RecordClaim(ctx, 42, 0)
	require.NoError(t, err)

	res, err := tr.RecordClaim(ctx, 42, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Streak)
	assert.True(t, res.Continued)
}

func TestRecordClaim_NextDayIncrements(t *testing.T) {
	tr, _, clk := newTestTracker(t)
	ctx := context.Background()

	_, err := tr.RecordClaim(ctx, 42, 0)
	require.NoError(t, err)

	clk.Advance(24 * time.Hour)
	res, err := tr.RecordClaim(ctx, 42, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Streak)
	assert.True(t, res.Continued)
}

func TestRecordClaim_GapResetsAndReportsBroken(t *testing.T) {
	tr, _, clk := newTestTracker(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := tr.RecordClaim(ctx, 42, 0)
		require.NoError(t, err)
		clk.Advance(24 * time.Hour)
	}
	assert.Equal(t, 5, tr.GetClaim(ctx, 42))

	clk.Advance(48 * time.Hour)
	res, err := tr.RecordClaim(ctx, 42, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Streak)
	assert.False(t, res.Continued)
	assert.Equal(t, 5, res.Broken)
}

func TestRecordClaim_UTCMidnightBoundary(t *testing.T) {
	tr, _, clk := newTestTracker(t)
	ctx := context.Background()

	clk.now = time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC)
	_, err := tr.RecordClaim(ctx, 7, 0)
	require.NoError(t, err)

	// Two minutes later it is a new UTC day, so this continues the streak.
	clk.Advance(2 * time.Minute)
	res, err := tr.RecordClaim(ctx, 7, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Streak)
	assert.True(t, res.Continued)
}

func TestRecordTalk_RejectsEmptyCharacterID(t *testing.T) {
	tr, _, _ := newTestTracker(t)

	_, err := tr.RecordTalk(context.Background(), 42, "  ", 0)
	assert.Error(t, err)
}

func TestRecordTalk_IndependentPerCharacter(t *testing.T) {
	tr, _, clk := newTestTracker(t)
	ctx := context.Background()

	_, err := tr.RecordTalk(ctx, 42, "luna", 0)
	require.NoError(t, err)

	clk.Advance(24 * time.Hour)
	_, err = tr.RecordTalk(ctx, 42, "luna", 0)
	require.NoError(t, err)
	_, err = tr.RecordTalk(ctx, 42, "Nova", 0)
	require.NoError(t, err)

	assert.Equal(t, 2, tr.GetTalk(ctx, 42, "luna"))
	assert.Equal(t, 1, tr.GetTalk(ctx, 42, "nova"))
}

func TestIsClaimAlive(t *testing.T) {
	tr, _, clk := newTestTracker(t)
	ctx := context.Background()

	assert.False(t, tr.IsClaimAlive(ctx, 42))

	_, err := tr.RecordClaim(ctx, 42, 0)
	require.NoError(t, err)
	assert.True(t, tr.IsClaimAlive(ctx, 42))

	clk.Advance(24 * time.Hour)
	assert.True(t, tr.IsClaimAlive(ctx, 42), "yesterday still counts as alive")

	clk.Advance(24 * time.Hour)
	assert.False(t, tr.IsClaimAlive(ctx, 42))
}

func TestDeleteTalkStreak_ReturnsOldValue(t *testing.T) {
	tr, _, clk := newTestTracker(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := tr.RecordTalk(ctx, 42, "luna", 0)
		require.NoError(t, err)
		clk.Advance(24 * time.Hour)
	}

	assert.Equal(t, 3, tr.DeleteTalkStreak(ctx, 42, "luna"))
	assert.Equal(t, 0, tr.GetTalk(ctx, 42, "luna"))
	assert.Equal(t, 0, tr.DeleteTalkStreak(ctx, 42, "luna"))
}

func TestActiveTalkStreaksWithStatus(t *testing.T) {
	tr, _, clk := newTestTracker(t)
	ctx := context.Background()

	_, err := tr.RecordTalk(ctx, 42, "stale", 0)
	require.NoError(t, err)

	clk.Advance(3 * 24 * time.Hour)
	_, err = tr.RecordTalk(ctx, 42, "luna", 0)
	require.NoError(t, err)

	clk.Advance(24 * time.Hour)
	_, err = tr.RecordTalk(ctx, 42, "luna", 0)
	require.NoError(t, err)

	got := tr.ActiveTalkStreaksWithStatus(ctx, 42)
	require.Len(t, got, 2)

	assert.Equal(t, 2, got["luna"].Streak)
	assert.True(t, got["luna"].Alive)

	assert.Equal(t, 1, got["stale"].Streak)
	assert.False(t, got["stale"].Alive)
}

func TestMaxTalkStreak(t *testing.T) {
	tr, _, clk := newTestTracker(t)
	ctx := context.Background()

	assert.Equal(t, 0, tr.MaxTalkStreak(ctx, 42))

	for i := 0; i < 4; i++ {
		_, err := tr.RecordTalk(ctx, 42, "luna", 0)
		require.NoError(t, err)
		if i < 2 {
			_, err = tr.RecordTalk(ctx, 42, "nova", 0)
			require.NoError(t, err)
		}
		clk.Advance(24 * time.Hour)
	}

	assert.Equal(t, 4, tr.MaxTalkStreak(ctx, 42))
}

func TestRecordClaim_CacheDownDegradesToNoop(t *testing.T) {
	tr := NewTracker(failingKV{}, nil)

	res, err := tr.RecordClaim(context.Background(), 42, 0)
	require.NoError(t, err)
	assert.Zero(t, res.Streak)
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
