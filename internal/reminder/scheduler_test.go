package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantari-labs/CompanionBot_Go/internal/cache"
	"github.com/vantari-labs/CompanionBot_Go/internal/domain"
	"github.com/vantari-labs/CompanionBot_Go/internal/premium"
	"github.com/vantari-labs/CompanionBot_Go/internal/registry"
	"github.com/vantari-labs/CompanionBot_Go/internal/streak"
)

type fakeWalletSource struct {
	eligible []int64
	status   map[int64]domain.ClaimStatus
	alive    map[int64]bool
}

func (f *fakeWalletSource) EligibleReminderUserIDs(context.Context, int) ([]int64, error) {
	return f.eligible, nil
}

func (f *fakeWalletSource) GetClaimStatus(_ context.Context, userID int64) (domain.ClaimStatus, error) {
	return f.status[userID], nil
}

func (f *fakeWalletSource) IsStreakAlive(_ context.Context, userID int64) (bool, error) {
	return f.alive[userID], nil
}

type fakeTalkSource struct {
	streaks map[int64]map[string]streak.Status
}

func (f *fakeTalkSource) ActiveTalkStreaksWithStatus(_ context.Context, userID int64) map[string]streak.Status {
	return f.streaks[userID]
}

type capturingNotifier struct {
	sent []Notification
	fail map[int64]error
}

func (c *capturingNotifier) SendDirectNotification(_ context.Context, n Notification) error {
	if err := c.fail[n.UserID]; err != nil {
		return err
	}
	c.sent = append(c.sent, n)
	return nil
}

func (c *capturingNotifier) kinds() []domain.NotificationKind {
	out := make([]domain.NotificationKind, 0, len(c.sent))
	for _, n := range c.sent {
		out = append(out, n.Kind)
	}
	return out
}

type capturingVoice struct {
	calls []struct {
		UserID      int64
		CharacterID string
		Stage       domain.EnrichmentStage
	}
}

func (c *capturingVoice) SendCharacterMessage(_ context.Context, userID int64, characterID string, stage domain.EnrichmentStage, _ int) error {
	c.calls = append(c.calls, struct {
		UserID      int64
		CharacterID string
		Stage       domain.EnrichmentStage
	}{userID, characterID, stage})
	return nil
}

type fixture struct {
	sched   *Scheduler
	wallets *fakeWalletSource
	talks   *fakeTalkSource
	notify  *capturingNotifier
	voice   *capturingVoice
	flags   *Flags
	clock   *testClock
}

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newFixture(t *testing.T, proIDs ...int64) *fixture {
	t.Helper()
	clk := &testClock{now: time.Date(2024, 3, 10, 14, 5, 0, 0, time.UTC)}
	mem := cache.NewMemory()
	mem.SetNowFunc(clk.Now)
	wallets := &fakeWalletSource{
		status: make(map[int64]domain.ClaimStatus),
		alive:  make(map[int64]bool),
	}
	talks := &fakeTalkSource{streaks: make(map[int64]map[string]streak.Status)}
	notify := &capturingNotifier{fail: make(map[int64]error)}
	voice := &capturingVoice{}
	flags := NewFlags(mem)

	sched := NewScheduler(wallets, talks, flags, notify, voice, premium.NewStatic(proIDs...), nil, registry.NewInMemory())
	sched.SetNowFunc(clk.Now)
	sched.SetPacing(0, 0)
	return &fixture{sched: sched, wallets: wallets, talks: talks, notify: notify, voice: voice, flags: flags, clock: clk}
}

func TestInWindow(t *testing.T) {
	base := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		hour, minute int
		want         bool
	}{
		{14, 0, true},
		{14, 29, true},
		{14, 30, false},
		{13, 59, false},
		{15, 0, false},
	}
	for _, tt := range tests {
		now := base.Add(time.Duration(tt.hour)*time.Hour + time.Duration(tt.minute)*time.Minute)
		assert.Equal(t, tt.want, inWindow(now, 14), "%02d:%02d", tt.hour, tt.minute)
	}
}

func TestRunDailyReminders_SendsOncePerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.wallets.eligible = []int64{1}
	f.wallets.status[1] = domain.ClaimStatus{Streak: 4}
	f.wallets.alive[1] = true

	f.sched.RunDailyReminders(ctx)
	f.sched.RunDailyReminders(ctx)

	require.Len(t, f.notify.sent, 1)
	assert.Equal(t, domain.NotifyDailyReminder, f.notify.sent[0].Kind)
	assert.Equal(t, 4, f.notify.sent[0].Streak)
}

func TestRunDailyReminders_SkipsClaimedAndOptedOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.wallets.eligible = []int64{1, 2, 3}
	f.wallets.status[1] = domain.ClaimStatus{ClaimedToday: true, Streak: 4}
	f.wallets.status[2] = domain.ClaimStatus{Streak: 2}
	f.wallets.status[3] = domain.ClaimStatus{Streak: 7}
	f.wallets.alive[2] = true
	f.wallets.alive[3] = true
	require.NoError(t, f.flags.SetEnabled(ctx, 2, false))

	f.sched.RunDailyReminders(ctx)

	require.Len(t, f.notify.sent, 1)
	assert.Equal(t, int64(3), f.notify.sent[0].UserID)
}

func TestRunDailyReminders_EndedNoticeForBrokenStreak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.wallets.eligible = []int64{1}
	f.wallets.status[1] = domain.ClaimStatus{Streak: 6}
	f.wallets.alive[1] = false

	f.sched.RunDailyReminders(ctx)
	f.sched.RunDailyReminders(ctx)

	require.Len(t, f.notify.sent, 1)
	assert.Equal(t, domain.NotifyDailyEnded, f.notify.sent[0].Kind)
	assert.Equal(t, 6, f.notify.sent[0].Streak)
}

func TestRunDailyReminders_FailedSendRetriesNextTick(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.wallets.eligible = []int64{1}
	f.wallets.status[1] = domain.ClaimStatus{Streak: 1}
	f.wallets.alive[1] = true
	f.notify.fail[1] = context.DeadlineExceeded

	f.sched.RunDailyReminders(ctx)
	assert.Empty(t, f.notify.sent)

	// Transport recovers; flag was never set, so the next tick sends.
	delete(f.notify.fail, 1)
	f.sched.RunDailyReminders(ctx)
	assert.Len(t, f.notify.sent, 1)
}

func TestRunDailyReminders_ForbiddenCountsAsSent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.wallets.eligible = []int64{1}
	f.wallets.status[1] = domain.ClaimStatus{Streak: 1}
	f.wallets.alive[1] = true
	f.notify.fail[1] = domain.ErrNotificationForbidden

	f.sched.RunDailyReminders(ctx)
	delete(f.notify.fail, 1)
	f.sched.RunDailyReminders(ctx)

	assert.Empty(t, f.notify.sent, "unreachable recipient is marked, not retried")
}

func TestRunDailyWarnings_SeparateFlagsPerStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.wallets.eligible = []int64{1}
	f.wallets.status[1] = domain.ClaimStatus{Streak: 3}
	f.wallets.alive[1] = true

	f.sched.RunDailyWarnings(ctx, 8)
	f.sched.RunDailyWarnings(ctx, 8)
	f.sched.RunDailyWarnings(ctx, 1)

	require.Len(t, f.notify.sent, 2)
	assert.Equal(t, 8, f.notify.sent[0].HoursLeft)
	assert.Equal(t, 1, f.notify.sent[1].HoursLeft)
}

func TestRunCharacterReminders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	today := domain.UTCDay(f.clock.Now())
	yesterday := domain.Yesterday(f.clock.Now())

	f.wallets.eligible = []int64{1}
	f.talks.streaks[1] = map[string]streak.Status{
		"luna": {Streak: 5, LastDay: yesterday, Alive: true},
		"nova": {Streak: 2, LastDay: today, Alive: true}, // already fed today
	}

	f.sched.RunCharacterReminders(ctx)
	f.sched.RunCharacterReminders(ctx)

	require.Len(t, f.notify.sent, 1)
	n := f.notify.sent[0]
	assert.Equal(t, domain.NotifyTalkReminder, n.Kind)
	require.Len(t, n.Characters, 1)
	assert.Equal(t, "luna", n.Characters[0].CharacterID)
	assert.Equal(t, 5, n.Characters[0].Streak)
}

func TestRunCharacterReminders_ProEnrichmentPicksLongestStreak(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	yesterday := domain.Yesterday(f.clock.Now())

	f.wallets.eligible = []int64{1}
	f.talks.streaks[1] = map[string]streak.Status{
		"luna": {Streak: 5, LastDay: yesterday, Alive: true},
		"nova": {Streak: 9, LastDay: yesterday, Alive: true},
	}

	f.sched.RunCharacterReminders(ctx)

	require.Len(t, f.voice.calls, 1)
	assert.Equal(t, "nova", f.voice.calls[0].CharacterID)
	assert.Equal(t, domain.StageReminder, f.voice.calls[0].Stage)
}

func TestRunCharacterReminders_FreeUserGetsNoEnrichment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	yesterday := domain.Yesterday(f.clock.Now())

	f.wallets.eligible = []int64{1}
	f.talks.streaks[1] = map[string]streak.Status{
		"luna": {Streak: 5, LastDay: yesterday, Alive: true},
	}

	f.sched.RunCharacterReminders(ctx)

	assert.Len(t, f.notify.sent, 1)
	assert.Empty(t, f.voice.calls)
}

func TestRunCharacterEnded_OncePerBreakAcrossDays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.wallets.eligible = []int64{1}
	f.talks.streaks[1] = map[string]streak.Status{
		"luna": {Streak: 7, LastDay: "20240307", Alive: false},
	}

	f.sched.RunCharacterEnded(ctx)
	f.sched.RunCharacterEnded(ctx)

	// The flag is keyed by the break day, so a new calendar day does not
	// re-fire for the same break.
	f.clock.now = f.clock.now.Add(24 * time.Hour)
	f.sched.RunCharacterEnded(ctx)

	require.Len(t, f.notify.sent, 1)
	assert.Equal(t, domain.NotifyTalkEnded, f.notify.sent[0].Kind)
	assert.Equal(t, 7, f.notify.sent[0].Streak)
}

func TestTick_WindowGating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.wallets.eligible = []int64{1}
	f.wallets.status[1] = domain.ClaimStatus{Streak: 2}
	f.wallets.alive[1] = true

	// Outside every window: only the ended pass runs, which has nothing to do.
	f.clock.now = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	f.sched.Tick(ctx)
	assert.Empty(t, f.notify.sent)

	f.clock.now = time.Date(2024, 3, 10, 14, 10, 0, 0, time.UTC)
	f.sched.Tick(ctx)
	assert.Equal(t, []domain.NotificationKind{domain.NotifyDailyReminder}, f.notify.kinds())

	f.clock.now = time.Date(2024, 3, 10, 16, 10, 0, 0, time.UTC)
	f.sched.Tick(ctx)
	f.clock.now = time.Date(2024, 3, 10, 23, 10, 0, 0, time.UTC)
	f.sched.Tick(ctx)

	assert.Equal(t, []domain.NotificationKind{
		domain.NotifyDailyReminder,
		domain.NotifyDailyWarning,
		domain.NotifyDailyWarning,
	}, f.notify.kinds())
}

func TestFlags_OptOutRoundTrip(t *testing.T) {
	mem := cache.NewMemory()
	flags := NewFlags(mem)
	ctx := context.Background()

	assert.True(t, flags.Enabled(ctx, 1), "default is enabled")

	require.NoError(t, flags.SetEnabled(ctx, 1, false))
	assert.False(t, flags.Enabled(ctx, 1))

	require.NoError(t, flags.SetEnabled(ctx, 1, true))
	assert.True(t, flags.Enabled(ctx, 1))
}
