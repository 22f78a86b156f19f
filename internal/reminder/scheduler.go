// Package reminder runs the streak reminder scheduler: a 15-minute tick
// that sends daily-claim and talk-streak notifications inside fixed UTC
// windows, with idempotency flags so a restart or overlapping tick never
// duplicates a send inside one day.
package reminder

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vantari-labs/CompanionBot_Go/internal/domain"
	"github.com/vantari-labs/CompanionBot_Go/internal/logger"
	"github.com/vantari-labs/CompanionBot_Go/internal/metrics"
	"github.com/vantari-labs/CompanionBot_Go/internal/premium"
	"github.com/vantari-labs/CompanionBot_Go/internal/registry"
	"github.com/vantari-labs/CompanionBot_Go/internal/repository"
	"github.com/vantari-labs/CompanionBot_Go/internal/streak"
)

// Send windows (UTC). A pass fires in the first windowMinutes after its
// target time, so the 15-minute tick hits each window exactly once per day
// modulo the sent flags.
const (
	reminderHour  = 14
	warning8hHour = 16
	warning1hHour = 23
	targetMinute  = 0
	windowMinutes = 30

	// CronSpec is the tick schedule.
	CronSpec = "*/15 * * * *"

	// eligibleLimit caps one pass's user sweep.
	eligibleLimit = 50000

	// Per-user pacing keeps the dispatcher under the transport's rate limit.
	userPacing      = 500 * time.Millisecond
	endedUserPacing = 300 * time.Millisecond
)

// WalletSource is the slice of the points service the scheduler reads.
type WalletSource interface {
	EligibleReminderUserIDs(ctx context.Context, limit int) ([]int64, error)
	GetClaimStatus(ctx context.Context, userID int64) (domain.ClaimStatus, error)
	IsStreakAlive(ctx context.Context, userID int64) (bool, error)
}

// TalkSource is the slice of the streak tracker the scheduler reads.
type TalkSource interface {
	ActiveTalkStreaksWithStatus(ctx context.Context, userID int64) map[string]streak.Status
}

// Scheduler drives the reminder passes.
type Scheduler struct {
	wallets WalletSource
	talks   TalkSource
	flags   *Flags
	notify  Notifier
	voice   CharacterVoice
	tiers   premium.TierProvider
	states  repository.UserState
	catalog registry.Registry

	cron        *cron.Cron
	nowFunc     func() time.Time
	pacing      time.Duration
	endedPacing time.Duration
}

// NewScheduler creates a Scheduler. voice, tiers and states are optional and
// only drive the Pro in-character follow-up.
func NewScheduler(
	wallets WalletSource,
	talks TalkSource,
	flags *Flags,
	notify Notifier,
	voice CharacterVoice,
	tiers premium.TierProvider,
	states repository.UserState,
	catalog registry.Registry,
) *Scheduler {
	return &Scheduler{
		wallets:     wallets,
		talks:       talks,
		flags:       flags,
		notify:      notify,
		voice:       voice,
		tiers:       tiers,
		states:      states,
		catalog:     catalog,
		nowFunc:     time.Now,
		pacing:      userPacing,
		endedPacing: endedUserPacing,
	}
}

// SetNowFunc overrides the clock for tests.
func (s *Scheduler) SetNowFunc(f func() time.Time) { s.nowFunc = f }

// SetPacing overrides the per-user send delays for tests.
func (s *Scheduler) SetPacing(user, ended time.Duration) {
	s.pacing = user
	s.endedPacing = ended
}

// Start schedules ticks on the cron grid until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	log := logger.FromContext(ctx)
	s.cron = cron.New()
	_, err := s.cron.AddFunc(CronSpec, func() {
		s.Tick(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Info("Reminder scheduler started",
		"spec", CronSpec,
		"reminder_utc", reminderHour,
		"warning_8h_utc", warning8hHour,
		"warning_1h_utc", warning1hHour)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop halts the cron loop, waiting for a running tick to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func inWindow(now time.Time, hour int) bool {
	if now.UTC().Hour() != hour {
		return false
	}
	m := now.UTC().Minute()
	return m >= targetMinute && m < targetMinute+windowMinutes
}

// Tick runs every pass whose window is open right now. Ended checks run at
// every tick so breaks are detected promptly.
func (s *Scheduler) Tick(ctx context.Context) {
	log := logger.FromContext(ctx)
	now := s.nowFunc()
	metrics.ReminderTicks.Inc()

	if inWindow(now, reminderHour) {
		s.RunDailyReminders(ctx)
		s.RunCharacterReminders(ctx)
	}
	if inWindow(now, warning8hHour) {
		s.RunDailyWarnings(ctx, 8)
		s.RunCharacterWarnings(ctx, 8)
	}
	if inWindow(now, warning1hHour) {
		s.RunDailyWarnings(ctx, 1)
		s.RunCharacterWarnings(ctx, 1)
	}
	s.RunCharacterEnded(ctx)

	if ctx.Err() != nil {
		log.Debug("Reminder tick cancelled")
	}
}

func (s *Scheduler) eligibleUsers(ctx context.Context) []int64 {
	ids, err := s.wallets.EligibleReminderUserIDs(ctx, eligibleLimit)
	if err != nil {
		logger.FromContext(ctx).Error("Eligible user sweep failed", "error", err)
		return nil
	}
	return ids
}

// pause waits the pacing delay, returning early on cancellation.
func (s *Scheduler) pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// send delivers one notification, treating an unreachable recipient as a
// non-event. Returns true when the notification counts as sent.
func (s *Scheduler) send(ctx context.Context, n Notification) bool {
	log := logger.FromContext(ctx)
	err := s.notify.SendDirectNotification(ctx, n)
	switch {
	case err == nil:
		metrics.NotificationsSent.WithLabelValues(string(n.Kind)).Inc()
		return true
	case err == domain.ErrNotificationForbidden:
		log.Debug("Recipient unreachable", "user_id", n.UserID, "kind", n.Kind)
		return true
	default:
		log.Error("Notification send failed", "user_id", n.UserID, "kind", n.Kind, "error", err)
		return false
	}
}

// RunDailyReminders handles the 14:00 UTC window: a claim nudge for users
// whose streak is alive but unclaimed today, and a one-time ended notice
// with restore instructions for streaks that just broke.
func (s *Scheduler) RunDailyReminders(ctx context.Context) {
	log := logger.FromContext(ctx)
	today := domain.UTCDay(s.nowFunc())
	sent, ended := 0, 0

	for _, uid := range s.eligibleUsers(ctx) {
		if ctx.Err() != nil {
			return
		}
		status, err := s.wallets.GetClaimStatus(ctx, uid)
		if err != nil {
			log.Error("Claim status read failed", "user_id", uid, "error", err)
			continue
		}
		if status.ClaimedToday {
			continue
		}
		if !s.flags.Enabled(ctx, uid) {
			continue
		}

		alive, err := s.wallets.IsStreakAlive(ctx, uid)
		if err != nil {
			log.Error("Streak alive check failed", "user_id", uid, "error", err)
			continue
		}

		if alive {
			if s.flags.sentToday(ctx, dailyReminderSentPrefix, uid, today) {
				continue
			}
			if s.send(ctx, Notification{UserID: uid, Kind: domain.NotifyDailyReminder, Streak: atLeastOne(status.Streak)}) {
				s.flags.markSentToday(ctx, dailyReminderSentPrefix, uid, today)
				sent++
			}
		} else if status.Streak > 0 && !s.flags.sentToday(ctx, dailyEndedSentPrefix, uid, today) {
			if s.send(ctx, Notification{UserID: uid, Kind: domain.NotifyDailyEnded, Streak: status.Streak}) {
				s.flags.markSentToday(ctx, dailyEndedSentPrefix, uid, today)
				ended++
			}
		}

		if !s.pause(ctx, s.pacing) {
			return
		}
	}
	if sent > 0 || ended > 0 {
		log.Info("Daily reminder pass done", "reminders", sent, "ended", ended)
	}
}

// RunDailyWarnings handles the 16:00 (8h left) and 23:00 (1h left) UTC
// windows for unclaimed alive streaks.
func (s *Scheduler) RunDailyWarnings(ctx context.Context, hoursLeft int) {
	log := logger.FromContext(ctx)
	today := domain.UTCDay(s.nowFunc())
	prefix := dailyWarning1hSentPrefix
	if hoursLeft > 1 {
		prefix = dailyWarning8hSentPrefix
	}
	sent := 0

	for _, uid := range s.eligibleUsers(ctx) {
		if ctx.Err() != nil {
			return
		}
		status, err := s.wallets.GetClaimStatus(ctx, uid)
		if err != nil {
			log.Error("Claim status read failed", "user_id", uid, "error", err)
			continue
		}
		if status.ClaimedToday {
			continue
		}
		if !s.flags.Enabled(ctx, uid) {
			continue
		}
		alive, err := s.wallets.IsStreakAlive(ctx, uid)
		if err != nil || !alive {
			continue
		}
		if s.flags.sentToday(ctx, prefix, uid, today) {
			continue
		}

		n := Notification{
			UserID:    uid,
			Kind:      domain.NotifyDailyWarning,
			Streak:    atLeastOne(status.Streak),
			HoursLeft: hoursLeft,
		}
		if s.send(ctx, n) {
			s.flags.markSentToday(ctx, prefix, uid, today)
			sent++
		}
		if !s.pause(ctx, s.pacing) {
			return
		}
	}
	if sent > 0 {
		log.Info("Daily warning pass done", "hours_left", hoursLeft, "sent", sent)
	}
}

// atRiskToday returns the user's talk streaks that are alive but have not
// been fed today, with display names resolved.
func (s *Scheduler) atRiskToday(ctx context.Context, userID int64, today string) []domain.AtRiskCharacter {
	var out []domain.AtRiskCharacter
	for id, st := range s.talks.ActiveTalkStreaksWithStatus(ctx, userID) {
		if !st.Alive || st.LastDay == today {
			continue
		}
		out = append(out, domain.AtRiskCharacter{
			CharacterID: id,
			DisplayName: s.displayName(id),
			Streak:      st.Streak,
		})
	}
	return out
}

func (s *Scheduler) displayName(id string) string {
	if s.catalog != nil {
		if c, ok := s.catalog.GetCharacter(id); ok && c.DisplayName != "" {
			return c.DisplayName
		}
	}
	return id
}

// RunCharacterReminders handles the 14:00 UTC window for talk streaks.
func (s *Scheduler) RunCharacterReminders(ctx context.Context) {
	log := logger.FromContext(ctx)
	today := domain.UTCDay(s.nowFunc())
	sent := 0

	for _, uid := range s.eligibleUsers(ctx) {
		if ctx.Err() != nil {
			return
		}
		if !s.flags.Enabled(ctx, uid) {
			continue
		}
		if s.flags.sentToday(ctx, charReminderSentPrefix, uid, today) {
			continue
		}

		atRisk := s.atRiskToday(ctx, uid, today)
		if len(atRisk) == 0 {
			continue
		}
		if s.send(ctx, Notification{UserID: uid, Kind: domain.NotifyTalkReminder, Characters: atRisk}) {
			s.flags.markSentToday(ctx, charReminderSentPrefix, uid, today)
			s.enrich(ctx, uid, atRisk, domain.StageReminder)
			sent++
		}
		if !s.pause(ctx, s.pacing) {
			return
		}
	}
	if sent > 0 {
		log.Info("Character reminder pass done", "sent", sent)
	}
}

// RunCharacterWarnings handles the 16:00 and 23:00 UTC windows for talk
// streaks.
func (s *Scheduler) RunCharacterWarnings(ctx context.Context, hoursLeft int) {
	log := logger.FromContext(ctx)
	today := domain.UTCDay(s.nowFunc())
	prefix := charWarning1hSentPrefix
	stage := domain.StageWarning1h
	if hoursLeft > 1 {
		prefix = charWarning8hSentPrefix
		stage = domain.StageWarning8h
	}
	sent := 0

	for _, uid := range s.eligibleUsers(ctx) {
		if ctx.Err() != nil {
			return
		}
		if !s.flags.Enabled(ctx, uid) {
			continue
		}
		if s.flags.sentToday(ctx, prefix, uid, today) {
			continue
		}

		atRisk := s.atRiskToday(ctx, uid, today)
		if len(atRisk) == 0 {
			continue
		}
		n := Notification{UserID: uid, Kind: domain.NotifyTalkWarning, HoursLeft: hoursLeft, Characters: atRisk}
		if s.send(ctx, n) {
			s.flags.markSentToday(ctx, prefix, uid, today)
			s.enrich(ctx, uid, atRisk, stage)
			sent++
		}
		if !s.pause(ctx, s.pacing) {
			return
		}
	}
	if sent > 0 {
		log.Info("Character warning pass done", "hours_left", hoursLeft, "sent", sent)
	}
}

// RunCharacterEnded runs at every tick: any talk streak that shows as dead
// but still positive gets a one-time ended notice, keyed by the break event.
func (s *Scheduler) RunCharacterEnded(ctx context.Context) {
	log := logger.FromContext(ctx)
	sent := 0

	for _, uid := range s.eligibleUsers(ctx) {
		if ctx.Err() != nil {
			return
		}
		if !s.flags.Enabled(ctx, uid) {
			continue
		}

		for id, st := range s.talks.ActiveTalkStreaksWithStatus(ctx, uid) {
			if st.Alive || st.Streak <= 0 {
				continue
			}
			breakDay := st.LastDay
			if breakDay == "" {
				breakDay = "unknown"
			}
			if s.flags.EndedSentForBreak(ctx, uid, id, breakDay) {
				continue
			}

			n := Notification{
				UserID: uid,
				Kind:   domain.NotifyTalkEnded,
				Streak: st.Streak,
				Characters: []domain.AtRiskCharacter{
					{CharacterID: id, DisplayName: s.displayName(id), Streak: st.Streak},
				},
			}
			if s.send(ctx, n) {
				s.flags.MarkEndedSentForBreak(ctx, uid, id, breakDay)
				sent++
			}
			if !s.pause(ctx, s.endedPacing) {
				return
			}
		}
	}
	if sent > 0 {
		log.Info("Character ended pass done", "sent", sent)
	}
}

// enrich sends the Pro in-character follow-up: the active character when it
// is at risk, otherwise the at-risk character with the longest streak.
func (s *Scheduler) enrich(ctx context.Context, userID int64, atRisk []domain.AtRiskCharacter, stage domain.EnrichmentStage) {
	if s.voice == nil || s.tiers == nil || len(atRisk) == 0 {
		return
	}
	log := logger.FromContext(ctx)

	if s.tiers.GetTier(ctx, userID) != domain.TierPro {
		return
	}

	chosen := atRisk[0]
	for _, c := range atRisk[1:] {
		if c.Streak > chosen.Streak {
			chosen = c
		}
	}
	if s.states != nil {
		if st, err := s.states.GetState(ctx, userID); err == nil && st.ActiveCharacterID != "" {
			for _, c := range atRisk {
				if c.CharacterID == domain.NormalizeID(st.ActiveCharacterID) {
					chosen = c
					break
				}
			}
		}
	}

	if err := s.voice.SendCharacterMessage(ctx, userID, chosen.CharacterID, stage, atLeastOne(chosen.Streak)); err != nil {
		log.Debug("In-character follow-up failed",
			"user_id", userID, "character_id", chosen.CharacterID, "stage", stage, "error", err)
	}
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
