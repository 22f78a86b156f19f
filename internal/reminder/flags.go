package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/vantari-labs/CompanionBot_Go/internal/cache"
	"github.com/vantari-labs/CompanionBot_Go/internal/domain"
	"github.com/vantari-labs/CompanionBot_Go/internal/logger"
)

// Flag key prefixes. Day-keyed sent flags carry the UTC day stamp so a flag
// can never suppress the next day's send even if the TTL outlives midnight.
const (
	optOutPrefix = "streak_reminders:opt_out:"

	dailyReminderSentPrefix  = "streak_reminders:reminder_sent:"
	dailyWarning8hSentPrefix = "streak_reminders:warning8h_sent:"
	dailyWarning1hSentPrefix = "streak_reminders:warning1h_sent:"
	dailyEndedSentPrefix     = "streak_reminders:ended_sent:"

	charReminderSentPrefix  = "streak_reminders:char_reminder_sent:"
	charWarning8hSentPrefix = "streak_reminders:char_warning8h_sent:"
	charWarning1hSentPrefix = "streak_reminders:char_warning1h_sent:"
	charEndedSentPrefix     = "streak_reminders:char_ended_sent:"
)

const (
	// sentFlagTTL outlives the stamped day comfortably.
	sentFlagTTL = 48 * time.Hour

	// endedBreakTTL covers break-keyed ended flags, which must outlast any
	// dead streak the scan can still see.
	endedBreakTTL = 30 * 24 * time.Hour
)

// Flags is the idempotency and opt-out store for the reminder scheduler.
// All state is ephemeral: losing it risks a duplicate notification, never a
// wrong one.
type Flags struct {
	kv cache.KV
}

// NewFlags creates a Flags store.
func NewFlags(kv cache.KV) *Flags {
	return &Flags{kv: kv}
}

// Enabled reports whether the user accepts reminder notifications.
// Fails open: when the cache cannot answer, reminders stay enabled.
func (f *Flags) Enabled(ctx context.Context, userID int64) bool {
	val, err := f.kv.Get(ctx, fmt.Sprintf("%s%d", optOutPrefix, userID))
	if err == cache.ErrMiss {
		return true
	}
	if err != nil {
		logger.FromContext(ctx).Debug("Opt-out read failed, allowing reminders", "user_id", userID, "error", err)
		return true
	}
	switch domain.NormalizeID(val) {
	case "1", "true", "yes", "on":
		return false
	}
	return true
}

// SetEnabled records the user's reminder preference. Enabling deletes the
// opt-out marker; disabling sets it without expiry.
func (f *Flags) SetEnabled(ctx context.Context, userID int64, enabled bool) error {
	key := fmt.Sprintf("%s%d", optOutPrefix, userID)
	if enabled {
		return f.kv.Delete(ctx, key)
	}
	return f.kv.Set(ctx, key, "1", 0)
}

// dayFlagKey builds a day-stamped flag key.
func dayFlagKey(prefix string, userID int64, day string) string {
	return fmt.Sprintf("%s%d:%s", prefix, userID, day)
}

// sentToday reports whether the flag was set for the given day. When the
// cache cannot answer, the flag reads as not sent; the send path marks after
// sending, so the worst case is a duplicate, not a miss.
func (f *Flags) sentToday(ctx context.Context, prefix string, userID int64, day string) bool {
	ok, err := f.kv.Exists(ctx, dayFlagKey(prefix, userID, day))
	if err != nil {
		return false
	}
	return ok
}

func (f *Flags) markSentToday(ctx context.Context, prefix string, userID int64, day string) {
	if err := f.kv.Set(ctx, dayFlagKey(prefix, userID, day), "1", sentFlagTTL); err != nil {
		logger.FromContext(ctx).Debug("Sent-flag write failed", "user_id", userID, "prefix", prefix, "error", err)
	}
}

// EndedSentForBreak reports whether the ended notification for one break
// event was already sent. Keyed by the last talk day, not today, so the flag
// holds across calendar days and never re-fires for the same break.
func (f *Flags) EndedSentForBreak(ctx context.Context, userID int64, characterID, lastTalkDay string) bool {
	key := fmt.Sprintf("%s%d:%s:%s", charEndedSentPrefix, userID, characterID, lastTalkDay)
	ok, err := f.kv.Exists(ctx, key)
	if err != nil {
		return false
	}
	return ok
}

// MarkEndedSentForBreak records the ended notification for one break event.
func (f *Flags) MarkEndedSentForBreak(ctx context.Context, userID int64, characterID, lastTalkDay string) {
	key := fmt.Sprintf("%s%d:%s:%s", charEndedSentPrefix, userID, characterID, lastTalkDay)
	if err := f.kv.Set(ctx, key, "1", endedBreakTTL); err != nil {
		logger.FromContext(ctx).Debug("Break-flag write failed", "user_id", userID, "character_id", characterID, "error", err)
	}
}
