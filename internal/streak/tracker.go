// Package streak tracks daily streaks. One algorithm serves two families:
// the daily-claim streak (one per user, restorable through the wallet) and
// per-character talk streaks (one per owned character, gone for good once
// broken). Records live in the ephemeral cache with a bounded TTL so
// abandoned streaks self-expire.
package streak

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vantari-labs/CompanionBot_Go/internal/cache"
	"github.com/vantari-labs/CompanionBot_Go/internal/domain"
	"github.com/vantari-labs/CompanionBot_Go/internal/leaderboard"
	"github.com/vantari-labs/CompanionBot_Go/internal/logger"
)

// RecordTTL bounds every streak record so the cache stays bounded.
const RecordTTL = 90 * 24 * time.Hour

// Cache key prefixes. The last-event keys use a distinct second token so a
// prefix scan over count keys never matches them.
const (
	claimCountPrefix = "daily_streak:"
	claimLastPrefix  = "daily_streak:last_claim:"
	talkCountPrefix  = "char_streak:"
	talkLastPrefix   = "char_streak:last_talk:"
)

// Result describes the outcome of recording a streak event.
type Result struct {
	Streak    int
	Continued bool
	// Broken carries the previous streak length when this event reset the
	// record (the wallet uses it to offer a paid restore). Zero otherwise.
	Broken int
}

// Status is one talk-family record with its alive flag.
type Status struct {
	Streak  int
	LastDay string
	Alive   bool
}

// Tracker implements both streak families on the ephemeral cache.
type Tracker struct {
	kv      cache.KV
	boards  leaderboard.Service
	nowFunc func() time.Time
}

// NewTracker creates a Tracker.
func NewTracker(kv cache.KV, boards leaderboard.Service) *Tracker {
	return &Tracker{kv: kv, boards: boards, nowFunc: time.Now}
}

// SetNowFunc overrides the clock for tests.
func (t *Tracker) SetNowFunc(f func() time.Time) { t.nowFunc = f }

func claimCountKey(userID int64) string { return fmt.Sprintf("%s%d", claimCountPrefix, userID) }
func claimLastKey(userID int64) string  { return fmt.Sprintf("%s%d", claimLastPrefix, userID) }

func talkCountKey(userID int64, characterID string) string {
	return fmt.Sprintf("%s%d:%s", talkCountPrefix, userID, domain.NormalizeID(characterID))
}

func talkLastKey(userID int64, characterID string) string {
	return fmt.Sprintf("%s%d:%s", talkLastPrefix, userID, domain.NormalizeID(characterID))
}

// RecordClaim records a daily-claim event. scope widens leaderboard
// propagation beyond the global board when non-zero.
func (t *Tracker) RecordClaim(ctx context.Context, userID int64, scope int64) (Result, error) {
	res, err := t.recordEvent(ctx, claimCountKey(userID), claimLastKey(userID))
	if err != nil {
		return Result{}, err
	}
	t.propagate(ctx, leaderboard.CategoryStreak, scope, userID, res.Streak)
	return res, nil
}

// RecordTalk records a talk event for one character.
func (t *Tracker) RecordTalk(ctx context.Context, userID int64, characterID string, scope int64) (Result, error) {
	id := domain.NormalizeID(characterID)
	if id == "" {
		return Result{}, domain.ErrInvalidInput
	}
	res, err := t.recordEvent(ctx, talkCountKey(userID, id), talkLastKey(userID, id))
	if err != nil {
		return Result{}, err
	}
	t.propagate(ctx, leaderboard.CategoryCharacterStreak, scope, userID, res.Streak)
	return res, nil
}

// recordEvent applies the shared continuation algebra:
// same day keeps the count, exactly one day later increments it, anything
// else (first event included) resets to 1.
func (t *Tracker) recordEvent(ctx context.Context, countKey, lastKey string) (Result, error) {
	log := logger.FromContext(ctx)
	now := t.nowFunc()
	today := domain.UTCDay(now)

	lastDay, current, err := t.load(ctx, countKey, lastKey)
	if err != nil {
		// Cache down: streaks degrade to "forgotten", never fatal.
		log.Debug("Streak record skipped, cache unavailable", "key", countKey, "error", err)
		return Result{}, nil
	}

	res := Result{Streak: 1}
	switch {
	case lastDay == today:
		res.Streak = current
		res.Continued = true
	case lastDay != "":
		if diff, ok := domain.DaysBetween(lastDay, today); ok && diff == 1 {
			res.Streak = current + 1
			res.Continued = true
		} else {
			res.Broken = current
		}
	}

	if err := t.kv.Set(ctx, countKey, strconv.Itoa(res.Streak), RecordTTL); err != nil {
		log.Debug("Streak count write failed", "key", countKey, "error", err)
		return Result{}, nil
	}
	if err := t.kv.Set(ctx, lastKey, today, RecordTTL); err != nil {
		log.Debug("Streak day write failed", "key", lastKey, "error", err)
		return Result{}, nil
	}
	return res, nil
}

func (t *Tracker) load(ctx context.Context, countKey, lastKey string) (lastDay string, count int, err error) {
	lastDay, err = t.kv.Get(ctx, lastKey)
	if err == cache.ErrMiss {
		lastDay, err = "", nil
	}
	if err != nil {
		return "", 0, err
	}

	raw, err := t.kv.Get(ctx, countKey)
	if err == cache.ErrMiss {
		return lastDay, 0, nil
	}
	if err != nil {
		return "", 0, err
	}
	count, _ = strconv.Atoi(raw)
	return lastDay, count, nil
}

func (t *Tracker) propagate(ctx context.Context, category string, scope int64, userID int64, streak int) {
	if t.boards == nil {
		return
	}
	t.boards.UpdateAllPeriods(ctx, category, domain.GlobalScopeID, userID, float64(streak))
	if scope != domain.GlobalScopeID {
		t.boards.UpdateAllPeriods(ctx, category, scope, userID, float64(streak))
	}
}

// RestoreClaim raises the claim streak to count as if today's event had
// continued the previous run. Used by the paid streak restore; never lowers
// an existing count. Best effort.
func (t *Tracker) RestoreClaim(ctx context.Context, userID int64, count int) {
	log := logger.FromContext(ctx)
	if count <= 0 {
		return
	}
	if cur := t.GetClaim(ctx, userID); cur > count {
		count = cur
	}
	today := domain.UTCDay(t.nowFunc())
	if err := t.kv.Set(ctx, claimCountKey(userID), strconv.Itoa(count), RecordTTL); err != nil {
		log.Debug("Streak restore write failed", "user_id", userID, "error", err)
		return
	}
	if err := t.kv.Set(ctx, claimLastKey(userID), today, RecordTTL); err != nil {
		log.Debug("Streak restore day write failed", "user_id", userID, "error", err)
	}
}

// GetClaim returns the daily-claim streak count (0 when absent or cache down).
func (t *Tracker) GetClaim(ctx context.Context, userID int64) int {
	return t.getCount(ctx, claimCountKey(userID))
}

// GetTalk returns one character's talk streak count.
func (t *Tracker) GetTalk(ctx context.Context, userID int64, characterID string) int {
	return t.getCount(ctx, talkCountKey(userID, characterID))
}

func (t *Tracker) getCount(ctx context.Context, key string) int {
	raw, err := t.kv.Get(ctx, key)
	if err != nil {
		return 0
	}
	n, _ := strconv.Atoi(raw)
	return n
}

// IsClaimAlive reports whether the claim streak survives right now
// (last event today or yesterday UTC).
func (t *Tracker) IsClaimAlive(ctx context.Context, userID int64) bool {
	return t.isAlive(ctx, claimLastKey(userID))
}

// IsTalkAlive reports whether one character's talk streak survives.
func (t *Tracker) IsTalkAlive(ctx context.Context, userID int64, characterID string) bool {
	return t.isAlive(ctx, talkLastKey(userID, characterID))
}

func (t *Tracker) isAlive(ctx context.Context, lastKey string) bool {
	lastDay, err := t.kv.Get(ctx, lastKey)
	if err != nil || lastDay == "" {
		return false
	}
	now := t.nowFunc()
	return lastDay == domain.UTCDay(now) || lastDay == domain.Yesterday(now)
}

// LastClaimDay returns the stored claim day stamp (empty when absent).
func (t *Tracker) LastClaimDay(ctx context.Context, userID int64) string {
	day, err := t.kv.Get(ctx, claimLastKey(userID))
	if err != nil {
		return ""
	}
	return day
}

// DeleteTalkStreak removes a character's talk record and returns the streak
// that was deleted (0 if none). Called when the character leaves the
// inventory so the scheduler stops reporting on it.
func (t *Tracker) DeleteTalkStreak(ctx context.Context, userID int64, characterID string) int {
	log := logger.FromContext(ctx)
	countKey := talkCountKey(userID, characterID)
	old := t.getCount(ctx, countKey)

	if err := t.kv.Delete(ctx, countKey, talkLastKey(userID, characterID)); err != nil {
		log.Debug("Talk streak delete failed", "key", countKey, "error", err)
		return 0
	}
	if old > 0 {
		log.Info("Deleted character talk streak",
			"user_id", userID, "character_id", domain.NormalizeID(characterID), "streak", old)
	}
	return old
}

// ActiveTalkStreaksWithStatus returns every talk record with streak > 0 for
// the user, keyed by character id, with its alive flag.
func (t *Tracker) ActiveTalkStreaksWithStatus(ctx context.Context, userID int64) map[string]Status {
	log := logger.FromContext(ctx)
	prefix := fmt.Sprintf("%s%d:", talkCountPrefix, userID)

	keys, err := t.kv.ScanPrefix(ctx, prefix, 0)
	if err != nil {
		log.Debug("Talk streak scan failed", "user_id", userID, "error", err)
		return map[string]Status{}
	}

	now := t.nowFunc()
	today := domain.UTCDay(now)
	yesterday := domain.Yesterday(now)

	out := make(map[string]Status)
	for _, key := range keys {
		characterID := strings.TrimPrefix(key, prefix)
		if characterID == "" {
			continue
		}
		streak := t.getCount(ctx, key)
		if streak <= 0 {
			continue
		}
		lastDay, err := t.kv.Get(ctx, talkLastKey(userID, characterID))
		if err != nil {
			lastDay = ""
		}
		out[characterID] = Status{
			Streak:  streak,
			LastDay: lastDay,
			Alive:   lastDay != "" && (lastDay == today || lastDay == yesterday),
		}
	}
	return out
}

// MaxTalkStreak returns the longest talk streak across all characters.
func (t *Tracker) MaxTalkStreak(ctx context.Context, userID int64) int {
	best := 0
	for _, st := range t.ActiveTalkStreaksWithStatus(ctx, userID) {
		if st.Streak > best {
			best = st.Streak
		}
	}
	return best
}
