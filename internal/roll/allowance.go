// Package roll manages the roll allowance (sliding-window or calendar-day),
// bonus rolls, and the pity counters that bias rarity odds toward a
// guarantee. The allowance window and bonus balance live in the ephemeral
// cache; pity counters are durable user state.
package roll

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/vantari-labs/CompanionBot_Go/internal/cache"
	"github.com/vantari-labs/CompanionBot_Go/internal/domain"
	"github.com/vantari-labs/CompanionBot_Go/internal/logger"
	"github.com/vantari-labs/CompanionBot_Go/internal/metrics"
	"github.com/vantari-labs/CompanionBot_Go/internal/repository"
)

// Allowance reports the outcome of a CanRoll check.
type Allowance struct {
	Allowed   bool
	Remaining int
	PerDay    int
}

// accounting is the time-semantics strategy behind the base allowance.
// remaining reports ok=false when its backing store cannot be consulted;
// the caller then degrades to bonus-only.
type accounting interface {
	remaining(ctx context.Context, userID int64, perDay int) (n int, ok bool, err error)
	consume(ctx context.Context, userID int64) error
	retryAfter(ctx context.Context, userID int64, perDay int) time.Duration
	clear(ctx context.Context, userID int64)
	setNow(f func() time.Time)
}

// Service implements the roll allowance and pity operations.
type Service struct {
	kv     cache.KV
	states repository.UserState
	acct   accounting

	windowSeconds int
	nowFunc       func() time.Time
}

// NewService creates a roll Service. windowSeconds > 0 selects the sliding
// window of that length; 0 selects calendar-day counting on durable state.
func NewService(kv cache.KV, states repository.UserState, windowSeconds int) *Service {
	if windowSeconds < 0 {
		windowSeconds = 0
	}
	s := &Service{kv: kv, states: states, windowSeconds: windowSeconds, nowFunc: time.Now}
	if windowSeconds > 0 {
		s.acct = &windowAccounting{kv: kv, windowSeconds: windowSeconds, nowFunc: time.Now}
	} else {
		s.acct = &calendarAccounting{states: states, nowFunc: time.Now}
	}
	return s
}

// SetNowFunc overrides the clock for tests.
func (s *Service) SetNowFunc(f func() time.Time) {
	s.nowFunc = f
	s.acct.setNow(f)
}

// WindowSeconds returns the configured window length (0 = calendar day).
// Surfaces use it for copy like "3 rolls per 5h".
func (s *Service) WindowSeconds() int { return s.windowSeconds }

func windowKey(userID int64) string    { return fmt.Sprintf("%s%d", windowKeyPrefix, userID) }
func bonusKey(userID int64) string     { return fmt.Sprintf("%s%d", bonusKeyPrefix, userID) }
func onboardedKey(userID int64) string { return fmt.Sprintf("%s%d", onboardedKeyPrefix, userID) }

func perDayFor(tier string) int {
	if domain.NormalizeID(tier) == domain.TierPro {
		return domain.RollsPerDayPro
	}
	return domain.RollsPerDayFree
}

// CanRoll returns whether the user may roll now, how many rolls remain
// (base allowance plus bonus), and the per-window cap for the tier. When the
// base allowance cannot be consulted the check degrades to bonus-only
// rather than failing.
func (s *Service) CanRoll(ctx context.Context, userID int64, tier string) (Allowance, error) {
	perDay := perDayFor(tier)
	bonus := s.GetBonusRolls(ctx, userID)

	remaining, ok, err := s.acct.remaining(ctx, userID, perDay)
	if err != nil {
		return Allowance{}, err
	}
	if !ok {
		return Allowance{Allowed: bonus > 0, Remaining: bonus, PerDay: perDay}, nil
	}
	total := remaining + bonus
	return Allowance{Allowed: total > 0, Remaining: total, PerDay: perDay}, nil
}

// ConsumeRoll spends one roll: bonus first, then the base allowance.
// Callers check CanRoll before invoking it; over-consumption just pushes
// the used count past the cap.
func (s *Service) ConsumeRoll(ctx context.Context, userID int64) error {
	metrics.RollsConsumed.Inc()
	if s.consumeBonusRoll(ctx, userID) {
		return nil
	}
	return s.acct.consume(ctx, userID)
}

// RetryAfter returns how long until the base allowance resets when the user
// has exhausted it. Zero with rolls remaining or when the store cannot
// answer.
func (s *Service) RetryAfter(ctx context.Context, userID int64, tier string) time.Duration {
	return s.acct.retryAfter(ctx, userID, perDayFor(tier))
}

// ClearRollWindow resets the base allowance so the user gets a fresh
// window. Used by account resets.
func (s *Service) ClearRollWindow(ctx context.Context, userID int64) {
	s.acct.clear(ctx, userID)
}

// windowState is the sliding-window record stored as JSON in the cache.
type windowState struct {
	Start int64 `json:"s"`
	Used  int   `json:"u"`
}

// windowAccounting keeps a rolling window record in the ephemeral cache.
type windowAccounting struct {
	kv            cache.KV
	windowSeconds int
	nowFunc       func() time.Time
}

func (a *windowAccounting) setNow(f func() time.Time) { a.nowFunc = f }

// remaining reads the sliding-window record. ok is false when the cache is
// unavailable; a missing or expired-in-place record counts as a fresh
// window.
func (a *windowAccounting) remaining(ctx context.Context, userID int64, perDay int) (int, bool, error) {
	raw, err := a.kv.Get(ctx, windowKey(userID))
	if err == cache.ErrMiss {
		return perDay, true, nil
	}
	if err != nil {
		logger.FromContext(ctx).Debug("Roll window read failed", "user_id", userID, "error", err)
		return 0, false, nil
	}

	var w windowState
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return perDay, true, nil
	}
	if a.nowFunc().Unix()-w.Start >= int64(a.windowSeconds) {
		return perDay, true, nil
	}
	remaining := perDay - w.Used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true, nil
}

func (a *windowAccounting) consume(ctx context.Context, userID int64) error {
	log := logger.FromContext(ctx)
	key := windowKey(userID)
	now := a.nowFunc().Unix()

	w := windowState{Start: now}
	raw, err := a.kv.Get(ctx, key)
	if err == nil {
		var prev windowState
		if json.Unmarshal([]byte(raw), &prev) == nil && now-prev.Start < int64(a.windowSeconds) {
			w = prev
		}
	} else if err != cache.ErrMiss {
		log.Debug("Roll window read failed on consume", "user_id", userID, "error", err)
		return nil
	}

	w.Used++
	data, _ := json.Marshal(w)
	ttl := time.Duration(a.windowSeconds)*time.Second + windowSlackTTL
	if err := a.kv.Set(ctx, key, string(data), ttl); err != nil {
		log.Debug("Roll window write failed", "user_id", userID, "error", err)
	}
	return nil
}

func (a *windowAccounting) retryAfter(ctx context.Context, userID int64, perDay int) time.Duration {
	raw, err := a.kv.Get(ctx, windowKey(userID))
	if err != nil {
		return 0
	}
	var w windowState
	if json.Unmarshal([]byte(raw), &w) != nil {
		return 0
	}
	if w.Used < perDay {
		return 0
	}
	resetAt := w.Start + int64(a.windowSeconds)
	left := resetAt - a.nowFunc().Unix()
	if left < 0 {
		return 0
	}
	return time.Duration(left) * time.Second
}

func (a *windowAccounting) clear(ctx context.Context, userID int64) {
	if err := a.kv.Delete(ctx, windowKey(userID)); err != nil {
		logger.FromContext(ctx).Debug("Roll window clear failed", "user_id", userID, "error", err)
	}
}

// calendarAccounting counts rolls against a UTC day on durable user state,
// reset lazily on the first touch of a new day.
type calendarAccounting struct {
	states  repository.UserState
	nowFunc func() time.Time
}

func (a *calendarAccounting) setNow(f func() time.Time) { a.nowFunc = f }

func (a *calendarAccounting) remaining(ctx context.Context, userID int64, perDay int) (int, bool, error) {
	st, err := a.states.GetState(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	today := domain.UTCDay(a.nowFunc())
	if st.RollDay != today {
		st.RollDay = today
		st.RollUsed = 0
		if err := a.states.SaveState(ctx, st); err != nil {
			return 0, false, err
		}
	}
	remaining := perDay - st.RollUsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true, nil
}

func (a *calendarAccounting) consume(ctx context.Context, userID int64) error {
	st, err := a.states.GetState(ctx, userID)
	if err != nil {
		return err
	}
	today := domain.UTCDay(a.nowFunc())
	if st.RollDay != today {
		st.RollDay = today
		st.RollUsed = 0
	}
	st.RollUsed++
	return a.states.SaveState(ctx, st)
}

// retryAfter in calendar mode is the time to UTC midnight once the day's
// allowance is spent.
func (a *calendarAccounting) retryAfter(ctx context.Context, userID int64, perDay int) time.Duration {
	st, err := a.states.GetState(ctx, userID)
	if err != nil {
		return 0
	}
	now := a.nowFunc()
	if st.RollDay != domain.UTCDay(now) || st.RollUsed < perDay {
		return 0
	}
	return domain.NextUTCMidnight(now).Sub(now)
}

func (a *calendarAccounting) clear(ctx context.Context, userID int64) {
	st, err := a.states.GetState(ctx, userID)
	if err != nil {
		logger.FromContext(ctx).Debug("Roll day clear failed", "user_id", userID, "error", err)
		return
	}
	st.RollDay = ""
	st.RollUsed = 0
	if err := a.states.SaveState(ctx, st); err != nil {
		logger.FromContext(ctx).Debug("Roll day clear failed", "user_id", userID, "error", err)
	}
}

// GetBonusRolls returns the user's bonus-roll balance (0 when the cache is
// unavailable).
func (s *Service) GetBonusRolls(ctx context.Context, userID int64) int {
	raw, err := s.kv.Get(ctx, bonusKey(userID))
	if err != nil {
		return 0
	}
	n, _ := strconv.Atoi(raw)
	if n < 0 {
		return 0
	}
	return n
}

// GrantBonusRolls adds amount bonus rolls and refreshes the balance TTL.
// Returns the new balance.
func (s *Service) GrantBonusRolls(ctx context.Context, userID int64, amount int, ttl time.Duration) (int, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidInput
	}
	if ttl <= 0 {
		ttl = DefaultBonusTTL
	}
	key := bonusKey(userID)
	total, err := s.kv.IncrBy(ctx, key, int64(amount))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	if err := s.kv.Expire(ctx, key, ttl); err != nil {
		logger.FromContext(ctx).Debug("Bonus roll TTL refresh failed", "user_id", userID, "error", err)
	}
	metrics.BonusRollsGranted.Add(float64(amount))
	logger.FromContext(ctx).Info("Granted bonus rolls", "user_id", userID, "amount", amount, "total", total)
	return int(total), nil
}

// GrantOnboardingBonus grants the one-time welcome bonus roll. The marker is
// claimed with SetNX so concurrent first sessions grant at most once.
// Returns true when this call performed the grant.
func (s *Service) GrantOnboardingBonus(ctx context.Context, userID int64) (bool, error) {
	created, err := s.kv.SetNX(ctx, onboardedKey(userID), "1", onboardedMarkerTTL)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	if !created {
		return false, nil
	}
	if _, err := s.GrantBonusRolls(ctx, userID, 1, OnboardingBonusTTL); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) consumeBonusRoll(ctx context.Context, userID int64) bool {
	consumed, err := s.kv.DecrIfPositive(ctx, bonusKey(userID))
	if err != nil {
		logger.FromContext(ctx).Debug("Bonus roll consume failed", "user_id", userID, "error", err)
		return false
	}
	return consumed
}
