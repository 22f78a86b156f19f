// Package points implements the global points wallet: the once-per-UTC-day
// claim with its streak-scaled award, paid streak restore, spending and
// admin adjustments. Every balance mutation runs under a wallet row lock and
// leaves a ledger row for audit.
package points

import (
	"context"
	"fmt"
	"time"

	"github.com/vantari-labs/CompanionBot_Go/internal/domain"
	"github.com/vantari-labs/CompanionBot_Go/internal/leaderboard"
	"github.com/vantari-labs/CompanionBot_Go/internal/logger"
	"github.com/vantari-labs/CompanionBot_Go/internal/metrics"
	"github.com/vantari-labs/CompanionBot_Go/internal/repository"
	"github.com/vantari-labs/CompanionBot_Go/internal/streak"
)

// StreakTracker is the slice of the streak tracker the wallet needs.
type StreakTracker interface {
	RecordClaim(ctx context.Context, userID int64, scope int64) (streak.Result, error)
	GetClaim(ctx context.Context, userID int64) int
	RestoreClaim(ctx context.Context, userID int64, count int)
}

// Service implements the wallet operations.
type Service struct {
	wallets repository.Wallet
	streaks StreakTracker
	boards  leaderboard.Service
	nowFunc func() time.Time
}

// NewService creates a points Service. boards is optional.
func NewService(wallets repository.Wallet, streaks StreakTracker, boards leaderboard.Service) *Service {
	return &Service{wallets: wallets, streaks: streaks, boards: boards, nowFunc: time.Now}
}

// SetNowFunc overrides the clock for tests.
func (s *Service) SetNowFunc(f func() time.Time) { s.nowFunc = f }

// AmountForStreak returns the daily award for a streak length, excluding the
// first-claim bonus.
func AmountForStreak(streakLen int) int {
	bonusDays := streakLen - 1
	if bonusDays < 0 {
		bonusDays = 0
	}
	if bonusDays > StreakBonusCapDays {
		bonusDays = StreakBonusCapDays
	}
	amount := DailyBase + bonusDays*StreakBonusPerDay
	if streakLen >= MilestoneWeekDays {
		amount += MilestoneWeek
	}
	if streakLen >= MilestoneTenDays {
		amount += MilestoneTen
	}
	return amount
}

// RoadmapPreview returns the next days of daily awards starting from the
// current streak. Surfaces render it as a claim roadmap.
func RoadmapPreview(currentStreak, days int) []int {
	if days <= 0 {
		days = 10
	}
	out := make([]int, 0, days)
	for i := 1; i <= days; i++ {
		out = append(out, AmountForStreak(currentStreak+i))
	}
	return out
}

// GetBalance returns the user's balance.
func (s *Service) GetBalance(ctx context.Context, userID int64) (int, error) {
	w, err := s.wallets.GetWallet(ctx, userID)
	if err != nil {
		return 0, err
	}
	return w.Balance, nil
}

// GetClaimStatus reports whether the user claimed today, how long until the
// next claim opens, and the current streak.
func (s *Service) GetClaimStatus(ctx context.Context, userID int64) (domain.ClaimStatus, error) {
	w, err := s.wallets.GetWallet(ctx, userID)
	if err != nil {
		return domain.ClaimStatus{}, err
	}
	now := s.nowFunc()
	st := domain.ClaimStatus{Streak: s.streaks.GetClaim(ctx, userID)}
	if w.LastClaimDay == domain.UTCDay(now) {
		st.ClaimedToday = true
		st.NextClaimInSecs = int(domain.NextUTCMidnight(now).Sub(now).Seconds())
	}
	return st, nil
}

// ClaimDaily performs the once-per-UTC-day claim. A same-day repeat is a
// no-op that reports when the next claim opens. A claim after a break saves
// the previous streak for a limited paid restore. scope widens leaderboard
// propagation beyond the global board when non-zero.
func (s *Service) ClaimDaily(ctx context.Context, userID int64, scope int64) (domain.DailyClaimResult, error) {
	log := logger.FromContext(ctx)
	now := s.nowFunc()
	today := domain.UTCDay(now)

	var (
		res       domain.DailyClaimResult
		repeat    bool
		streakNow int
	)
	w, err := s.wallets.WithWalletLock(ctx, userID, func(w *domain.Wallet) error {
		if w.LastClaimDay == today {
			repeat = true
			return nil
		}

		rec, err := s.streaks.RecordClaim(ctx, userID, scope)
		if err != nil {
			return err
		}
		streakNow = rec.Streak

		if rec.Continued {
			// Clear any leftover restore offer so the restore button does
			// not appear while the streak is alive.
			w.StreakSaved = 0
			w.RestoreDeadlineDay = ""
		} else if rec.Broken > 0 {
			w.StreakSaved = rec.Broken
			w.RestoreDeadlineDay = domain.UTCDay(now.AddDate(0, 0, RestoreWindowDays))
		}

		res.Awarded = AmountForStreak(streakNow)
		if !w.FirstClaimed {
			res.FirstBonusAwarded = FirstClaimBonus
			res.Awarded += FirstClaimBonus
			w.FirstClaimed = true
		}

		w.Balance += res.Awarded
		w.LastClaimDay = today
		return nil
	})
	if err != nil {
		return domain.DailyClaimResult{}, err
	}

	if repeat {
		streakNow = s.streaks.GetClaim(ctx, userID)
	}

	res.Balance = w.Balance
	res.Streak = streakNow
	res.ClaimedToday = true
	res.NextClaimInSecs = int(domain.NextUTCMidnight(now).Sub(now).Seconds())
	res.RestoreCost = RestoreCost
	if w.StreakSaved > 0 && w.RestoreDeadlineDay != "" && today <= w.RestoreDeadlineDay {
		res.RestoreAvailable = true
		res.RestoreToStreak = w.StreakSaved + 1
		res.RestoreDeadlineDay = w.RestoreDeadlineDay
	}

	if repeat {
		return res, nil
	}

	s.appendLedger(ctx, &repository.LedgerEntry{
		UserID: userID,
		Delta:  res.Awarded,
		Reason: ReasonDailyClaim,
		Meta: map[string]any{
			"day_utc":     today,
			"streak":      streakNow,
			"first_bonus": res.FirstBonusAwarded,
		},
	})
	metrics.DailyClaims.Inc()
	metrics.PointsAwarded.Add(float64(res.Awarded))
	s.propagateBalance(ctx, userID, scope, w.Balance)
	log.Info("Daily claim",
		"user_id", userID, "awarded", res.Awarded, "streak", streakNow, "balance", w.Balance)
	return res, nil
}

// RestoreStreak pays to continue a recently broken streak as if today had
// counted. Fails when no offer is saved, the offer expired, or the balance
// cannot cover the cost.
func (s *Service) RestoreStreak(ctx context.Context, userID int64, scope int64) (int, int, error) {
	log := logger.FromContext(ctx)
	today := domain.UTCDay(s.nowFunc())

	restoredTo := 0
	w, err := s.wallets.WithWalletLock(ctx, userID, func(w *domain.Wallet) error {
		if w.StreakSaved <= 0 || w.RestoreDeadlineDay == "" || today > w.RestoreDeadlineDay {
			return domain.ErrInvalidInput
		}
		if w.Balance < RestoreCost {
			return fmt.Errorf("%w: need %d", domain.ErrInsufficientPoints, RestoreCost)
		}
		restoredTo = w.StreakSaved + 1
		w.Balance -= RestoreCost
		w.StreakSaved = 0
		w.RestoreDeadlineDay = ""
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	s.streaks.RestoreClaim(ctx, userID, restoredTo)
	streakNow := s.streaks.GetClaim(ctx, userID)

	s.appendLedger(ctx, &repository.LedgerEntry{
		UserID: userID,
		Delta:  -RestoreCost,
		Reason: ReasonStreakRestore,
		Meta:   map[string]any{"restored_to": restoredTo},
	})
	metrics.StreakRestores.Inc()
	metrics.PointsSpent.Add(RestoreCost)
	s.propagateBalance(ctx, userID, scope, w.Balance)
	if s.boards != nil {
		s.boards.UpdateAllPeriods(ctx, leaderboard.CategoryStreak, domain.GlobalScopeID, userID, float64(streakNow))
	}
	log.Info("Streak restored", "user_id", userID, "streak", streakNow, "balance", w.Balance)
	return w.Balance, streakNow, nil
}

// SpendPoints attempts to spend cost points. Returns (spent, new balance).
// A non-positive cost spends nothing and succeeds.
func (s *Service) SpendPoints(ctx context.Context, userID int64, cost int, reason string, meta map[string]any) (bool, int, error) {
	if cost <= 0 {
		bal, err := s.GetBalance(ctx, userID)
		return err == nil, bal, err
	}

	short := false
	w, err := s.wallets.WithWalletLock(ctx, userID, func(w *domain.Wallet) error {
		if w.Balance < cost {
			short = true
			return nil
		}
		w.Balance -= cost
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	if short {
		return false, w.Balance, nil
	}

	if reason == "" {
		reason = ReasonSpend
	}
	s.appendLedger(ctx, &repository.LedgerEntry{UserID: userID, Delta: -cost, Reason: reason, Meta: meta})
	metrics.PointsSpent.Add(float64(cost))
	s.propagateBalance(ctx, userID, domain.GlobalScopeID, w.Balance)
	return true, w.Balance, nil
}

// AdjustPoints adds or removes points without a spend check; the balance
// floors at zero. Admin surface. Returns the new balance.
func (s *Service) AdjustPoints(ctx context.Context, userID int64, delta int, reason string, meta map[string]any) (int, error) {
	if delta == 0 {
		return s.GetBalance(ctx, userID)
	}

	applied := 0
	w, err := s.wallets.WithWalletLock(ctx, userID, func(w *domain.Wallet) error {
		next := w.Balance + delta
		if next < 0 {
			next = 0
		}
		applied = next - w.Balance
		w.Balance = next
		return nil
	})
	if err != nil {
		return 0, err
	}

	if reason == "" {
		reason = ReasonAdjust
	}
	s.appendLedger(ctx, &repository.LedgerEntry{UserID: userID, Delta: applied, Reason: reason, Meta: meta})
	return w.Balance, nil
}

// IsStreakAlive reports whether the last claim was today or yesterday UTC.
// The durable wallet day is authoritative here, not the cache record.
func (s *Service) IsStreakAlive(ctx context.Context, userID int64) (bool, error) {
	w, err := s.wallets.GetWallet(ctx, userID)
	if err != nil {
		return false, err
	}
	if w.LastClaimDay == "" {
		return false, nil
	}
	now := s.nowFunc()
	return w.LastClaimDay == domain.UTCDay(now) || w.LastClaimDay == domain.Yesterday(now), nil
}

// LastClaimDay returns the wallet's last claim day (empty if never claimed).
func (s *Service) LastClaimDay(ctx context.Context, userID int64) (string, error) {
	w, err := s.wallets.GetWallet(ctx, userID)
	if err != nil {
		return "", err
	}
	return w.LastClaimDay, nil
}

// EligibleReminderUserIDs returns users whose streak is alive or broke today,
// so reminder passes skip long-gone users.
func (s *Service) EligibleReminderUserIDs(ctx context.Context, limit int) ([]int64, error) {
	now := s.nowFunc()
	return s.wallets.EligibleReminderUserIDs(ctx, domain.UTCDay(now), domain.Yesterday(now), limit)
}

func (s *Service) appendLedger(ctx context.Context, entry *repository.LedgerEntry) {
	if err := s.wallets.AppendLedger(ctx, entry); err != nil {
		logger.FromContext(ctx).Error("Ledger append failed",
			"user_id", entry.UserID, "reason", entry.Reason, "error", err)
	}
}

func (s *Service) propagateBalance(ctx context.Context, userID, scope int64, balance int) {
	if s.boards == nil {
		return
	}
	s.boards.UpdateAllPeriods(ctx, leaderboard.CategoryPoints, domain.GlobalScopeID, userID, float64(balance))
	if scope != domain.GlobalScopeID {
		s.boards.UpdateAllPeriods(ctx, leaderboard.CategoryPoints, scope, userID, float64(balance))
	}
}
