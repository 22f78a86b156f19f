// Package leaderboard is the score-aggregation collaborator. Updates are
// fire-and-forget: the primary operation already succeeded by the time a
// score is propagated, so failures are logged and dropped.
package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vantari-labs/CompanionBot_Go/internal/domain"
	"github.com/vantari-labs/CompanionBot_Go/internal/logger"
)

// Score categories tracked by the core.
const (
	CategoryPoints          = "points"
	CategoryStreak          = "streak"
	CategoryCharacters      = "characters"
	CategoryCharacterStreak = "character_streak"
)

// Ranking periods.
const (
	PeriodAlltime = "alltime"
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// Service publishes score updates.
type Service interface {
	// UpdateAllPeriods sets the user's score in every period ranking for a
	// category and scope. Best-effort; never returns an error.
	UpdateAllPeriods(ctx context.Context, category string, scope int64, userID int64, value float64)
}

// Redis stores rankings in sorted sets, one per (category, scope, period).
// Period sets are stamped so daily/weekly/monthly boards roll over naturally.
type Redis struct {
	client  *redis.Client
	nowFunc func() time.Time
}

// NewRedis creates a redis-backed leaderboard service.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, nowFunc: time.Now}
}

func (l *Redis) UpdateAllPeriods(ctx context.Context, category string, scope int64, userID int64, value float64) {
	now := l.nowFunc().UTC()
	member := fmt.Sprintf("%d", userID)
	for _, key := range periodKeys(category, scope, now) {
		if err := l.client.ZAdd(ctx, key, redis.Z{Score: value, Member: member}).Err(); err != nil {
			logger.FromContext(ctx).Debug("Leaderboard update dropped",
				"key", key, "user_id", userID, "error", err)
			return
		}
	}
}

// Top returns the highest-scored user ids for a board, best first.
func (l *Redis) Top(ctx context.Context, category string, scope int64, period string, limit int) ([]int64, error) {
	now := l.nowFunc().UTC()
	key := boardKey(category, scope, period, now)
	members, err := l.client.ZRevRange(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard %s: %w", key, err)
	}
	out := make([]int64, 0, len(members))
	for _, m := range members {
		var id int64
		if _, err := fmt.Sscanf(m, "%d", &id); err == nil {
			out = append(out, id)
		}
	}
	return out, nil
}

func periodKeys(category string, scope int64, now time.Time) []string {
	return []string{
		boardKey(category, scope, PeriodAlltime, now),
		boardKey(category, scope, PeriodDaily, now),
		boardKey(category, scope, PeriodWeekly, now),
		boardKey(category, scope, PeriodMonthly, now),
	}
}

func boardKey(category string, scope int64, period string, now time.Time) string {
	scopePart := "global"
	if scope != domain.GlobalScopeID {
		scopePart = fmt.Sprintf("s%d", scope)
	}
	switch period {
	case PeriodDaily:
		return fmt.Sprintf("lb:%s:%s:daily:%s", category, scopePart, now.Format("20060102"))
	case PeriodWeekly:
		year, week := now.ISOWeek()
		return fmt.Sprintf("lb:%s:%s:weekly:%d%02d", category, scopePart, year, week)
	case PeriodMonthly:
		return fmt.Sprintf("lb:%s:%s:monthly:%s", category, scopePart, now.Format("200601"))
	default:
		return fmt.Sprintf("lb:%s:%s:alltime", category, scopePart)
	}
}

// Noop drops every update. Used where no leaderboard backend is configured.
type Noop struct{}

func (Noop) UpdateAllPeriods(context.Context, string, int64, int64, float64) {}
