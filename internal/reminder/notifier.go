package reminder

import (
	"context"

	"github.com/vantari-labs/CompanionBot_Go/internal/domain"
	"github.com/vantari-labs/CompanionBot_Go/internal/logger"
)

// Notification is one direct message to a user. Characters is populated for
// the talk-streak kinds; HoursLeft only for warnings.
type Notification struct {
	UserID     int64
	Kind       domain.NotificationKind
	Streak     int
	HoursLeft  int
	Characters []domain.AtRiskCharacter
}

// Notifier delivers notifications to users. Implementations live at the
// transport edge (chat platform, push gateway). A return of
// domain.ErrNotificationForbidden means the recipient is unreachable, which
// is a normal outcome and never retried.
type Notifier interface {
	SendDirectNotification(ctx context.Context, n Notification) error
}

// CharacterVoice sends the Pro in-character follow-up message for a stage.
// Best effort only: failures and missing implementations are ignored.
type CharacterVoice interface {
	SendCharacterMessage(ctx context.Context, userID int64, characterID string, stage domain.EnrichmentStage, streak int) error
}

// LogNotifier writes each notification to the structured log instead of a
// chat transport. Used when no platform dispatcher is attached.
type LogNotifier struct{}

func (LogNotifier) SendDirectNotification(ctx context.Context, n Notification) error {
	logger.FromContext(ctx).Info("Notification dispatched",
		"user_id", n.UserID,
		"kind", string(n.Kind),
		"streak", n.Streak,
		"hours_left", n.HoursLeft,
		"characters", len(n.Characters))
	return nil
}
