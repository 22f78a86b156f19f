package domain

// NotificationKind identifies the semantic payload of a direct notification.
// Rendering is the dispatcher's concern; the core only names the event and
// supplies its parameters.
type NotificationKind string

const (
	NotifyDailyReminder NotificationKind = "daily_reminder"
	NotifyDailyWarning  NotificationKind = "daily_warning"
	NotifyDailyEnded    NotificationKind = "daily_ended"
	NotifyTalkReminder  NotificationKind = "talk_reminder"
	NotifyTalkWarning   NotificationKind = "talk_warning"
	NotifyTalkEnded     NotificationKind = "talk_ended"
)

// EnrichmentStage names the escalation step for in-character notifications.
type EnrichmentStage string

const (
	StageReminder  EnrichmentStage = "reminder"
	StageWarning8h EnrichmentStage = "warning8h"
	StageWarning1h EnrichmentStage = "warning1h"
)

// AtRiskCharacter is one character whose talk streak needs attention today.
type AtRiskCharacter struct {
	CharacterID string
	DisplayName string
	Streak      int
}
