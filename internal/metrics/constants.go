package metrics

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Economy metric names
const (
	MetricNameRollsConsumed     = "rolls_consumed_total"
	MetricNameBonusRollsGranted = "bonus_rolls_granted_total"
	MetricNameDailyClaims       = "daily_claims_total"
	MetricNameStreakRestores    = "streak_restores_total"
	MetricNamePointsAwarded     = "points_awarded_total"
	MetricNamePointsSpent       = "points_spent_total"
	MetricNameCharactersAdded   = "characters_added_total"
	MetricNameCharactersRemoved = "characters_removed_total"
)

// Scheduler metric names
const (
	MetricNameNotificationsSent = "notifications_sent_total"
	MetricNameReminderTicks     = "reminder_ticks_total"
)

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Economy metric help text
const (
	HelpTextRollsConsumed     = "Total rolls consumed"
	HelpTextBonusRollsGranted = "Total bonus rolls granted"
	HelpTextDailyClaims       = "Total daily claims performed"
	HelpTextStreakRestores    = "Total paid streak restores"
	HelpTextPointsAwarded     = "Total points awarded"
	HelpTextPointsSpent       = "Total points spent"
	HelpTextCharactersAdded   = "Total characters added to collections"
	HelpTextCharactersRemoved = "Total characters removed from collections"
)

// Scheduler metric help text
const (
	HelpTextNotificationsSent = "Total reminder notifications sent"
	HelpTextReminderTicks     = "Total reminder scheduler ticks"
)

// Label names
const (
	LabelMethod = "method"
	LabelPath   = "path"
	LabelStatus = "status"
	LabelKind   = "kind"
)

// HTTPLatencyBuckets defines the histogram buckets for HTTP request duration
// in seconds, from 1ms to 10s.
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
