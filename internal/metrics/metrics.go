package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Economy Metrics
var (
	RollsConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameRollsConsumed,
			Help: HelpTextRollsConsumed,
		},
	)

	BonusRollsGranted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameBonusRollsGranted,
			Help: HelpTextBonusRollsGranted,
		},
	)

	DailyClaims = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameDailyClaims,
			Help: HelpTextDailyClaims,
		},
	)

	StreakRestores = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameStreakRestores,
			Help: HelpTextStreakRestores,
		},
	)

	PointsAwarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNamePointsAwarded,
			Help: HelpTextPointsAwarded,
		},
	)

	PointsSpent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNamePointsSpent,
			Help: HelpTextPointsSpent,
		},
	)

	CharactersAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameCharactersAdded,
			Help: HelpTextCharactersAdded,
		},
	)

	CharactersRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameCharactersRemoved,
			Help: HelpTextCharactersRemoved,
		},
	)
)

// Scheduler Metrics
var (
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameNotificationsSent,
			Help: HelpTextNotificationsSent,
		},
		[]string{LabelKind},
	)

	ReminderTicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameReminderTicks,
			Help: HelpTextReminderTicks,
		},
	)
)
