package points

// Daily award schedule. Base plus a small per-day streak bonus (capped) plus
// milestone bumps, tuned for slow-but-steady free progression.
const (
	DailyBase          = 30
	StreakBonusPerDay  = 2
	StreakBonusCapDays = 10
	MilestoneWeek      = 20
	MilestoneWeekDays  = 7
	MilestoneTen       = 30
	MilestoneTenDays   = 10

	// FirstClaimBonus is a one-time welcome grant on the first ever claim.
	FirstClaimBonus = 100

	// RestoreCost is the price of continuing a recently broken streak.
	RestoreCost = 500

	// RestoreWindowDays is how long after a break the restore offer stands.
	RestoreWindowDays = 7
)

// Ledger reasons.
const (
	ReasonDailyClaim    = "daily_claim"
	ReasonStreakRestore = "streak_restore"
	ReasonSpend         = "spend"
	ReasonAdjust        = "adjust"
)
