package domain

// Tier identifiers returned by the billing collaborator
const (
	TierFree = "free"
	TierPro  = "pro"
)

// Roll allowance caps per tier
const (
	RollsPerDayFree = 1
	RollsPerDayPro  = 3
)

// Inventory capacity
const (
	BaseSlotsFree = 3
	BaseSlotsPro  = 10

	// SlotsPerUpgrade is the capacity added by one purchased inventory upgrade
	SlotsPerUpgrade = 5
)

// Pity counters
const (
	// PityGuaranteeThreshold is the consecutive non-high-rarity roll count
	// at which the legacy shadow state flips guaranteed_next on
	PityGuaranteeThreshold = 60

	// PityLegendaryCap and PityMythicCap bound the authoritative counters
	PityLegendaryCap = 99
	PityMythicCap    = 999
)

// GlobalScopeID is the community scope meaning "all communities".
// Leaderboard updates always target this scope; a concrete community
// scope is updated in addition when one is supplied.
const GlobalScopeID = int64(0)

// DayStampLayout is the calendar-day stamp format (UTC) used throughout
// the streak and allowance state.
const DayStampLayout = "20060102"
