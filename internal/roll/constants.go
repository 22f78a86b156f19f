package roll

import "time"

// Cache key prefixes. All allowance state shares the "char:" namespace the
// rest of the ephemeral keys use.
const (
	windowKeyPrefix    = "char:roll_window:"
	bonusKeyPrefix     = "char:bonus_rolls:"
	onboardedKeyPrefix = "char:onboarded:"
	pityShadowPrefix   = "char:pity:"
)

const (
	// DefaultBonusTTL bounds ordinary bonus-roll grants.
	DefaultBonusTTL = 7 * 24 * time.Hour

	// OnboardingBonusTTL gives the one-time welcome roll a longer shelf life.
	OnboardingBonusTTL = 30 * 24 * time.Hour

	// onboardedMarkerTTL keeps the once-only marker long enough that a
	// returning user never double-claims, while still bounding the cache.
	onboardedMarkerTTL = 365 * 24 * time.Hour

	// pityShadowTTL expires the legacy pity blob for inactive users.
	pityShadowTTL = 30 * 24 * time.Hour

	// windowSlackTTL pads the window record's expiry past the window itself
	// so a reconnecting client still sees its used count.
	windowSlackTTL = 24 * time.Hour
)
