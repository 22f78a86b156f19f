package domain

import "time"

// UserState is the durable per-user economy row. Created lazily on first
// access and never destroyed.
type UserState struct {
	UserID            int64
	ActiveCharacterID string
	Points            int
	RollDay           string // YYYYMMDD, UTC
	RollUsed          int
	PityMythic        int
	PityLegendary     int
	InventoryUpgrades int
	UpdatedAt         time.Time
}

// CustomProfile is a user-authored character profile.
type CustomProfile struct {
	UserID      int64
	CharacterID string
	Name        string
	Prompt      string
	CreatedAt   time.Time
}

// Wallet is the durable points wallet. Balances and claim streak metadata
// are global per user.
type Wallet struct {
	UserID                int64
	Balance               int
	LastClaimDay          string // YYYYMMDD, UTC; empty if never claimed
	FirstClaimed          bool
	StreakSaved           int    // previous streak preserved for paid restore
	RestoreDeadlineDay    string // YYYYMMDD, last day the restore offer is valid
	UpdatedAt             time.Time
}

// ClaimStatus describes a user's daily-claim state for a single UTC day.
type ClaimStatus struct {
	ClaimedToday    bool
	NextClaimInSecs int
	Streak          int
}

// DailyClaimResult is returned by the daily claim operation.
type DailyClaimResult struct {
	Awarded            int
	Balance            int
	Streak             int
	ClaimedToday       bool
	NextClaimInSecs    int
	FirstBonusAwarded  int
	RestoreAvailable   bool
	RestoreCost        int
	RestoreToStreak    int
	RestoreDeadlineDay string
}
