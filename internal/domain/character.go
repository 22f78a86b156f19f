package domain

// Rarity is an opaque rarity label from the content registry. The core only
// distinguishes the high-rarity set for pity bookkeeping.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
	RarityMythic    Rarity = "mythic"
)

// highRarities also carries legacy aliases seen in older pack payloads.
var highRarities = map[string]bool{
	"5":         true,
	"5star":     true,
	"5★":        true,
	"legendary": true,
	"mythic":    true,
	"ssr":       true,
	"ur":        true,
}

// IsHighRarity reports whether a rolled rarity resets pity.
func IsHighRarity(r string) bool {
	return highRarities[NormalizeID(r)]
}

// Character is a registry character definition as far as the core needs it.
// Content fields (persona, art, voice) live with the registry collaborator.
type Character struct {
	ID          string
	DisplayName string
	Rarity      Rarity
	CostPoints  int
	PackID      string
}

// ContentPack is a pack payload that can be merged into the registry.
type ContentPack struct {
	PackID     string
	Characters []Character
}
