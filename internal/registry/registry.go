// Package registry defines the content-registry collaborator: the catalog of
// character definitions and pack payloads the economy core rolls, sells and
// grants from. The core treats definitions as opaque beyond id, display name,
// rarity and price.
package registry

import (
	"context"
	"sync"

	"github.com/vantari-labs/CompanionBot_Go/internal/domain"
)

// Registry is the read side of the character catalog.
type Registry interface {
	// GetCharacter returns the definition for a (normalized) id.
	GetCharacter(id string) (*domain.Character, bool)

	// IsBaseID reports whether id is a synthetic base character. Base
	// characters are always owned, never counted toward capacity and never
	// removable.
	IsBaseID(id string) bool

	// MergePack folds a pack payload into the runtime catalog and returns
	// the number of definitions added or replaced.
	MergePack(pack domain.ContentPack) int
}

// PackSource lists custom content packs from external pack storage. Used for
// the lazy merge path when a granted id is not in the runtime catalog yet.
type PackSource interface {
	ListCustomPacks(ctx context.Context, limit int, includeInternal, includeShopOnly bool) ([]domain.ContentPack, error)
}

// PrimaryBaseID is the default character every account starts on. Grant
// paths reject it outright; the wider base set is enforced on removal.
const PrimaryBaseID = "fun"

// defaultBaseIDs are the built-in characters every user implicitly owns.
var defaultBaseIDs = []string{PrimaryBaseID, "serious"}

// BaseIDs returns the synthetic base character ids.
func BaseIDs() []string {
	out := make([]string, len(defaultBaseIDs))
	copy(out, defaultBaseIDs)
	return out
}

// InMemory is a mutex-guarded catalog suitable for a single process. Packs
// merged at runtime overlay the definitions loaded at startup.
type InMemory struct {
	mu      sync.RWMutex
	chars   map[string]domain.Character
	baseIDs map[string]bool
}

// NewInMemory builds a catalog from the given definitions.
func NewInMemory(chars ...domain.Character) *InMemory {
	r := &InMemory{
		chars:   make(map[string]domain.Character),
		baseIDs: make(map[string]bool),
	}
	for _, id := range defaultBaseIDs {
		r.baseIDs[id] = true
	}
	for _, c := range chars {
		if id := domain.NormalizeID(c.ID); id != "" {
			c.ID = id
			r.chars[id] = c
		}
	}
	return r
}

func (r *InMemory) GetCharacter(id string) (*domain.Character, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.chars[domain.NormalizeID(id)]
	if !ok {
		return nil, false
	}
	return &c, true
}

func (r *InMemory) IsBaseID(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.baseIDs[domain.NormalizeID(id)]
}

func (r *InMemory) MergePack(pack domain.ContentPack) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	merged := 0
	for _, c := range pack.Characters {
		id := domain.NormalizeID(c.ID)
		if id == "" {
			continue
		}
		c.ID = id
		if c.PackID == "" {
			c.PackID = pack.PackID
		}
		r.chars[id] = c
		merged++
	}
	return merged
}
