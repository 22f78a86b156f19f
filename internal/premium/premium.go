// Package premium defines the tier/billing collaborator interface.
package premium

import (
	"context"

	"github.com/vantari-labs/CompanionBot_Go/internal/domain"
)

// TierProvider resolves a user's premium tier. Lookup failures should report
// the free tier rather than error; allowance math stays conservative.
type TierProvider interface {
	GetTier(ctx context.Context, userID int64) string
}

// Static is a fixed tier mapping, used for local runs and tests.
type Static struct {
	pro map[int64]bool
}

// NewStatic marks the given user ids as pro; everyone else is free.
func NewStatic(proUserIDs ...int64) *Static {
	pro := make(map[int64]bool, len(proUserIDs))
	for _, id := range proUserIDs {
		pro[id] = true
	}
	return &Static{pro: pro}
}

func (s *Static) GetTier(_ context.Context, userID int64) string {
	if s.pro[userID] {
		return domain.TierPro
	}
	return domain.TierFree
}
