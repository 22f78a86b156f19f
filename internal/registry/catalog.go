package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vantari-labs/CompanionBot_Go/internal/domain"
)

// characterFile is the on-disk shape of a catalog or pack entry.
type characterFile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Rarity      string `json:"rarity"`
	CostPoints  int    `json:"cost_points"`
	PackID      string `json:"pack_id,omitempty"`
}

type packFile struct {
	PackID     string          `json:"pack_id"`
	Internal   bool            `json:"internal,omitempty"`
	ShopOnly   bool            `json:"shop_only,omitempty"`
	Characters []characterFile `json:"characters"`
}

func (c characterFile) toDomain() domain.Character {
	return domain.Character{
		ID:          c.ID,
		DisplayName: c.DisplayName,
		Rarity:      domain.Rarity(domain.NormalizeID(c.Rarity)),
		CostPoints:  c.CostPoints,
		PackID:      c.PackID,
	}
}

// LoadCatalogFile reads a JSON array of character definitions and builds the
// runtime catalog. An empty path yields an empty catalog (base characters
// only).
func LoadCatalogFile(path string) (*InMemory, error) {
	if path == "" {
		return NewInMemory(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var entries []characterFile
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	chars := make([]domain.Character, 0, len(entries))
	for _, e := range entries {
		chars = append(chars, e.toDomain())
	}
	return NewInMemory(chars...), nil
}

// DirPackSource serves content packs from a directory of JSON files, one
// pack per file. It stands in for external pack storage in single-node
// deployments.
type DirPackSource struct {
	dir string
}

func NewDirPackSource(dir string) *DirPackSource {
	return &DirPackSource{dir: dir}
}

func (s *DirPackSource) ListCustomPacks(_ context.Context, limit int, includeInternal, includeShopOnly bool) ([]domain.ContentPack, error) {
	if s.dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list packs %s: %w", s.dir, err)
	}

	var packs []domain.ContentPack
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if limit > 0 && len(packs) >= limit {
			break
		}

		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read pack %s: %w", path, err)
		}

		var pf packFile
		if err := json.Unmarshal(data, &pf); err != nil {
			return nil, fmt.Errorf("parse pack %s: %w", path, err)
		}
		if pf.Internal && !includeInternal {
			continue
		}
		if pf.ShopOnly && !includeShopOnly {
			continue
		}

		pack := domain.ContentPack{PackID: pf.PackID}
		for _, c := range pf.Characters {
			pack.Characters = append(pack.Characters, c.toDomain())
		}
		packs = append(packs, pack)
	}
	return packs, nil
}
