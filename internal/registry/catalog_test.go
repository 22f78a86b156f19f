package registry_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantari-labs/CompanionBot_Go/internal/registry"
)

func TestLoadCatalogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	payload := `[
		{"id": "Luna", "display_name": "Luna", "rarity": "Legendary", "cost_points": 800},
		{"id": "rex", "display_name": "Rex", "rarity": "common", "cost_points": 100}
	]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	catalog, err := registry.LoadCatalogFile(path)
	require.NoError(t, err)

	c, ok := catalog.GetCharacter("LUNA")
	require.True(t, ok)
	assert.Equal(t, "luna", c.ID)
	assert.Equal(t, "legendary", string(c.Rarity))
	assert.Equal(t, 800, c.CostPoints)

	_, ok = catalog.GetCharacter("nobody")
	assert.False(t, ok)
}

func TestLoadCatalogFile_EmptyPath(t *testing.T) {
	catalog, err := registry.LoadCatalogFile("")
	require.NoError(t, err)
	assert.True(t, catalog.IsBaseID("fun"))
}

func TestDirPackSource_FiltersInternalAndShopOnly(t *testing.T) {
	dir := t.TempDir()
	write := func(name, payload string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(payload), 0o644))
	}
	write("public.json", `{"pack_id": "public", "characters": [{"id": "nova"}]}`)
	write("internal.json", `{"pack_id": "secret", "internal": true, "characters": [{"id": "comet"}]}`)
	write("shop.json", `{"pack_id": "shop", "shop_only": true, "characters": [{"id": "vega"}]}`)
	write("notes.txt", "not a pack")

	src := registry.NewDirPackSource(dir)

	packs, err := src.ListCustomPacks(context.Background(), 10, false, false)
	require.NoError(t, err)
	require.Len(t, packs, 1)
	assert.Equal(t, "public", packs[0].PackID)

	packs, err = src.ListCustomPacks(context.Background(), 10, true, true)
	require.NoError(t, err)
	assert.Len(t, packs, 3)
}

func TestDirPackSource_MissingDir(t *testing.T) {
	src := registry.NewDirPackSource(filepath.Join(t.TempDir(), "absent"))

	packs, err := src.ListCustomPacks(context.Background(), 10, true, true)
	require.NoError(t, err)
	assert.Empty(t, packs)
}
