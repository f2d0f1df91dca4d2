package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.toml")

	doc := &CatalogDocument{
		SelectedList:        "default",
		BookmarkDisplayMode: "frequency",
		Lists: map[string]ListRecord{
			"default": {
				ShowOnWaterfall: true,
				Bookmarks: map[string]BookmarkRecord{
					"repeater": {
						Frequency: 145500000,
						Bandwidth: 12500,
						Mode:      "NFM",
						Scannable: true,
						Profile: &ProfileRecord{
							Mode:      "NFM",
							SquelchOn: true,
							SquelchDB: -40,
						},
					},
					"fm-band": {
						IsBand:    true,
						StartFreq: 88000000,
						EndFreq:   108000000,
						StepFreq:  100000,
						Scannable: true,
					},
				},
			},
		},
	}

	require.NoError(t, SaveCatalog(path, doc))
	loaded, err := LoadCatalog(path)
	require.NoError(t, err)

	assert.Equal(t, doc.SelectedList, loaded.SelectedList)
	list := loaded.Lists["default"]
	assert.True(t, list.ShowOnWaterfall)
	assert.Equal(t, 145500000.0, list.Bookmarks["repeater"].Frequency)
	assert.True(t, list.Bookmarks["repeater"].Profile.SquelchOn)
	assert.True(t, list.Bookmarks["fm-band"].IsBand)
	assert.Equal(t, 100000.0, list.Bookmarks["fm-band"].StepFreq)
}

func TestLoadCatalogMissingFile(t *testing.T) {
	_, err := LoadCatalog("/nonexistent/catalog.toml")
	assert.Error(t, err)
}
