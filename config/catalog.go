// Package config persists the Catalog and Scanner documents (spec.md
// §6) as TOML, grounded on LeoCommon-client's pkg/config open-decode-
// close shape but swapped to github.com/pelletier/go-toml/v2 (already
// a LeoCommon-client dependency for its own internal/client/config
// tree) since the persisted shape here is logical, not byte-exact.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ProfileRecord is the TOML projection of a TuningProfile.
type ProfileRecord struct {
	Mode       string  `toml:"mode"`
	BandwidthHz float64 `toml:"bandwidth_hz"`
	SquelchOn  bool    `toml:"squelch_on"`
	SquelchDB  float64 `toml:"squelch_db"`
	Deemphasis string  `toml:"deemphasis"`
	AGCOn      bool    `toml:"agc_on"`
	RFGainDB   float64 `toml:"rf_gain_db"`
	CenterOffsHz float64 `toml:"center_offset_hz"`
}

// BookmarkRecord is the TOML projection of a catalog.Bookmark.
type BookmarkRecord struct {
	Frequency float64        `toml:"frequency,omitempty"`
	Bandwidth float64        `toml:"bandwidth,omitempty"`
	Mode      string         `toml:"mode,omitempty"`
	IsBand    bool           `toml:"is_band"`
	StartFreq float64        `toml:"start_freq,omitempty"`
	EndFreq   float64        `toml:"end_freq,omitempty"`
	StepFreq  float64        `toml:"step_freq,omitempty"`
	Notes     string         `toml:"notes,omitempty"`
	Tags      []string       `toml:"tags,omitempty"`
	Scannable bool           `toml:"scannable"`
	Profile   *ProfileRecord `toml:"profile,omitempty"`
}

// ListRecord is one named list within a Catalog document.
type ListRecord struct {
	ShowOnWaterfall bool                      `toml:"show_on_waterfall"`
	Bookmarks       map[string]BookmarkRecord `toml:"bookmarks"`
}

// CatalogDocument is the persisted Catalog shape (spec.md §6).
type CatalogDocument struct {
	SelectedList        string                `toml:"selected_list"`
	BookmarkDisplayMode string                `toml:"bookmark_display_mode"`
	Lists                map[string]ListRecord `toml:"lists"`
}

func LoadCatalog(path string) (*CatalogDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc := &CatalogDocument{}
	dec := toml.NewDecoder(f)
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("config: decode catalog: %w", err)
	}
	return doc, nil
}

func SaveCatalog(path string, doc *CatalogDocument) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("config: encode catalog: %w", err)
	}
	return nil
}
