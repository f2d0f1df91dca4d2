package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportCSVFrequencyAndBandRows(t *testing.T) {
	input := strings.Join([]string{
		"# comment line, should be skipped",
		"146520000;Simplex;0;12500;1",
		"band;2m Band;144000000;148000000;25000;ham,vhf",
	}, "\n")

	c := New()
	res, err := c.ImportCSV("default", strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Empty(t, res.Skipped)

	bm, ok := c.GetBookmark("default", "Simplex")
	require.True(t, ok)
	assert.Equal(t, 146520000.0, bm.FrequencyHz)
	assert.True(t, bm.Scannable)

	band, ok := c.GetBookmark("default", "2m Band")
	require.True(t, ok)
	assert.Equal(t, []string{"ham", "vhf"}, band.Tags)
}

func TestImportCSVSkipsInvalidRowsIndependently(t *testing.T) {
	input := "0;Zero;0;12500\n146520000;Good;0;12500;1\n"
	c := New()
	res, err := c.ImportCSV("default", strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "Zero", res.Skipped[0])
}

func TestExportImportRoundTrip(t *testing.T) {
	c := New()
	require.NoError(t, c.AddBookmark("default", "Repeater", Bookmark{
		Kind: KindFrequency, FrequencyHz: 146940000, NominalBWHz: 12500,
		NominalMode: ModeNFM, Scannable: true,
		Profile: &TuningProfile{DemodMode: ModeNFM, BandwidthHz: 12500, SquelchOn: true, SquelchDB: -30, RFGainDB: 20},
	}))

	var buf strings.Builder
	require.NoError(t, c.ExportCSV(&buf, "default", []string{"Repeater"}))

	c2 := New()
	res, err := c2.ImportCSV("default", strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)

	got, ok := c2.GetBookmark("default", "Repeater")
	require.True(t, ok)
	assert.Equal(t, 146940000.0, got.FrequencyHz)
	require.NotNil(t, got.Profile)
	assert.True(t, got.Profile.SquelchOn)
	assert.Equal(t, -30.0, got.Profile.SquelchDB)
}
