package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddBookmarkDuplicateName(t *testing.T) {
	c := New()
	bm := Bookmark{Kind: KindFrequency, FrequencyHz: 100, Scannable: true}
	require.NoError(t, c.AddBookmark("default", "repeater", bm))
	assert.ErrorIs(t, c.AddBookmark("default", "repeater", bm), ErrNameExists)
}

func TestAddBookmarkRejectsInvalid(t *testing.T) {
	c := New()
	bad := Bookmark{Kind: KindFrequency, FrequencyHz: 0}
	assert.ErrorIs(t, c.AddBookmark("default", "x", bad), ErrInvalidFrequency)
}

func TestAddBookmarkIssuesArenaIDs(t *testing.T) {
	c := New()
	bm := Bookmark{
		Kind:        KindFrequency,
		FrequencyHz: 146520000,
		Scannable:   true,
		Profile:     &TuningProfile{DemodMode: ModeNFM, BandwidthHz: 12500, RFGainDB: 20},
	}
	require.NoError(t, c.AddBookmark("default", "repeater", bm))

	got, ok := c.GetBookmark("default", "repeater")
	require.True(t, ok)
	assert.Equal(t, bm.FrequencyHz, got.FrequencyHz)

	c.mu.Lock()
	e := c.lists["default"].byName["repeater"]
	id, pid := e.id, e.profileID
	c.mu.Unlock()
	_, ok = c.LookupBookmark(id)
	assert.True(t, ok)
	p, ok := c.LookupProfile(pid)
	assert.True(t, ok)
	assert.Equal(t, ModeNFM, p.DemodMode)
}

func TestUpdateBookmarkInvalidatesOldArenaIDs(t *testing.T) {
	c := New()
	profile := &TuningProfile{DemodMode: ModeNFM, BandwidthHz: 12500, RFGainDB: 20}
	bm := Bookmark{Kind: KindFrequency, FrequencyHz: 146520000, Scannable: true, Profile: profile}
	require.NoError(t, c.AddBookmark("default", "repeater", bm))

	var oldID BookmarkID
	var oldProfileID ProfileID
	c.mu.RLock()
	e := c.lists["default"].byName["repeater"]
	oldID, oldProfileID = e.id, e.profileID
	c.mu.RUnlock()

	updated := Bookmark{Kind: KindFrequency, FrequencyHz: 146600000, Scannable: true}
	require.NoError(t, c.UpdateBookmark("default", "repeater", updated))

	_, ok := c.LookupBookmark(oldID)
	assert.False(t, ok)
	_, ok = c.LookupProfile(oldProfileID)
	assert.False(t, ok)
}

func TestRemoveBookmarkIdempotent(t *testing.T) {
	c := New()
	c.EnsureList("default")
	c.RemoveBookmark("default", "nonexistent")
	c.RemoveBookmark("missing-list", "nonexistent")
}

func TestSetScannableRequiresExistingBookmark(t *testing.T) {
	c := New()
	c.EnsureList("default")
	assert.ErrorIs(t, c.SetScannable("default", "ghost", false), ErrNotFound)
}

func TestSelectListRejectsUnknown(t *testing.T) {
	c := New()
	assert.ErrorIs(t, c.SelectList("ghost"), ErrInvalidListName)
}

func TestWaterfallLists(t *testing.T) {
	c := New()
	c.EnsureList("a")
	c.EnsureList("b")
	require.NoError(t, c.SetShowOnWaterfall("a", true))
	assert.Equal(t, []string{"a"}, c.WaterfallLists())
}

func TestDirtyClearedAfterAcknowledgement(t *testing.T) {
	c := New()
	bm := Bookmark{Kind: KindFrequency, FrequencyHz: 100, Scannable: true}
	require.NoError(t, c.AddBookmark("default", "x", bm))
	assert.True(t, c.Dirty())
	c.clearDirty()
	assert.False(t, c.Dirty())
}
