package catalog

import (
	"errors"
	"fmt"
	"sync"
)

// BookmarkID and ProfileID are opaque, monotonically-issued arena handles
// (spec.md §3.1). ScanEntry carries these instead of raw references so a
// concurrent catalog edit can never leave a dangling pointer in flight.
type BookmarkID uint64
type ProfileID uint64

var (
	ErrNameExists     = errors.New("catalog: bookmark name already exists")
	ErrNotFound       = errors.New("catalog: bookmark not found")
	ErrInvalidListName = errors.New("catalog: unknown list")
)

// InvalidBookmarkError reports a bookmark that failed validation; the
// caller is expected to skip it and continue (spec.md §7).
type InvalidBookmarkError struct {
	ListName, Name string
	Err            error
}

func (e *InvalidBookmarkError) Error() string {
	return fmt.Sprintf("catalog: bookmark %q/%q invalid: %v", e.ListName, e.Name, e.Err)
}
func (e *InvalidBookmarkError) Unwrap() error { return e.Err }

type entry struct {
	id        BookmarkID
	profileID ProfileID // 0 when no profile
	bookmark  Bookmark
	seq       uint64 // insertion order, for stable sort
}

// BookmarkList is a named mapping of bookmark-name to Bookmark, with a
// waterfall-overlay flag (spec.md §3).
type BookmarkList struct {
	ShowOnWaterfall bool

	byName map[string]*entry
}

func newBookmarkList() *BookmarkList {
	return &BookmarkList{byName: make(map[string]*entry)}
}

// Catalog owns the top-level map of named BookmarkLists plus the arena of
// bookmark/profile IDs handed out to ScanEntry (spec.md §3.1).
//
// Mutations acquire mu exclusively; readers (the scan-list builder, the
// name cache) take it for the duration of a single lookup only, matching
// the teacher's store.BandStore RWMutex-guarded map.
type Catalog struct {
	mu sync.RWMutex

	lists        map[string]*BookmarkList
	selectedList string

	nextID    uint64
	byBookmarkID map[BookmarkID]*entry
	byProfileID  map[ProfileID]*TuningProfile
	nextSeq      uint64

	dirty     bool
	onDirty   []func()
}

// New returns an empty Catalog with no lists.
func New() *Catalog {
	return &Catalog{
		lists:        make(map[string]*BookmarkList),
		byBookmarkID: make(map[BookmarkID]*entry),
		byProfileID:  make(map[ProfileID]*TuningProfile),
	}
}

// OnDirty registers a callback invoked (outside the lock) whenever a
// mutation sets scanListDirty. The name cache subscribes to force its
// next rebuild; the scan-list builder instead polls Dirty() on each Get.
func (c *Catalog) OnDirty(fn func()) {
	c.mu.Lock()
	c.onDirty = append(c.onDirty, fn)
	c.mu.Unlock()
}

func (c *Catalog) markDirtyLocked() {
	c.dirty = true
}

func (c *Catalog) notifyDirty() {
	c.mu.RLock()
	hooks := append([]func(){}, c.onDirty...)
	c.mu.RUnlock()
	for _, h := range hooks {
		h()
	}
}

// Dirty reports whether the catalog has changed since the last successful
// scan-list rebuild (spec.md §3's scanListDirty flag).
func (c *Catalog) Dirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}

func (c *Catalog) clearDirty() {
	c.mu.Lock()
	c.dirty = false
	c.mu.Unlock()
}

// EnsureList creates list if it does not already exist.
func (c *Catalog) EnsureList(listName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.lists[listName]; !ok {
		c.lists[listName] = newBookmarkList()
		if c.selectedList == "" {
			c.selectedList = listName
		}
	}
}

// SelectList marks listName as the selected list for editing/scanning.
func (c *Catalog) SelectList(listName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.lists[listName]; !ok {
		return ErrInvalidListName
	}
	c.selectedList = listName
	return nil
}

// SelectedList returns the currently selected list name.
func (c *Catalog) SelectedList() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selectedList
}

// SetShowOnWaterfall toggles the waterfall-overlay flag for a list.
func (c *Catalog) SetShowOnWaterfall(listName string, show bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.lists[listName]
	if !ok {
		return ErrInvalidListName
	}
	l.ShowOnWaterfall = show
	return nil
}

// AddBookmark validates and inserts bm under name in listName.
func (c *Catalog) AddBookmark(listName, name string, bm Bookmark) error {
	if err := bm.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	l, ok := c.lists[listName]
	if !ok {
		l = newBookmarkList()
		c.lists[listName] = l
		if c.selectedList == "" {
			c.selectedList = listName
		}
	}
	if _, exists := l.byName[name]; exists {
		c.mu.Unlock()
		return ErrNameExists
	}
	e := c.newEntryLocked(bm)
	l.byName[name] = e
	c.markDirtyLocked()
	c.mu.Unlock()
	c.notifyDirty()
	return nil
}

// newEntryLocked issues fresh arena IDs for bm and indexes it. Caller must
// hold c.mu for writing.
func (c *Catalog) newEntryLocked(bm Bookmark) *entry {
	c.nextID++
	id := BookmarkID(c.nextID)
	var pid ProfileID
	if bm.Profile != nil {
		c.nextID++
		pid = ProfileID(c.nextID)
		p := *bm.Profile
		c.byProfileID[pid] = &p
	}
	c.nextSeq++
	e := &entry{id: id, profileID: pid, bookmark: bm, seq: c.nextSeq}
	c.byBookmarkID[id] = e
	return e
}

// UpdateBookmark replaces the bookmark stored under name, dropping its
// old bookmark and profile arena IDs and issuing fresh ones, so
// previously-issued ScanEntries referencing the old IDs fail lookup
// (their IDs no longer resolve, per spec.md §3.1) rather than silently
// reading stale data.
func (c *Catalog) UpdateBookmark(listName, name string, bm Bookmark) error {
	if err := bm.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	l, ok := c.lists[listName]
	if !ok {
		c.mu.Unlock()
		return ErrInvalidListName
	}
	old, ok := l.byName[name]
	if !ok {
		c.mu.Unlock()
		return ErrNotFound
	}
	delete(c.byBookmarkID, old.id)
	if old.profileID != 0 {
		delete(c.byProfileID, old.profileID)
	}
	e := c.newEntryLocked(bm)
	l.byName[name] = e
	c.markDirtyLocked()
	c.mu.Unlock()
	c.notifyDirty()
	return nil
}

// RemoveBookmark deletes name from listName. Idempotent: removing an
// absent bookmark is not an error.
func (c *Catalog) RemoveBookmark(listName, name string) {
	c.mu.Lock()
	l, ok := c.lists[listName]
	if !ok {
		c.mu.Unlock()
		return
	}
	e, ok := l.byName[name]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(l.byName, name)
	delete(c.byBookmarkID, e.id)
	if e.profileID != 0 {
		delete(c.byProfileID, e.profileID)
	}
	c.markDirtyLocked()
	c.mu.Unlock()
	c.notifyDirty()
}

// SetScannable toggles the scannable flag on an existing bookmark.
func (c *Catalog) SetScannable(listName, name string, scannable bool) error {
	c.mu.Lock()
	l, ok := c.lists[listName]
	if !ok {
		c.mu.Unlock()
		return ErrInvalidListName
	}
	e, ok := l.byName[name]
	if !ok {
		c.mu.Unlock()
		return ErrNotFound
	}
	e.bookmark.Scannable = scannable
	c.markDirtyLocked()
	c.mu.Unlock()
	c.notifyDirty()
	return nil
}

// LookupBookmark dereferences a BookmarkID, returning ok=false if the
// bookmark has since been removed or replaced (spec.md §3.1).
func (c *Catalog) LookupBookmark(id BookmarkID) (Bookmark, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byBookmarkID[id]
	if !ok {
		return Bookmark{}, false
	}
	return e.bookmark, true
}

// LookupProfile dereferences a ProfileID, returning ok=false if stale.
func (c *Catalog) LookupProfile(id ProfileID) (TuningProfile, bool) {
	if id == 0 {
		return TuningProfile{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byProfileID[id]
	if !ok {
		return TuningProfile{}, false
	}
	return *p, true
}

// Lists returns the names of all bookmark lists.
func (c *Catalog) Lists() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.lists))
	for n := range c.lists {
		names = append(names, n)
	}
	return names
}

// BookmarkNames returns all bookmark names within listName.
func (c *Catalog) BookmarkNames(listName string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.lists[listName]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(l.byName))
	for n := range l.byName {
		names = append(names, n)
	}
	return names
}

// GetBookmark returns a copy of the named bookmark.
func (c *Catalog) GetBookmark(listName, name string) (Bookmark, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.lists[listName]
	if !ok {
		return Bookmark{}, false
	}
	e, ok := l.byName[name]
	if !ok {
		return Bookmark{}, false
	}
	return e.bookmark, true
}

// WaterfallLists returns the names of all lists with ShowOnWaterfall set.
func (c *Catalog) WaterfallLists() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	for n, l := range c.lists {
		if l.ShowOnWaterfall {
			out = append(out, n)
		}
	}
	return out
}
