package catalog

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// ScanEntry is a flattened, immutable view row for the scan engine
// (spec.md §3). BookmarkID/ProfileID are arena handles, not pointers;
// dereference them through Catalog.LookupBookmark/LookupProfile at use
// time (§3.1) so a concurrent catalog edit degrades to a skipped
// iteration rather than a dangling reference.
type ScanEntry struct {
	FrequencyHz float64
	BookmarkID  BookmarkID
	ProfileID   ProfileID // 0 when the bookmark has no profile
	FromBand    bool
	BookmarkName string

	seq uint64 // insertion order of the owning bookmark, tie-break only
}

// scanListCacheTTL is how long a built scan list is served without a
// rebuild in the absence of a catalog-dirty edit (spec.md §4.2).
const scanListCacheTTL = 5 * time.Second

// Builder materializes the sorted scan list for a Catalog's selected list
// (C2). It is the one place in the repository that uses a stdlib atomic
// pointer instead of a third-party structure — see DESIGN.md for why.
type Builder struct {
	cat *Catalog

	mu        sync.Mutex // serializes rebuilds
	published atomic.Pointer[[]ScanEntry]
	builtAt   time.Time
}

// NewBuilder wires a Builder to cat. Get checks the catalog's dirty flag
// on every call, so a pending rebuild is always forced on the next Get
// call after an edit, per spec.md's "forced rebuild on catalog-dirty".
func NewBuilder(cat *Catalog) *Builder {
	b := &Builder{cat: cat}
	empty := []ScanEntry{}
	b.published.Store(&empty)
	return b
}

// Get returns the current scan list, rebuilding it if the catalog is
// dirty or the cache has expired. The returned slice must not be
// mutated; it is shared with other readers (spec.md: "readers never
// block producers beyond the pointer swap").
func (b *Builder) Get() []ScanEntry {
	if !b.cat.Dirty() && time.Since(b.snapTime()) < scanListCacheTTL {
		return *b.published.Load()
	}
	return b.rebuild()
}

func (b *Builder) snapTime() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.builtAt
}

func (b *Builder) rebuild() []ScanEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Re-check under the rebuild lock: another goroutine may have just
	// finished a rebuild while we were waiting.
	if !b.cat.Dirty() && time.Since(b.builtAt) < scanListCacheTTL {
		return *b.published.Load()
	}

	entries := buildEntries(b.cat)
	b.published.Store(&entries)
	b.builtAt = time.Now()
	b.cat.clearDirty()
	return entries
}

// ForceRebuild rebuilds unconditionally, used by the profile applier's
// corruption guard (spec.md §4.6: "Failure triggers a scan-list
// refresh").
func (b *Builder) ForceRebuild() []ScanEntry {
	b.mu.Lock()
	b.builtAt = time.Time{}
	b.mu.Unlock()
	b.cat.mu.Lock()
	b.cat.dirty = true
	b.cat.mu.Unlock()
	return b.rebuild()
}

func buildEntries(cat *Catalog) []ScanEntry {
	cat.mu.RLock()
	l, ok := cat.lists[cat.selectedList]
	if !ok {
		cat.mu.RUnlock()
		return []ScanEntry{}
	}
	// Snapshot entries while holding the read lock; expansion below
	// touches no further catalog state.
	type snap struct {
		name string
		e    *entry
	}
	snaps := make([]snap, 0, len(l.byName))
	for name, e := range l.byName {
		snaps = append(snaps, snap{name, e})
	}
	cat.mu.RUnlock()

	var out []ScanEntry
	for _, s := range snaps {
		bm := s.e.bookmark
		if !bm.Scannable {
			continue
		}
		switch bm.Kind {
		case KindFrequency:
			out = append(out, ScanEntry{
				FrequencyHz:  bm.FrequencyHz,
				BookmarkID:   s.e.id,
				ProfileID:    s.e.profileID,
				FromBand:     false,
				BookmarkName: s.name,
				seq:          s.e.seq,
			})
		case KindBand:
			n := bm.entryCount()
			for k := 0; k < n; k++ {
				f := bm.StartHz + float64(k)*bm.StepHz
				if f > bm.EndHz {
					break
				}
				out = append(out, ScanEntry{
					FrequencyHz:  f,
					BookmarkID:   s.e.id,
					ProfileID:    s.e.profileID,
					FromBand:     true,
					BookmarkName: s.name,
					seq:          s.e.seq,
				})
			}
		}
	}

	// Ties at the same frequency break on the owning bookmark's
	// insertion order (spec.md §4.2 step 5), not on the nondeterministic
	// map iteration order snapshotted above.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FrequencyHz != out[j].FrequencyHz {
			return out[i].FrequencyHz < out[j].FrequencyHz
		}
		return out[i].seq < out[j].seq
	})
	return out
}
