package catalog

import (
	"fmt"
	"sync"
)

// NameFrequencyTolerance is the default radius for exact single-frequency
// name matches in GetBookmarkName (spec.md §6).
const NameFrequencyTolerance = 1000.0

// GetBookmarkName resolves a display name for hz against the catalog's
// selected list: (1) an exact single-frequency bookmark within tolerance,
// (2) the name of a containing band suffixed "[Band]", (3) "" (spec.md
// §6, §9).
func GetBookmarkName(cat *Catalog, hz float64) string {
	cat.mu.RLock()
	defer cat.mu.RUnlock()
	l, ok := cat.lists[cat.selectedList]
	if !ok {
		return ""
	}
	for name, e := range l.byName {
		bm := e.bookmark
		if bm.Kind == KindFrequency && absDiff(bm.FrequencyHz, hz) < NameFrequencyTolerance {
			return name
		}
	}
	for name, e := range l.byName {
		bm := e.bookmark
		if bm.Kind == KindBand && hz >= bm.StartHz && hz <= bm.EndHz {
			return fmt.Sprintf("%s [Band]", name)
		}
	}
	return ""
}

// NameCache memoizes GetBookmarkName lookups, invalidated on any catalog
// or blacklist edit (spec.md §4.3).
type NameCache struct {
	cat *Catalog

	mu    sync.Mutex
	names map[float64]string
}

// NewNameCache wires a NameCache to cat, and optionally to a Blacklist so
// blacklist edits also invalidate it (spec.md: "Any catalog edit or
// blacklist edit clears the cache").
func NewNameCache(cat *Catalog, bl *Blacklist) *NameCache {
	nc := &NameCache{cat: cat, names: make(map[float64]string)}
	cat.OnDirty(nc.invalidate)
	if bl != nil {
		bl.OnEdit(nc.invalidate)
	}
	return nc
}

func (nc *NameCache) invalidate() {
	nc.mu.Lock()
	nc.names = make(map[float64]string)
	nc.mu.Unlock()
}

// Lookup returns the cached (or freshly resolved) display name for hz.
func (nc *NameCache) Lookup(hz float64) string {
	nc.mu.Lock()
	if name, ok := nc.names[hz]; ok {
		nc.mu.Unlock()
		return name
	}
	nc.mu.Unlock()

	name := GetBookmarkName(nc.cat, hz)

	nc.mu.Lock()
	nc.names[hz] = name
	nc.mu.Unlock()
	return name
}
