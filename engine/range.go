package engine

// FrequencyRange is the legacy scan-bounds fallback used when the
// catalog's scan list is empty (spec.md §4.4 expansion, grounded on
// the original source's frequencyRanges[]/currentRangeIndex fields).
type FrequencyRange struct {
	Name     string
	StartHz  float64
	StopHz   float64
	Enabled  bool
}

// NewFrequencyRange normalizes Start/Stop so Start <= Stop, resolving
// spec.md §9 Open Question #1 ("scanUp with startFreq > stopFreq:
// swap silently") the same way radio.NewFreqRange takes unordered
// lo/hi bounds without validating order.
func NewFrequencyRange(name string, start, stop float64, enabled bool) FrequencyRange {
	if start > stop {
		start, stop = stop, start
	}
	return FrequencyRange{Name: name, StartHz: start, StopHz: stop, Enabled: enabled}
}

// nextEnabledRange advances idx to the next enabled range in ranges,
// wrapping the index itself (spec.md §4.4 expansion: "Wrapping past
// the end of one enabled range advances currentRangeIndex to the next
// enabled range"). Returns ok=false if no range is enabled.
func nextEnabledRange(ranges []FrequencyRange, idx int) (int, bool) {
	if len(ranges) == 0 {
		return 0, false
	}
	for i := 1; i <= len(ranges); i++ {
		next := (idx + i) % len(ranges)
		if ranges[next].Enabled {
			return next, true
		}
	}
	return 0, false
}

// firstEnabledRange returns the index of the first enabled range, or
// ok=false if none is enabled (spec.md §4.4: "if no ranges are
// enabled, start() returns NotReady").
func firstEnabledRange(ranges []FrequencyRange) (int, bool) {
	for i, r := range ranges {
		if r.Enabled {
			return i, true
		}
	}
	return 0, false
}
