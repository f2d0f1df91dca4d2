package engine

import (
	"fmt"
	"math"
)

const maxProfileBandwidthHz = 10_000_000.0

// Profile is the subset of catalog.TuningProfile the engine applier
// needs, decoupled from the catalog package so engine has no import
// cycle back to it.
type Profile struct {
	DemodMode    DemodMode
	BandwidthHz  float64
	SquelchOn    bool
	SquelchDB    float64
	Deemphasis   int
	AGCOn        bool
	RFGainDB     float64
	CenterOffsHz float64
}

// Validate enforces the corruption guard from spec.md §4.6: demodMode
// in [0,7], bandwidth in (0, 10MHz].
func (p Profile) Validate() error {
	if p.DemodMode < ModeNFM || p.DemodMode > ModeRAW {
		return &CorruptedProfileError{Reason: fmt.Sprintf("demod mode %d out of range", p.DemodMode)}
	}
	if p.BandwidthHz <= 0 || p.BandwidthHz > maxProfileBandwidthHz {
		return &CorruptedProfileError{Reason: fmt.Sprintf("bandwidth %.0f out of range", p.BandwidthHz)}
	}
	return nil
}

// applyKey is the idempotency cache key: (profile identity, vfo, freq
// bucketed to the nearest kHz) per spec.md §4.6 / invariant #7.
type applyKey struct {
	profileID uint64
	vfo       string
	freqBucket int64
}

func bucketFreq(hz float64) int64 {
	return int64(math.Round(hz / 1000))
}

// ProfileApplier applies a Profile to a Receiver's VFO, skipping
// redundant applies via an idempotency cache and refusing corrupted
// profiles (spec.md §4.6).
type ProfileApplier struct {
	rx    Receiver
	cache map[applyKey]struct{}

	onCorruption func()
}

// NewProfileApplier constructs an applier bound to rx. onCorruption is
// invoked (if non-nil) whenever Apply rejects a profile, so the engine
// can force a scan-list refresh (spec.md §4.6: "Failure triggers a
// scan-list refresh").
func NewProfileApplier(rx Receiver, onCorruption func()) *ProfileApplier {
	return &ProfileApplier{rx: rx, cache: make(map[applyKey]struct{}), onCorruption: onCorruption}
}

// Apply sets mode, bandwidth (clamped to vfoBandwidthHz per §9 Open
// Question #3), squelch (skipped while scanMuted), and RF gain on vfo
// for profileID/freq, short-circuiting if an identical (profileID,
// vfo, freq-bucket) triple was already applied.
func (a *ProfileApplier) Apply(profileID uint64, vfo string, freqHz float64, p Profile, vfoBandwidthHz float64, scanMuted bool) error {
	if err := p.Validate(); err != nil {
		if a.onCorruption != nil {
			a.onCorruption()
		}
		return err
	}

	key := applyKey{profileID, vfo, bucketFreq(freqHz)}
	if _, done := a.cache[key]; done {
		return nil
	}

	bw := p.BandwidthHz
	if vfoBandwidthHz > 0 && bw > vfoBandwidthHz {
		bw = vfoBandwidthHz
	}

	if err := a.rx.SetMode(vfo, p.DemodMode); err != nil {
		return err
	}
	if err := a.rx.SetBandwidth(vfo, bw); err != nil {
		return err
	}
	if !scanMuted {
		if err := a.rx.SetSquelchEnabled(vfo, p.SquelchOn); err != nil && err != ErrInterfaceMissing {
			return err
		}
		if err := a.rx.SetSquelchLevel(vfo, p.SquelchDB); err != nil && err != ErrInterfaceMissing {
			return err
		}
	}
	if p.RFGainDB >= 0 && p.RFGainDB <= 100 {
		if err := a.rx.SetGain(p.RFGainDB); err != nil && err != ErrInterfaceMissing {
			return err
		}
	}
	if agc, ok := a.rx.(OptionalAGC); ok {
		_ = agc.SetAGC(vfo, p.AGCOn)
	}
	if deemph, ok := a.rx.(OptionalDeemphasis); ok {
		_ = deemph.SetDeemphasis(vfo, p.Deemphasis)
	}

	a.cache[key] = struct{}{}
	return nil
}

// ResetCache clears the idempotency cache, used after a scan-list
// refresh invalidates previously-cached profile identities.
func (a *ProfileApplier) ResetCache() {
	a.cache = make(map[applyKey]struct{})
}
