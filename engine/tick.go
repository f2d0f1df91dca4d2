package engine

import (
	"os"
	"time"

	"github.com/chzchzchz/freqscan/catalog"
)

const centeringInterval = 100 * time.Millisecond

// aggressiveMuteSettle is the settling pause after an aggressive mute
// is applied across a profile/frequency change (spec.md §4.7 mechanism
// 3, §5 suspension point (c)).
const aggressiveMuteSettle = 5 * time.Millisecond

// tick executes one iteration of the main loop (spec.md §4.4 "Main
// loop (per tick)"). It acquires and releases the FFT frame before
// taking e.mu, then holds e.mu for the rest of the tick, including the
// radio calls and the aggressive-mute settling sleep (§5).
func (e *Engine) tick() error {
	bins, wfStart, wfWidth, err := e.fft.AcquireRawFFT()
	if err != nil {
		return ErrFFTUnavailable
	}
	frame := Frame{Bins: bins, WaterfallStartHz: wfStart, WaterfallWidthHz: wfWidth}
	e.fft.ReleaseRawFFT()
	if len(frame.Bins) == 0 {
		return ErrFFTUnavailable
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	cfg := e.cfg
	now := time.Now()

	// Sample the ambient level at the current frequency into the
	// noise-floor EMA (spec.md §4.7 mechanism 1's auto-delta input);
	// UpdateNoiseFloor itself suspends the update while RECEIVING.
	ambientWidth := detectionWidth(false, cfg.VFOBandwidthHz, cfg.PassbandRatio)
	e.squelch.UpdateNoiseFloor(frame.MaxLevel(e.state.currentHz, ambientWidth), e.state.state == StateReceiving, now)

	if e.state.state == StateTuning {
		if now.Sub(e.state.lastTuneAt) < cfg.tuningTime() {
			return nil
		}
		e.state.state = StateScanning
	}

	entries := e.builder.Get()

	if e.state.state == StateReceiving {
		return e.tickReceiving(frame, entries, cfg, now)
	}
	if len(entries) > 0 {
		return e.tickScanningList(frame, entries, cfg, now)
	}
	return e.tickScanningRange(frame, cfg, now)
}

func (e *Engine) currentScanEntry(entries []catalog.ScanEntry) (catalog.ScanEntry, bool) {
	if e.state.currentIndex < 0 || e.state.currentIndex >= len(entries) {
		return catalog.ScanEntry{}, false
	}
	return entries[e.state.currentIndex], true
}

func (e *Engine) profileFor(ent catalog.ScanEntry) (Profile, float64) {
	if ent.ProfileID == 0 {
		return Profile{DemodMode: ModeNFM, BandwidthHz: 12500}, 12500
	}
	p, ok := e.cat.LookupProfile(ent.ProfileID)
	if !ok {
		return Profile{DemodMode: ModeNFM, BandwidthHz: 12500}, 12500
	}
	return Profile{
		DemodMode:    DemodMode(p.DemodMode),
		BandwidthHz:  p.BandwidthHz,
		SquelchOn:    p.SquelchOn,
		SquelchDB:    p.SquelchDB,
		Deemphasis:   int(p.Deemphasis),
		AGCOn:        p.AGCOn,
		RFGainDB:     p.RFGainDB,
		CenterOffsHz: p.CenterOffsHz,
	}, p.BandwidthHz
}

// applyAggressiveMute briefly mutes the receiver across a profile or
// frequency change (spec.md §4.7 mechanism 3), settling for
// aggressiveMuteSettle before the caller proceeds to retune/relock.
// AggressiveMuteLevel itself refuses while RECEIVING, so this must be
// called before any state transition into StateReceiving, not after.
func (e *Engine) applyAggressiveMute(cfg Config) {
	lvl, ok := e.squelch.AggressiveMuteLevel(cfg.Squelch, e.state.state == StateReceiving)
	if !ok {
		return
	}
	if err := e.rx.SetSquelchLevel(e.vfo, lvl); err != nil {
		return
	}
	time.Sleep(aggressiveMuteSettle)
}

func (e *Engine) tickReceiving(frame Frame, entries []catalog.ScanEntry, cfg Config, now time.Time) error {
	ent, ok := e.currentScanEntry(entries)
	if !ok {
		e.state.state = StateScanning
		return nil
	}
	_, bw := e.profileFor(ent)
	width := detectionWidth(ent.FromBand, cfg.VFOBandwidthHz, cfg.PassbandRatio)
	level := frame.MaxLevel(e.state.currentHz, width)

	// Close threshold uses squelch-delta hysteresis (spec.md §4.7
	// mechanism 1) rather than the open-squelch level itself, so a
	// signal doesn't chatter in and out right at LevelDBFS.
	closeThreshold := e.squelch.CloseThreshold(cfg.LevelDBFS, cfg.Squelch)

	if level >= closeThreshold {
		e.state.lastSignalAt = now
		if now.Sub(e.state.lastCenteringAt) >= centeringInterval {
			e.state.lastCenteringAt = now
			bm, _ := e.cat.LookupBookmark(ent.BookmarkID)
			lo, hi := bm.StartHz, bm.EndHz
			if !ent.FromBand {
				lo, hi = ent.FrequencyHz-width, ent.FrequencyHz+width
			}
			centered := FindSignalPeakHighRes(frame, e.state.currentHz, bw, lo, hi, e.bl)
			if centered != e.state.currentHz {
				e.state.currentHz = centered
				_ = e.rx.Tune(e.vfo, centered)
			}
		}
		return nil
	}

	if now.Sub(e.state.lastSignalAt) >= cfg.LingerTime {
		e.state.state = StateScanning
		e.squelch.EnterScanning(cfg.Squelch)
		if e.state.recording == RecordingActive {
			filename, shouldDelete, err := e.recorder.Stop()
			e.state.recording = RecordingIdle
			if err != nil {
				e.log.Warnf("recording stop failed for %s: %v", filename, err)
			} else if shouldDelete {
				if rmErr := os.Remove(filename); rmErr != nil && !os.IsNotExist(rmErr) {
					e.log.Warnf("recording %s below min duration, delete failed: %v", filename, rmErr)
				} else {
					e.log.Infof("recording %s below min duration, deleted", filename)
				}
			}
		}
	}
	return nil
}

// sweepEntries tests candidates from the scan list starting at
// startIdx and stepping in dir (spec.md §4.4 step 5). Single-frequency
// bookmarks are tested exactly once, never swept; band-derived entries
// sweep in dir through consecutive band-derived candidates (from any
// band; entries of different bands are not told apart) bounded by
// the visible FFT window (frame.covers), mirroring the original
// findSignal()'s window-bounded inner loop. Returns the winning index
// (ok=true), or ok=false and the index the sweep stopped at so the
// caller can resume scanning from there.
func (e *Engine) sweepEntries(frame Frame, entries []catalog.ScanEntry, startIdx int, dir Direction, cfg Config) (hitIdx int, ok bool, stoppedIdx int) {
	n := len(entries)
	idx := startIdx
	ent := entries[idx]
	if !ent.FromBand {
		if !e.bl.Matches(ent.FrequencyHz) {
			width := detectionWidth(false, cfg.VFOBandwidthHz, cfg.PassbandRatio)
			if frame.MaxLevel(ent.FrequencyHz, width) >= cfg.LevelDBFS {
				return idx, true, idx
			}
		}
		return 0, false, idx
	}

	width := detectionWidth(true, cfg.VFOBandwidthHz, cfg.PassbandRatio)
	for {
		ent = entries[idx]
		if !ent.FromBand || !frame.covers(ent.FrequencyHz) {
			break
		}
		if !e.bl.Matches(ent.FrequencyHz) && frame.MaxLevel(ent.FrequencyHz, width) >= cfg.LevelDBFS {
			return idx, true, idx
		}
		var next int
		if dir == DirectionUp {
			next = (idx + 1) % n
		} else {
			next = (idx - 1 + n) % n
		}
		if next == startIdx {
			break
		}
		idx = next
	}
	return 0, false, idx
}

func (e *Engine) tickScanningList(frame Frame, entries []catalog.ScanEntry, cfg Config, now time.Time) error {
	if len(entries) == 0 {
		return nil
	}
	if e.state.currentIndex >= len(entries) || e.state.currentIndex < 0 {
		e.state.currentIndex = 0
		e.state.currentHz = entries[0].FrequencyHz
	}
	startIdx := e.state.currentIndex

	hitIdx, ok, fwdStop := e.sweepEntries(frame, entries, startIdx, e.state.direction, cfg)
	if !ok && !e.state.reverseLock {
		hitIdx, ok, _ = e.sweepEntries(frame, entries, startIdx, e.state.direction.Reverse(), cfg)
	} else if !ok {
		e.state.reverseLock = false
	}
	if ok {
		ent := entries[hitIdx]
		_, bw := e.profileFor(ent)
		e.applyAggressiveMute(cfg)
		e.state.currentIndex = hitIdx
		e.lockOn(ent, bw, now)
		return nil
	}

	e.state.currentIndex = fwdStop
	e.advanceIndex(entries)
	e.state.currentHz = entries[e.state.currentIndex].FrequencyHz
	e.applyAggressiveMute(cfg)
	_ = e.rx.Tune(e.vfo, e.state.currentHz)
	if !frame.covers(e.state.currentHz) {
		e.state.lastTuneAt = now
		e.state.state = StateTuning
	}
	return nil
}

func (e *Engine) advanceIndex(entries []catalog.ScanEntry) {
	n := len(entries)
	if n == 0 {
		return
	}
	if e.state.direction == DirectionUp {
		e.state.currentIndex = (e.state.currentIndex + 1) % n
	} else {
		e.state.currentIndex = (e.state.currentIndex - 1 + n) % n
	}
}

func (e *Engine) lockOn(ent catalog.ScanEntry, bw float64, now time.Time) {
	e.state.currentHz = ent.FrequencyHz
	e.state.state = StateReceiving
	e.state.lastSignalAt = now
	e.state.lastCenteringAt = now

	profile, _ := e.profileFor(ent)
	scanMuted := e.cfg.Squelch.MuteWhileScanning
	e.squelch.EnterReceiving(profile.SquelchDB, profile.SquelchOn)
	if err := e.applier.Apply(uint64(ent.ProfileID), e.vfo, ent.FrequencyHz, profile, e.cfg.VFOBandwidthHz, scanMuted); err != nil {
		e.log.Warnf("profile apply failed at %f: %v", ent.FrequencyHz, err)
	}
	if e.cfg.VFOBandwidthHz > 0 && profile.BandwidthHz > e.cfg.VFOBandwidthHz {
		e.log.Warnf("profile bandwidth %.0f Hz at %f exceeds VFO bandwidth %.0f Hz, clamped", profile.BandwidthHz, ent.FrequencyHz, e.cfg.VFOBandwidthHz)
	}

	if e.cfg.Recording.AutoRecord && e.state.recording != RecordingActive {
		minDur := e.cfg.Recording.MinDuration
		if err := e.recorder.Start(ent.FrequencyHz, profile.DemodMode, e.cfg.Recording.NameTemplate, minDur, now); err != nil {
			e.log.Warnf("recording start failed: %v", err)
		} else {
			e.state.recording = RecordingActive
		}
	}
}

// sweepRange tests continuous candidates spaced cfg.IntervalHz apart
// starting at startHz and stepping in dir, bounded by both r's edges
// and the visible FFT window (frame.covers), mirroring the original
// findSignal()'s range-bound and window-bound break conditions.
// Returns ok=false and the frequency the sweep stopped at (out of
// range or window) so the caller can resume from there.
func (e *Engine) sweepRange(frame Frame, r FrequencyRange, cfg Config, dir Direction, startHz float64) (hitHz float64, ok bool, stoppedAt float64) {
	step := cfg.IntervalHz
	width := detectionWidth(true, cfg.VFOBandwidthHz, cfg.PassbandRatio)
	cur := startHz
	for cur >= r.StartHz && cur <= r.StopHz && frame.covers(cur) {
		if !e.bl.Matches(cur) && frame.MaxLevel(cur, width) >= cfg.LevelDBFS {
			return cur, true, cur
		}
		if dir == DirectionUp {
			cur += step
		} else {
			cur -= step
		}
	}
	return 0, false, cur
}

// tickScanningRange implements the legacy multi-range fallback (spec.md
// §4.4 expansion): sweep current by interval within the active
// FrequencyRange, falling back to a one-shot reverse sweep, and
// wrapping to the next enabled range at the bounds.
func (e *Engine) tickScanningRange(frame Frame, cfg Config, now time.Time) error {
	if len(cfg.LegacyRanges) == 0 {
		return ErrNotReady
	}
	r := cfg.LegacyRanges[e.state.currentRangeIndex]
	if e.state.currentHz < r.StartHz || e.state.currentHz > r.StopHz {
		e.state.currentHz = r.StartHz
	}
	startHz := e.state.currentHz

	lockOnRange := func(hz float64) {
		e.applyAggressiveMute(cfg)
		e.state.currentHz = hz
		e.state.state = StateReceiving
		e.state.lastSignalAt = now
		e.state.lastCenteringAt = now
		e.squelch.EnterReceiving(cfg.LevelDBFS, true)
	}

	hit, ok, fwdStop := e.sweepRange(frame, r, cfg, e.state.direction, startHz)
	if ok {
		lockOnRange(hit)
		return nil
	}

	resumeAt := fwdStop
	if !e.state.reverseLock {
		if hit, ok, _ := e.sweepRange(frame, r, cfg, e.state.direction.Reverse(), startHz); ok {
			lockOnRange(hit)
			return nil
		}
	} else {
		e.state.reverseLock = false
	}

	e.advanceRangeBeyond(cfg, r, resumeAt)
	e.applyAggressiveMute(cfg)
	_ = e.rx.Tune(e.vfo, e.state.currentHz)
	if !frame.covers(e.state.currentHz) {
		e.state.lastTuneAt = now
		e.state.state = StateTuning
	}
	return nil
}

// covers reports whether hz falls within the frame's waterfall window
// (spec.md §4.4: "transition to TUNING if the new current falls
// outside the FFT window").
func (f Frame) covers(hz float64) bool {
	return hz >= f.WaterfallStartHz && hz <= f.WaterfallStartHz+f.WaterfallWidthHz
}

// advanceRangeBeyond resumes scanning from beyond a failed sweep,
// wrapping to the next enabled range if nextHz fell outside r's bounds
// (spec.md §4.4 expansion: "Wrapping past the end of one enabled range
// advances currentRangeIndex to the next enabled range").
func (e *Engine) advanceRangeBeyond(cfg Config, r FrequencyRange, nextHz float64) {
	e.state.currentHz = nextHz
	if e.state.currentHz > r.StopHz || e.state.currentHz < r.StartHz {
		if idx, ok := nextEnabledRange(cfg.LegacyRanges, e.state.currentRangeIndex); ok {
			e.state.currentRangeIndex = idx
			e.state.currentHz = cfg.LegacyRanges[idx].StartHz
		}
	}
}
