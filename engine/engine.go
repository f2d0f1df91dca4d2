package engine

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/chzchzchz/freqscan/catalog"
)

// Config holds the persisted Scanner document's tunable parameters
// (spec.md §6 parameter bounds table).
type Config struct {
	IntervalHz      float64
	ScanRateHz      float64
	PassbandRatio   float64
	TuningTime      time.Duration
	TuningTimeAuto  bool
	LingerTime      time.Duration
	LevelDBFS       float64
	UnlockHighSpeed bool
	Squelch         SquelchParams
	Recording       RecordingParams
	VFOBandwidthHz  float64
	LegacyRanges    []FrequencyRange
}

func (c Config) effectiveScanRate() float64 {
	max := 50.0
	if c.UnlockHighSpeed {
		max = 2000.0
	}
	return clamp(c.ScanRateHz, 1, max)
}

func (c Config) tickPeriod() time.Duration {
	rate := c.effectiveScanRate()
	return time.Duration(1000.0/rate) * time.Millisecond
}

func (c Config) tuningTime() time.Duration {
	if !c.TuningTimeAuto {
		return c.TuningTime
	}
	ms := 250 * 50 / c.effectiveScanRate()
	if ms < 10 {
		ms = 10
	}
	return time.Duration(ms) * time.Millisecond
}

// Logger is the minimal structured-logging surface the engine depends
// on, satisfied by the log package's wrapper around zap.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...interface{}) {}
func (noopLogger) Infof(string, ...interface{})  {}
func (noopLogger) Warnf(string, ...interface{})  {}
func (noopLogger) Errorf(string, ...interface{}) {}

// Engine is the scan engine state machine and its worker loop (C4),
// wired to the catalog's scan list and blacklist (C1-C3), a Receiver
// and FftSource (C9/C10), a ProfileApplier (C6), a squelch Controller
// (C7), and a RecordingCoordinator (C8). Grounded on the original
// source's ScannerModule::worker, with the tick loop translated to
// nicerx.TaskQueue.Run's context-cancellation shape (§5 expansion).
type Engine struct {
	cat     *catalog.Catalog
	builder *catalog.Builder
	bl      *catalog.Blacklist
	rx      Receiver
	fft     FftSource
	vfo     string

	applier  *ProfileApplier
	squelch  *Controller
	recorder *RecordingCoordinator

	log Logger

	mu      sync.Mutex
	cfg     Config
	state   scanState
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs an Engine. log may be nil, in which case logging is
// a no-op.
func New(cat *catalog.Catalog, builder *catalog.Builder, bl *catalog.Blacklist, rx Receiver, fft FftSource, rec Recorder, vfo string, cfg Config, log Logger) *Engine {
	if log == nil {
		log = noopLogger{}
	}
	e := &Engine{
		cat: cat, builder: builder, bl: bl, rx: rx, fft: fft, vfo: vfo, cfg: cfg, log: log,
	}
	e.squelch = NewController(rx, vfo)
	e.recorder = NewRecordingCoordinator(rec, cfg.Recording)
	e.applier = NewProfileApplier(rx, e.onProfileCorruption)
	return e
}

func (e *Engine) onProfileCorruption() {
	e.log.Warnf("profile corruption detected, forcing scan-list refresh")
	e.builder.ForceRebuild()
	e.applier.ResetCache()
}

// Start validates readiness and launches the worker goroutine (spec.md
// §4.4 "start()"). Returns ErrNotReady when no receiver VFO is
// selected, the scan list (and any legacy range fallback) is empty, or
// every candidate is blacklisted.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil
	}
	if e.rx.SelectedVFO() == "" {
		return ErrNotReady
	}

	entries := e.builder.Get()
	if len(entries) == 0 {
		if _, ok := firstEnabledRange(e.cfg.LegacyRanges); !ok {
			return ErrNotReady
		}
	} else if e.allBlacklisted(entries) {
		return ErrNotReady
	}

	e.state = scanState{state: StateScanning}
	e.squelch.Capture()
	e.recorder.maybeResetDailyCounter(time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.running = true
	e.wg.Add(1)
	go e.run(ctx)
	return nil
}

func (e *Engine) allBlacklisted(entries []catalog.ScanEntry) bool {
	for _, ent := range entries {
		if !e.bl.Matches(ent.FrequencyHz) {
			return false
		}
	}
	return true
}

// Stop idempotently halts the worker, restores squelch/mute, and
// finalizes any ACTIVE recording (spec.md §4.4 "stop()").
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.cancel()
	e.mu.Unlock()

	e.wg.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.squelch.Restore()
	if e.state.recording == RecordingActive {
		filename, shouldDelete, err := e.recorder.Stop()
		if err != nil {
			e.log.Warnf("recorder stop on engine stop: %v", err)
		} else if shouldDelete {
			if rmErr := os.Remove(filename); rmErr != nil && !os.IsNotExist(rmErr) {
				e.log.Warnf("recording %s below min duration, delete failed: %v", filename, rmErr)
			}
		}
		e.state.recording = RecordingIdle
	}
	e.running = false
}

// Reset returns current to the list's first legal entry, clears
// RECEIVING, and restores squelch (spec.md §4.4 "reset()"; §4.7
// guarantees restoration "on stop(), reset(), or transition into
// RECEIVING").
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	entries := e.builder.Get()
	e.state.state = StateScanning
	e.state.currentIndex = 0
	if len(entries) > 0 {
		e.state.currentHz = entries[0].FrequencyHz
	}
	if idx, ok := firstEnabledRange(e.cfg.LegacyRanges); ok {
		e.state.currentRangeIndex = idx
	}
	e.squelch.Restore()
}

// SetDirection sets the sweep direction and a one-shot reverse-lock,
// abandoning any RECEIVING state (spec.md §4.4 "setDirection()").
func (e *Engine) SetDirection(d Direction) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.direction = d
	e.state.reverseLock = true
	if e.state.state == StateReceiving {
		e.state.state = StateScanning
	}
}

// Running reports whether the worker is active (spec.md §4.9
// "isRunning()").
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// FftSource exposes the engine's configured FftSource for diagnostics
// (C13's optional capability probing, e.g. a noise-floor reading); it
// is never used by the tick path itself.
func (e *Engine) FftSource() FftSource {
	return e.fft
}

// Snapshot returns the engine's current auxiliary state for the HTTP
// read surface (C13).
type Snapshot struct {
	State       string
	CurrentHz   float64
	Direction   Direction
	Running     bool
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		State:     e.state.state.String(),
		CurrentHz: e.state.currentHz,
		Direction: e.state.direction,
		Running:   e.running,
	}
}

// run is the worker goroutine: a cooperative tick loop matching
// nicerx.TaskQueue.Run's "for ctx.Err() == nil" shape (§5 expansion).
func (e *Engine) run(ctx context.Context) {
	defer e.wg.Done()

	period := e.snapshotConfig().tickPeriod()
	nextWake := time.Now().Add(period)
	lastDateCheck := time.Now()

	for ctx.Err() == nil {
		period := e.snapshotConfig().tickPeriod()
		now := time.Now()
		if now.Before(nextWake) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(nextWake.Sub(now)):
			}
		}

		if err := e.tick(); err != nil {
			if err == ErrFatal {
				e.log.Errorf("engine: fatal tick error, stopping: %v", err)
				go e.Stop()
				return
			}
			e.log.Warnf("engine: tick error: %v", err)
		}

		nextWake = nextWake.Add(period)
		// Catch-up-burst prevention (spec.md §5): if the worker falls
		// more than two periods behind schedule, resync to now.
		if time.Since(nextWake) > 2*period {
			nextWake = time.Now()
		}

		if time.Since(lastDateCheck) >= 10*time.Minute {
			lastDateCheck = time.Now()
			e.recorder.maybeResetDailyCounter(lastDateCheck)
		}
	}
}

func (e *Engine) snapshotConfig() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}
