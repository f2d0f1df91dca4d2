package engine

import (
	"testing"
	"time"

	"github.com/chzchzchz/freqscan/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() Config {
	return Config{
		IntervalHz:    100000,
		ScanRateHz:    50,
		PassbandRatio: 0.1,
		TuningTime:    10 * time.Millisecond,
		LingerTime:    50 * time.Millisecond,
		LevelDBFS:     -50,
		VFOBandwidthHz: 200000,
	}
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *fakeReceiver, *fakeFftSource, *fakeRecorder, *catalog.Catalog) {
	t.Helper()
	cat := catalog.New()
	builder := catalog.NewBuilder(cat)
	bl := catalog.NewBlacklist()
	rx := newFakeReceiver("vfo0")
	fft := newFakeFftSource(88_000_000, 20_000_000, flatSpectrum(2000, 88_000_000, 20_000_000, -90, 88_000_000, -90))
	rec := &fakeRecorder{}
	e := New(cat, builder, bl, rx, fft, rec, "vfo0", cfg, nil)
	return e, rx, fft, rec, cat
}

// S1 - Single-frequency lock.
func TestScenarioSingleFrequencyLock(t *testing.T) {
	cfg := baseConfig()
	e, rx, fft, _, cat := newTestEngine(t, cfg)

	require.NoError(t, cat.AddBookmark("default", "A", catalog.Bookmark{
		Kind: catalog.KindFrequency, FrequencyHz: 145500000, NominalBWHz: 12500, Scannable: true,
		Profile: &catalog.TuningProfile{DemodMode: catalog.ModeNFM, BandwidthHz: 12500, SquelchOn: true, SquelchDB: -40, RFGainDB: 10},
	}))

	fft.setFrame(Frame{
		Bins:             flatSpectrum(2000, 140_000_000, 20_000_000, -90, 145500000, -30),
		WaterfallStartHz: 140_000_000,
		WaterfallWidthHz: 20_000_000,
	})

	require.NoError(t, e.Start())
	defer e.Stop()

	require.NoError(t, e.tick())
	snap := e.Snapshot()
	assert.Equal(t, "RECEIVING", snap.State)
	assert.Equal(t, 145500000.0, snap.CurrentHz)
	assert.True(t, rx.squelchEnabled)
	assert.Equal(t, -40.0, rx.squelchDB)
}

// S2 - Band sweep.
func TestScenarioBandSweep(t *testing.T) {
	cfg := baseConfig()
	cfg.LevelDBFS = -55
	e, _, fft, _, cat := newTestEngine(t, cfg)

	require.NoError(t, cat.AddBookmark("default", "FM", catalog.Bookmark{
		Kind: catalog.KindBand, StartHz: 88_000_000, EndHz: 108_000_000, StepHz: 100000, Scannable: true,
	}))

	fft.setFrame(Frame{
		Bins:             flatSpectrum(2000, 88_000_000, 20_000_000, -90, 98_700_000, -30),
		WaterfallStartHz: 88_000_000,
		WaterfallWidthHz: 20_000_000,
	})

	require.NoError(t, e.Start())
	defer e.Stop()

	for i := 0; i < 210; i++ {
		require.NoError(t, e.tick())
		if e.Snapshot().State == "RECEIVING" {
			break
		}
	}
	snap := e.Snapshot()
	assert.Equal(t, "RECEIVING", snap.State)
	assert.InDelta(t, 98_700_000, snap.CurrentHz, 2000)
}

// S3 - Blacklist skip.
func TestScenarioBlacklistSkip(t *testing.T) {
	cfg := baseConfig()
	cfg.LevelDBFS = -55
	e, _, fft, _, cat := newTestEngine(t, cfg)

	require.NoError(t, cat.AddBookmark("default", "FM", catalog.Bookmark{
		Kind: catalog.KindBand, StartHz: 88_000_000, EndHz: 108_000_000, StepHz: 100000, Scannable: true,
	}))
	e.bl.Add(98_700_000)

	fft.setFrame(Frame{
		Bins:             flatSpectrum(2000, 88_000_000, 20_000_000, -90, 98_700_000, -30),
		WaterfallStartHz: 88_000_000,
		WaterfallWidthHz: 20_000_000,
	})

	require.NoError(t, e.Start())
	defer e.Stop()

	for i := 0; i < 400; i++ {
		require.NoError(t, e.tick())
	}
	assert.Equal(t, "SCANNING", e.Snapshot().State)
}

func TestStartRefusesWhenNoSelectedVFO(t *testing.T) {
	cfg := baseConfig()
	e, rx, _, _, cat := newTestEngine(t, cfg)
	rx.vfo = ""
	require.NoError(t, cat.AddBookmark("default", "A", catalog.Bookmark{
		Kind: catalog.KindFrequency, FrequencyHz: 100, Scannable: true,
	}))
	assert.ErrorIs(t, e.Start(), ErrNotReady)
}

func TestStartRefusesWhenScanListEmptyAndNoLegacyRange(t *testing.T) {
	cfg := baseConfig()
	e, _, _, _, _ := newTestEngine(t, cfg)
	assert.ErrorIs(t, e.Start(), ErrNotReady)
}

func TestStartRefusesWhenAllBlacklisted(t *testing.T) {
	cfg := baseConfig()
	e, _, _, _, cat := newTestEngine(t, cfg)
	require.NoError(t, cat.AddBookmark("default", "A", catalog.Bookmark{
		Kind: catalog.KindFrequency, FrequencyHz: 100000000, Scannable: true,
	}))
	e.bl.Add(100000000)
	assert.ErrorIs(t, e.Start(), ErrNotReady)
}

func TestStopRestoresSquelch(t *testing.T) {
	cfg := baseConfig()
	e, rx, _, _, cat := newTestEngine(t, cfg)
	rx.squelchDB = -60
	require.NoError(t, cat.AddBookmark("default", "A", catalog.Bookmark{
		Kind: catalog.KindFrequency, FrequencyHz: 100000000, Scannable: true,
	}))
	require.NoError(t, e.Start())
	rx.squelchDB = -5
	e.Stop()
	assert.Equal(t, -60.0, rx.squelchDB)
}

func TestResetRestoresSquelch(t *testing.T) {
	cfg := baseConfig()
	e, rx, _, _, cat := newTestEngine(t, cfg)
	rx.squelchDB = -60
	require.NoError(t, cat.AddBookmark("default", "A", catalog.Bookmark{
		Kind: catalog.KindFrequency, FrequencyHz: 100000000, Scannable: true,
	}))
	require.NoError(t, e.Start())
	defer e.Stop()
	rx.squelchDB = -5
	e.Reset()
	assert.Equal(t, -60.0, rx.squelchDB)
}

// S6 - High-speed cap: unlockHighSpeed=false clamps the scan rate to
// 50Hz (tick period >= 20ms) even when scanRateHz is configured far
// above that; setting unlockHighSpeed unlocks the 2000Hz ceiling.
func TestScenarioHighSpeedCap(t *testing.T) {
	cfg := baseConfig()
	cfg.ScanRateHz = 500
	assert.Equal(t, 50.0, cfg.effectiveScanRate())
	assert.Equal(t, 20*time.Millisecond, cfg.tickPeriod())

	cfg.UnlockHighSpeed = true
	assert.Equal(t, 500.0, cfg.effectiveScanRate())
	assert.Equal(t, 2*time.Millisecond, cfg.tickPeriod())

	cfg.ScanRateHz = 5000
	assert.Equal(t, 2000.0, cfg.effectiveScanRate())
}

func TestSetDirectionAbandonsReceiving(t *testing.T) {
	cfg := baseConfig()
	e, _, _, _, cat := newTestEngine(t, cfg)
	require.NoError(t, cat.AddBookmark("default", "A", catalog.Bookmark{
		Kind: catalog.KindFrequency, FrequencyHz: 100000000, Scannable: true,
	}))
	require.NoError(t, e.Start())
	defer e.Stop()

	e.state.state = StateReceiving
	e.SetDirection(DirectionDown)
	assert.Equal(t, "SCANNING", e.Snapshot().State)
}
