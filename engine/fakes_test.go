package engine

import "sync"

// fakeReceiver is a scripted Receiver/SquelchController used across
// engine tests (grounded on radio/sdr_test.go's pattern of driving a
// concrete implementation through a scripted scenario, adapted here
// to a fake rather than the real rtl_tcp-backed SDR).
type fakeReceiver struct {
	mu sync.Mutex

	vfo string

	tunedHz     float64
	mode        DemodMode
	bandwidthHz float64
	gainDB      float64

	squelchEnabled bool
	squelchDB      float64
	squelchSupported bool

	tuneCalls int
	modeCalls int
}

func newFakeReceiver(vfo string) *fakeReceiver {
	return &fakeReceiver{vfo: vfo, squelchSupported: true}
}

func (r *fakeReceiver) Tune(vfo string, hz float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tunedHz = hz
	r.tuneCalls++
	return nil
}

func (r *fakeReceiver) Bandwidth(vfo string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bandwidthHz, nil
}

func (r *fakeReceiver) SetMode(vfo string, mode DemodMode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = mode
	r.modeCalls++
	return nil
}

func (r *fakeReceiver) SetBandwidth(vfo string, hz float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bandwidthHz = hz
	return nil
}

func (r *fakeReceiver) SetGain(dB float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gainDB = dB
	return nil
}

func (r *fakeReceiver) SetSquelchEnabled(vfo string, on bool) error {
	if !r.squelchSupported {
		return ErrInterfaceMissing
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.squelchEnabled = on
	return nil
}

func (r *fakeReceiver) SetSquelchLevel(vfo string, dB float64) error {
	if !r.squelchSupported {
		return ErrInterfaceMissing
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.squelchDB = dB
	return nil
}

func (r *fakeReceiver) SquelchLevel(vfo string) (float64, error) {
	if !r.squelchSupported {
		return 0, ErrInterfaceMissing
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.squelchDB, nil
}

func (r *fakeReceiver) SelectedVFO() string { return r.vfo }

// fakeFftSource serves a scripted Frame.
type fakeFftSource struct {
	mu    sync.Mutex
	frame Frame
	acquireCalls int
}

func newFakeFftSource(startHz, widthHz float64, bins []float32) *fakeFftSource {
	return &fakeFftSource{frame: Frame{Bins: bins, WaterfallStartHz: startHz, WaterfallWidthHz: widthHz}}
}

func (f *fakeFftSource) AcquireRawFFT() ([]float32, float64, float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquireCalls++
	return f.frame.Bins, f.frame.WaterfallStartHz, f.frame.WaterfallWidthHz, nil
}

func (f *fakeFftSource) ReleaseRawFFT() {}

func (f *fakeFftSource) setFrame(fr Frame) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frame = fr
}

// fakeRecorder is a scripted Recorder.
type fakeRecorder struct {
	mu sync.Mutex

	modeSet      bool
	controlOwner string
	path         string
	started      bool

	realizedDuration float64
	stopErr          error
}

func (r *fakeRecorder) SetMode(audio bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modeSet = audio
	return nil
}

func (r *fakeRecorder) SetExternalControl(owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.controlOwner = owner
	return nil
}

func (r *fakeRecorder) StartWithFilename(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.path = path
	r.started = true
	return nil
}

func (r *fakeRecorder) Stop() (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = false
	return r.realizedDuration, r.stopErr
}

// flatSpectrum builds a bin array with a uniform noise floor and a
// single peak at peakHz within [startHz, startHz+widthHz).
func flatSpectrum(n int, startHz, widthHz, floorDB, peakHz, peakDB float64) []float32 {
	bins := make([]float32, n)
	for i := range bins {
		bins[i] = float32(floorDB)
	}
	binHz := widthHz / float64(n)
	idx := int((peakHz - startHz) / binHz)
	if idx >= 0 && idx < n {
		bins[idx] = float32(peakDB)
	}
	return bins
}
