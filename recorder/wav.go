// Package recorder implements engine.Recorder against WAV files on
// disk, grounded on the teacher's radio/wav package.
package recorder

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chzchzchz/freqscan/engine"
	"github.com/chzchzchz/freqscan/radio/wav"
)

// modeFormat picks the sample rate/bit depth/channel count for a demod
// mode (§4.11 expansion): narrowband modes record 8kHz/16-bit mono,
// WFM records 48kHz/16-bit stereo. The engine.Recorder interface only
// conveys an audio on/off flag (SetMode), not which demod mode is
// active, so the host sets the format explicitly via SetAudioFormat
// before Start; WavRecorder defaults to narrowband mono otherwise.
func modeFormat(mode engine.DemodMode) (rate, depth, channels int) {
	if mode == engine.ModeWFM {
		return 48000, 16, 2
	}
	return 8000, 16, 1
}

// WavRecorder implements engine.Recorder by opening the target path
// and wrapping it with wav.NewWriter. Actual PCM bytes come from
// whatever demodulator the host wires in (out of scope here per §1);
// WavRecorder only owns the file lifecycle and the claimed-control
// owner the coordinator sets before starting.
type WavRecorder struct {
	mu        sync.Mutex
	mode      engine.DemodMode
	audioOn   bool
	owner     string
	f         *os.File
	w         *wav.Writer
	path      string
	startedAt time.Time
	active    bool
}

func New() *WavRecorder { return &WavRecorder{} }

// SetAudioFormat tells the recorder which demod mode's sample format
// to use for the next StartWithFilename call; not part of
// engine.Recorder since the coordinator never needs it directly.
func (r *WavRecorder) SetAudioFormat(mode engine.DemodMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = mode
}

func (r *WavRecorder) SetMode(audio bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audioOn = audio
	return nil
}

// SetExternalControl claims exclusive ownership the way the teacher's
// capture task assumes exclusive SDR ownership; a single audio
// consumer means this just records who asked.
func (r *WavRecorder) SetExternalControl(owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owner = owner
	return nil
}

func (r *WavRecorder) StartWithFilename(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return fmt.Errorf("recorder: already active on %s", r.path)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	rate, depth, channels := modeFormat(r.mode)
	w, err := wav.NewWriter(f, rate, depth, channels)
	if err != nil {
		f.Close()
		return err
	}
	r.f = f
	r.w = w
	r.path = path
	r.startedAt = time.Now()
	r.active = true
	return nil
}

// Write feeds demodulated PCM into the open recording; the coordinator
// never calls this directly (§4.11: the demodulator stays out of
// scope), but a wired-in audio source can.
func (r *WavRecorder) Write(pcm []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return engine.ErrRecorderFailure
	}
	_, err := r.w.Write(pcm)
	return err
}

func (r *WavRecorder) Stop() (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return 0, nil
	}
	realized := time.Since(r.startedAt).Seconds()
	r.active = false
	err := r.w.Close()
	if cerr := r.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return realized, engine.ErrRecorderFailure
	}
	return realized, nil
}

// Path returns the path of the most recently started (or finished)
// recording, for callers that need to honor the min-duration deletion
// the coordinator signals via its Stop return values.
func (r *WavRecorder) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}
