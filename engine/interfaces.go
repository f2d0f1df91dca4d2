// Package engine implements the scan engine state machine: stepping a
// scan list against a live receiver and FFT source, detecting and
// centering signals, applying tuning profiles, and coordinating
// squelch and recording.
package engine

import (
	"errors"
	"fmt"
)

// Sentinel and typed errors for the kinds in spec.md §7, checked with
// errors.Is/errors.As following radio/sdr.go's ErrRateOutOfRange
// convention.
var (
	ErrNotReady         = errors.New("engine: not ready")
	ErrInterfaceMissing = errors.New("engine: optional interface not supported by receiver")
	ErrTransientRadio   = errors.New("engine: transient radio error")
	ErrRecorderFailure  = errors.New("engine: recorder failure")
	ErrFFTUnavailable   = errors.New("engine: fft frame unavailable")
	ErrFatal            = errors.New("engine: fatal worker error")
)

// InvalidBookmarkError reports a stale or malformed scan-list entry
// encountered during a tick; the engine skips it and continues.
type InvalidBookmarkError struct {
	Name   string
	Reason string
}

func (e *InvalidBookmarkError) Error() string {
	return fmt.Sprintf("engine: invalid bookmark %q: %s", e.Name, e.Reason)
}

// CorruptedProfileError reports a profile that failed validation at
// apply time, forcing a scan-list refresh (§4.6).
type CorruptedProfileError struct {
	Reason string
}

func (e *CorruptedProfileError) Error() string {
	return fmt.Sprintf("engine: corrupted profile pointer: %s", e.Reason)
}

// Receiver is the external VFO/radio collaborator the engine drives
// (spec.md §4.9 "Consumed from collaborators: Receiver"). Grounded on
// radio.SDR's small tune/band/close surface, generalized to a named
// VFO since the engine addresses a VFO by name rather than owning the
// SDR handle directly.
type Receiver interface {
	Tune(vfo string, hz float64) error
	Bandwidth(vfo string) (float64, error)
	SetMode(vfo string, mode DemodMode) error
	SetBandwidth(vfo string, hz float64) error
	SetGain(dB float64) error

	SquelchController
	SelectedVFO() string
}

// SquelchController is the subset of Receiver concerned with squelch,
// split out so a receiver without squelch capability can return
// ErrInterfaceMissing from every method and the engine's own squelch
// Controller (squelch.go) can still type-check against it in
// tests via a fake.
type SquelchController interface {
	SetSquelchEnabled(vfo string, on bool) error
	SetSquelchLevel(vfo string, dB float64) error
	SquelchLevel(vfo string) (float64, error)
}

// OptionalDeemphasis is implemented by receivers that support
// de-emphasis selection; the engine type-asserts for it and silently
// omits the call otherwise (§4.6, §7 InterfaceMissing).
type OptionalDeemphasis interface {
	SetDeemphasis(vfo string, mode int) error
}

// OptionalAGC is implemented by receivers that support AGC toggling.
type OptionalAGC interface {
	SetAGC(vfo string, on bool) error
}

// FftSource is the external FFT producer (§4.9). AcquireRawFFT must be
// brief: copy-then-release, never held across a tick boundary.
type FftSource interface {
	AcquireRawFFT() (bins []float32, waterfallStartHz, waterfallWidthHz float64, err error)
	ReleaseRawFFT()
}

// Recorder is the external recording collaborator (§4.9, §4.11).
type Recorder interface {
	SetMode(audio bool) error
	SetExternalControl(owner string) error
	StartWithFilename(path string) error
	Stop() (realizedDuration float64, err error)
}

// DemodMode mirrors catalog.DemodMode without importing the catalog
// package, keeping engine collaborator interfaces free of a dependency
// on the catalog's persistence-tagged types.
type DemodMode int

const (
	ModeNFM DemodMode = iota
	ModeWFM
	ModeAM
	ModeDSB
	ModeUSB
	ModeCW
	ModeLSB
	ModeRAW
)
