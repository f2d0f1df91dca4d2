// Package catalog implements the frequency catalog and scan-list builder:
// named bookmarks (single frequencies or bands), each with an optional
// tuning profile, flattened into a sorted scan list for the engine.
package catalog

import (
	"errors"
	"fmt"
)

// DemodMode enumerates the eight demodulator variants a TuningProfile may
// select. The ordering matches the original frequency manager's
// demodModeList so imported/exported indices stay stable.
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

var demodModeNames = [...]string{"NFM", "WFM", "AM", "DSB", "USB", "CW", "LSB", "RAW"}

func (m DemodMode) String() string {
	if m < 0 || int(m) >= len(demodModeNames) {
		return "UNKNOWN"
	}
	return demodModeNames[m]
}

// Valid reports whether m is one of the eight defined demodulator modes.
func (m DemodMode) Valid() bool { return m >= 0 && int(m) < len(demodModeNames) }

// DemodModeFromString parses a mode name as produced by DemodMode.String,
// defaulting to ModeNFM for an unrecognized or empty name (config package
// round-trips profiles through this name rather than the raw int index).
func DemodModeFromString(s string) DemodMode {
	for i, name := range demodModeNames {
		if name == s {
			return DemodMode(i)
		}
	}
	return ModeNFM
}

// DeemphasisFromString parses a name as produced by Deemphasis.String,
// defaulting to DeemphasisOff for an unrecognized or empty name.
func DeemphasisFromString(s string) Deemphasis {
	for i, name := range deemphasisNames {
		if name == s {
			return Deemphasis(i)
		}
	}
	return DeemphasisOff
}

// Deemphasis selects the de-emphasis time constant applied by the radio,
// when the radio exposes the interface (§4.6).
type Deemphasis int

const (
	DeemphasisOff Deemphasis = iota
	Deemphasis50us
	Deemphasis75us
)

var deemphasisNames = [...]string{"off", "50us", "75us"}

func (d Deemphasis) String() string {
	if d < 0 || int(d) >= len(deemphasisNames) {
		return "off"
	}
	return deemphasisNames[d]
}

const maxBandwidthHz = 10_000_000.0

var (
	ErrInvalidDemodMode  = errors.New("catalog: demod mode out of range")
	ErrInvalidBandwidth  = errors.New("catalog: bandwidth must be in (0, 10MHz]")
	ErrInvalidSquelch    = errors.New("catalog: squelch level must be in [-100, 0] dB")
	ErrInvalidGain       = errors.New("catalog: rf gain must be in [0, 100] dB")
	ErrInvalidFrequency  = errors.New("catalog: frequency must be positive")
	ErrInvalidBandBounds = errors.New("catalog: band requires 0 < start < end")
	ErrInvalidStep       = errors.New("catalog: band step must be positive")
)

// TuningProfile is a receiver configuration preset owned by a Bookmark.
// When a Bookmark carries no profile, engine defaults apply instead.
type TuningProfile struct {
	DemodMode     DemodMode  `toml:"demod_mode"`
	BandwidthHz   float64    `toml:"bandwidth_hz"`
	SquelchOn     bool       `toml:"squelch_on"`
	SquelchDB     float64    `toml:"squelch_db"`
	Deemphasis    Deemphasis `toml:"deemphasis"`
	AGCOn         bool       `toml:"agc_on"`
	RFGainDB      float64    `toml:"rf_gain_db"`
	CenterOffsHz  float64    `toml:"center_offset_hz"`
	Name          string     `toml:"name,omitempty"`
	AutoApply     bool       `toml:"auto_apply"`
}

// Validate enforces the invariants from spec.md §3: demodMode in [0,7],
// bandwidth in (0, 10MHz], squelch in [-100,0], gain in [0,100].
func (p TuningProfile) Validate() error {
	if !p.DemodMode.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidDemodMode, p.DemodMode)
	}
	if p.BandwidthHz <= 0 || p.BandwidthHz > maxBandwidthHz {
		return fmt.Errorf("%w: %f", ErrInvalidBandwidth, p.BandwidthHz)
	}
	if p.SquelchDB < -100 || p.SquelchDB > 0 {
		return fmt.Errorf("%w: %f", ErrInvalidSquelch, p.SquelchDB)
	}
	if p.RFGainDB < 0 || p.RFGainDB > 100 {
		return fmt.Errorf("%w: %f", ErrInvalidGain, p.RFGainDB)
	}
	return nil
}

// DisplayName returns Name if set, else a generated name describing the
// mode/bandwidth/squelch, mirroring the original frequency manager's
// generateAutoName().
func (p TuningProfile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	sq := ""
	if p.SquelchOn {
		sq = " SQ"
	}
	return fmt.Sprintf("%s %.1fkHz%s", p.DemodMode, p.BandwidthHz/1000.0, sq)
}

// BookmarkKind distinguishes the two mutually exclusive Bookmark shapes.
type BookmarkKind int

const (
	KindFrequency BookmarkKind = iota
	KindBand
)

// Bookmark is a single catalog entry: exclusively a Frequency or a Band.
type Bookmark struct {
	Kind BookmarkKind `toml:"kind"`

	// Frequency fields (Kind == KindFrequency).
	FrequencyHz   float64 `toml:"frequency_hz,omitempty"`
	NominalBWHz   float64 `toml:"nominal_bandwidth_hz,omitempty"`
	NominalMode   DemodMode `toml:"nominal_mode,omitempty"`

	// Band fields (Kind == KindBand).
	StartHz float64 `toml:"start_hz,omitempty"`
	EndHz   float64 `toml:"end_hz,omitempty"`
	StepHz  float64 `toml:"step_hz,omitempty"`
	Notes   string  `toml:"notes,omitempty"`
	Tags    []string `toml:"tags,omitempty"`

	Scannable bool           `toml:"scannable"`
	Profile   *TuningProfile `toml:"profile,omitempty"`
}

// Validate checks the shape-specific invariants from spec.md §4.1.
func (b Bookmark) Validate() error {
	switch b.Kind {
	case KindFrequency:
		if b.FrequencyHz <= 0 {
			return ErrInvalidFrequency
		}
	case KindBand:
		if !(b.StartHz > 0 && b.StartHz < b.EndHz) {
			return ErrInvalidBandBounds
		}
		if b.StepHz <= 0 {
			return ErrInvalidStep
		}
	default:
		return fmt.Errorf("catalog: unknown bookmark kind %d", b.Kind)
	}
	if b.Profile != nil {
		if err := b.Profile.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// entryCount returns how many scan entries this bookmark expands to,
// per spec.md §3: floor((end-start)/step)+1 for bands, 1 for frequencies.
func (b Bookmark) entryCount() int {
	if b.Kind == KindFrequency {
		return 1
	}
	if b.StepHz <= 0 {
		return 0
	}
	return int((b.EndHz-b.StartHz)/b.StepHz) + 1
}
