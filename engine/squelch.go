package engine

import "time"

const (
	noiseFloorEMAAlpha       = 0.95
	noiseFloorUpdateInterval = 250 * time.Millisecond
	scanMuteLevelDB          = -5.0
)

// SquelchParams configures the three cooperating mechanisms from
// spec.md §4.7.
type SquelchParams struct {
	SquelchDeltaDB      float64 // 0..10
	SquelchDeltaAuto    bool
	MuteWhileScanning   bool
	AggressiveMute      bool
	AggressiveMuteLevelDB float64 // -10..0
}

// Controller implements squelch delta, scan-mute, and aggressive mute
// over a Receiver's squelch capability (spec.md §4.7). It captures the
// original squelch value before any modification and guarantees
// restoration on Stop/Reset/enter-Receiving.
type Controller struct {
	rx  SquelchController
	vfo string

	supported bool

	originalLevel   float64
	originalEnabled bool
	captured        bool

	// userOverride resolves spec.md §9 Open Question #2: a
	// SetUserSquelchEnabled(false) call is the last word after Stop;
	// the engine's own restore logic only ever touches the *level*,
	// never forces enabled back to true.
	userOverride    *bool

	noiseFloorDB float64
	lastEMAAt    time.Time
}

// NewController binds a Controller to rx's vfo. If rx does not
// implement squelch (every call returns ErrInterfaceMissing), the
// controller becomes a no-op per spec.md §4.7 "All three are no-ops
// if the receiver has no squelch capability".
func NewController(rx SquelchController, vfo string) *Controller {
	c := &Controller{rx: rx, vfo: vfo, supported: true}
	if _, err := rx.SquelchLevel(vfo); err == ErrInterfaceMissing {
		c.supported = false
	}
	return c
}

// Capture snapshots the original squelch value; call once at Start.
func (c *Controller) Capture() {
	if !c.supported {
		return
	}
	if lvl, err := c.rx.SquelchLevel(c.vfo); err == nil {
		c.originalLevel = lvl
	}
	c.originalEnabled = true
	c.captured = true
}

// SetUserSquelchEnabled records an explicit external enable/disable,
// independent of the engine's own mute logic.
func (c *Controller) SetUserSquelchEnabled(on bool) {
	c.userOverride = &on
	if !c.supported {
		return
	}
	_ = c.rx.SetSquelchEnabled(c.vfo, on)
}

// EnterScanning applies scan-mute (if enabled) on the SCANNING ->
// retune boundary.
func (c *Controller) EnterScanning(params SquelchParams) {
	if !c.supported || !params.MuteWhileScanning {
		return
	}
	_ = c.rx.SetSquelchLevel(c.vfo, scanMuteLevelDB)
}

// EnterReceiving restores the profile squelch or original value on
// SCANNING -> RECEIVING (spec.md: "restore upon SCANNING -> RECEIVING").
func (c *Controller) EnterReceiving(profileSquelchDB float64, profileSquelchOn bool) {
	if !c.supported {
		return
	}
	_ = c.rx.SetSquelchLevel(c.vfo, profileSquelchDB)
	if c.userOverride == nil {
		_ = c.rx.SetSquelchEnabled(c.vfo, profileSquelchOn)
	}
}

// CloseThreshold computes the delta-squelch close threshold: manual
// mode subtracts delta from the open squelch; auto mode uses the
// EMA-tracked noise floor plus delta (spec.md §4.7 mechanism 1).
func (c *Controller) CloseThreshold(openSquelchDB float64, params SquelchParams) float64 {
	if params.SquelchDeltaAuto {
		return c.noiseFloorDB + params.SquelchDeltaDB
	}
	return openSquelchDB - params.SquelchDeltaDB
}

// UpdateNoiseFloor applies the EMA update (alpha 0.95, at most every
// 250ms), suspended while receiving.
func (c *Controller) UpdateNoiseFloor(levelDB float64, receiving bool, now time.Time) {
	if receiving {
		return
	}
	if !c.lastEMAAt.IsZero() && now.Sub(c.lastEMAAt) < noiseFloorUpdateInterval {
		return
	}
	if c.lastEMAAt.IsZero() {
		c.noiseFloorDB = levelDB
	} else {
		c.noiseFloorDB = noiseFloorEMAAlpha*c.noiseFloorDB + (1-noiseFloorEMAAlpha)*levelDB
	}
	c.lastEMAAt = now
}

// AggressiveMuteLevel returns the momentary mute level to apply across
// profile/frequency changes, or ok=false if disabled or currently
// receiving (spec.md §4.7 mechanism 3: "never applied while RECEIVING").
func (c *Controller) AggressiveMuteLevel(params SquelchParams, receiving bool) (float64, bool) {
	if !c.supported || !params.AggressiveMute || receiving {
		return 0, false
	}
	lvl := params.AggressiveMuteLevelDB
	if lvl < -10 {
		lvl = -10
	} else if lvl > 0 {
		lvl = 0
	}
	return lvl, true
}

// Restore reverts squelch to the captured original value, called on
// Stop/Reset (spec.md: "guaranteed to be restored on stop(), reset(),
// or transition into RECEIVING").
func (c *Controller) Restore() {
	if !c.supported || !c.captured {
		return
	}
	_ = c.rx.SetSquelchLevel(c.vfo, c.originalLevel)
	if c.userOverride == nil {
		_ = c.rx.SetSquelchEnabled(c.vfo, c.originalEnabled)
	}
}
