package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RecordingParams configures the recording coordinator (spec.md §4.8,
// persisted Scanner document fields of the same name in §6).
type RecordingParams struct {
	AutoRecord        bool
	MinDuration       time.Duration
	NameTemplate      string
	SequenceNum       int
	FilesCount        int
	LastResetDate     string // YYYY-MM-DD, local
}

// RecordingCoordinator drives a Recorder through auto-start/stop with
// a min-duration gate and a daily file counter (spec.md §4.8).
// Grounded on nicerx/server.go's task-triggered Capture wiring and
// store/signal.go's templated path construction, generalized to the
// placeholder template named in spec.md §4.8.
type RecordingCoordinator struct {
	rec Recorder

	state   RecordingState
	capture recordingCapture

	sequenceNum   int
	filesCount    int
	lastResetDate string

	lastDateCheck time.Time
}

// NewRecordingCoordinator constructs a coordinator over rec, seeded
// with persisted counters from a RecordingParams (e.g. loaded from
// the Scanner document).
func NewRecordingCoordinator(rec Recorder, p RecordingParams) *RecordingCoordinator {
	state := RecordingIdle
	if !p.AutoRecord {
		state = RecordingDisabled
	}
	return &RecordingCoordinator{
		rec:           rec,
		state:         state,
		sequenceNum:   p.SequenceNum,
		filesCount:    p.FilesCount,
		lastResetDate: p.LastResetDate,
	}
}

// Start is invoked on SCANNING -> RECEIVING when auto-record is
// enabled and state is IDLE: selects audio mode, claims external
// control, and starts with a generated filename (spec.md §4.8).
func (rc *RecordingCoordinator) Start(freqHz float64, mode DemodMode, template string, minDuration time.Duration, now time.Time) error {
	if rc.state != RecordingIdle {
		return nil
	}
	rc.maybeResetDailyCounter(now)

	if err := rc.rec.SetMode(true); err != nil {
		return fmt.Errorf("%w: %v", ErrRecorderFailure, err)
	}
	if err := rc.rec.SetExternalControl("engine"); err != nil {
		return fmt.Errorf("%w: %v", ErrRecorderFailure, err)
	}
	path := renderFilename(template, now, freqHz, mode, rc.sequenceNum)
	if err := rc.rec.StartWithFilename(path); err != nil {
		return fmt.Errorf("%w: %v", ErrRecorderFailure, err)
	}

	rc.capture = recordingCapture{
		startedAt:   now,
		frequencyHz: freqHz,
		mode:        mode,
		filename:    path,
		minDuration: minDuration, // frozen per "Lifecycle discipline"
	}
	rc.state = RecordingActive
	return nil
}

// Stop is invoked on transition out of RECEIVING: stops the recorder
// and, if the realized duration is below the captured min-duration,
// the caller is told to delete the file rather than the coordinator
// owning filesystem deletion itself (the recorder owns the partial
// file per spec.md §4.8 failure semantics).
func (rc *RecordingCoordinator) Stop() (filename string, shouldDelete bool, err error) {
	if rc.state != RecordingActive {
		return "", false, nil
	}
	realized, stopErr := rc.rec.Stop()
	filename = rc.capture.filename
	rc.state = RecordingIdle
	if stopErr != nil {
		// Recorder failure: reset to IDLE without file deletion
		// (spec.md §4.8 failure semantics).
		return filename, false, fmt.Errorf("%w: %v", ErrRecorderFailure, stopErr)
	}
	if time.Duration(realized*float64(time.Second)) < rc.capture.minDuration {
		return filename, true, nil
	}
	rc.filesCount++
	rc.sequenceNum++
	return filename, false, nil
}

// maybeResetDailyCounter resets the daily counter across an observed
// local-midnight boundary (invariant #10); the engine polls this at
// least every 10 minutes and on start() (spec.md §4.8).
func (rc *RecordingCoordinator) maybeResetDailyCounter(now time.Time) {
	today := now.Format("2006-01-02")
	if rc.lastResetDate != today {
		rc.lastResetDate = today
		rc.sequenceNum = 0
	}
}

// Counters exposes the coordinator's persisted state for saving back
// into the Scanner document.
func (rc *RecordingCoordinator) Counters() (sequenceNum, filesCount int, lastResetDate string) {
	return rc.sequenceNum, rc.filesCount, rc.lastResetDate
}

// renderFilename expands the $y$M$d$h$m$s$f$r$n placeholder template
// (spec.md §4.8: year/month/day/hour/minute/second/frequency-Hz/
// demod-mode/sequence).
func renderFilename(template string, now time.Time, freqHz float64, mode DemodMode, seq int) string {
	r := strings.NewReplacer(
		"$y", fmt.Sprintf("%04d", now.Year()),
		"$M", fmt.Sprintf("%02d", now.Month()),
		"$d", fmt.Sprintf("%02d", now.Day()),
		"$h", fmt.Sprintf("%02d", now.Hour()),
		"$m", fmt.Sprintf("%02d", now.Minute()),
		"$s", fmt.Sprintf("%02d", now.Second()),
		"$f", strconv.FormatFloat(freqHz, 'f', 0, 64),
		"$r", mode.String(),
		"$n", fmt.Sprintf("%04d", seq),
	)
	return r.Replace(template)
}

func (m DemodMode) String() string {
	names := [...]string{"NFM", "WFM", "AM", "DSB", "USB", "CW", "LSB", "RAW"}
	if m < 0 || int(m) >= len(names) {
		return "UNKNOWN"
	}
	return names[m]
}
