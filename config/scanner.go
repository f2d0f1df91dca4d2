package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// FrequencyRangeRecord is the TOML projection of a legacy engine.FrequencyRange.
type FrequencyRangeRecord struct {
	Name    string  `toml:"name"`
	Start   float64 `toml:"start_freq"`
	Stop    float64 `toml:"stop_freq"`
	Enabled bool    `toml:"enabled"`
}

// ScannerDocument is the persisted Scanner shape (spec.md §6).
type ScannerDocument struct {
	StartFreq float64 `toml:"start_freq"`
	StopFreq  float64 `toml:"stop_freq"`
	Interval  float64 `toml:"interval"`

	PassbandRatio float64 `toml:"passband_ratio"`
	TuningTimeMs  float64 `toml:"tuning_time_ms"`
	LingerTimeMs  float64 `toml:"linger_time_ms"`
	Level         float64 `toml:"level"`
	ScanUp        bool    `toml:"scan_up"`

	BlacklistTolerance float64   `toml:"blacklist_tolerance"`
	BlacklistedFreqs   []float64 `toml:"blacklisted_freqs"`

	SquelchDelta       float64 `toml:"squelch_delta"`
	SquelchDeltaAuto   bool    `toml:"squelch_delta_auto"`
	MuteWhileScanning  bool    `toml:"mute_while_scanning"`
	AggressiveMute     bool    `toml:"aggressive_mute"`
	AggressiveMuteLevel float64 `toml:"aggressive_mute_level"`

	UnlockHighSpeed bool    `toml:"unlock_high_speed"`
	TuningTimeAuto  bool    `toml:"tuning_time_auto"`
	ScanRateHz      float64 `toml:"scan_rate_hz"`

	AutoRecord            bool   `toml:"auto_record"`
	AutoRecordMinDuration float64 `toml:"auto_record_min_duration"`
	AutoRecordPath        string `toml:"auto_record_path"`
	AutoRecordNameTemplate string `toml:"auto_record_name_template"`
	RecordingSequenceNum  int    `toml:"recording_sequence_num"`
	RecordingFilesCount   int    `toml:"recording_files_count"`
	LastResetDate         string `toml:"last_reset_date"`

	FrequencyRanges  []FrequencyRangeRecord `toml:"frequency_ranges"`
	CurrentRangeIndex int                   `toml:"current_range_index"`
}

func LoadScanner(path string) (*ScannerDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc := &ScannerDocument{}
	dec := toml.NewDecoder(f)
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("config: decode scanner: %w", err)
	}
	return doc, nil
}

func SaveScanner(path string, doc *ScannerDocument) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("config: encode scanner: %w", err)
	}
	return nil
}
