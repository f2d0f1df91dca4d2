package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameMaxLevel(t *testing.T) {
	bins := flatSpectrum(1000, 88_000_000, 20_000_000, -90, 98_700_000, -30)
	f := Frame{Bins: bins, WaterfallStartHz: 88_000_000, WaterfallWidthHz: 20_000_000}

	assert.InDelta(t, -30, f.MaxLevel(98_700_000, 20_000), 1)
	assert.InDelta(t, -90, f.MaxLevel(90_000_000, 20_000), 1)
}

func TestFrameMaxLevelEmptyFrame(t *testing.T) {
	var f Frame
	assert.True(t, math.IsInf(f.MaxLevel(100, 10), -1))
}

func TestDetectionWidth(t *testing.T) {
	assert.Equal(t, 5000.0, detectionWidth(false, 200000, 0.1))
	assert.Equal(t, 20000.0, detectionWidth(true, 200000, 0.1))
}

func TestSearchRadiusAndStepClamp(t *testing.T) {
	assert.Equal(t, 5000.0, searchRadius(100))
	assert.Equal(t, 50000.0, searchRadius(1_000_000))
	assert.Equal(t, 100.0, searchStep(100, 1))
	assert.Equal(t, 2000.0, searchStep(1_000_000, 1))
}

type alwaysClearBlacklist struct{}

func (alwaysClearBlacklist) Matches(float64) bool { return false }

func TestFindSignalPeakHighResMovesToStrongerPeak(t *testing.T) {
	bins := flatSpectrum(200_000, 88_000_000, 20_000_000, -90, 98_703_000, -20)
	f := Frame{Bins: bins, WaterfallStartHz: 88_000_000, WaterfallWidthHz: 20_000_000}

	result := FindSignalPeakHighRes(f, 98_700_000, 2_000, 88_000_000, 108_000_000, alwaysClearBlacklist{})
	assert.InDelta(t, 98_703_000, result, 2000)
}

func TestFindSignalPeakHighResHoldsWithNoStrongerCandidate(t *testing.T) {
	bins := flatSpectrum(2000, 88_000_000, 20_000_000, -40, 98_700_000, -40)
	f := Frame{Bins: bins, WaterfallStartHz: 88_000_000, WaterfallWidthHz: 20_000_000}

	result := FindSignalPeakHighRes(f, 98_700_000, 12_500, 88_000_000, 108_000_000, alwaysClearBlacklist{})
	assert.Equal(t, 98_700_000.0, result)
}

func TestFindSignalPeakHighResRejectsBlacklistedResult(t *testing.T) {
	bins := flatSpectrum(2000, 88_000_000, 20_000_000, -90, 98_703_000, -20)
	f := Frame{Bins: bins, WaterfallStartHz: 88_000_000, WaterfallWidthHz: 20_000_000}

	result := FindSignalPeakHighRes(f, 98_700_000, 12_500, 88_000_000, 108_000_000, blacklistAt(98_703_000))
	assert.Equal(t, 98_700_000.0, result)
}

type blacklistAt float64

func (b blacklistAt) Matches(hz float64) bool {
	d := float64(b) - hz
	if d < 0 {
		d = -d
	}
	return d < 1000
}
