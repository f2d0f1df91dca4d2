package radio

import (
	"testing"

	"github.com/chzchzchz/freqscan/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGainSDR struct {
	bands    []HzBand
	lastGain uint32
}

func (f *fakeGainSDR) SetBand(b HzBand) error {
	f.bands = append(f.bands, b)
	return nil
}
func (f *fakeGainSDR) SetFreqCorrection(uint32) error { return nil }
func (f *fakeGainSDR) Info() SDRHWInfo                { return SDRHWInfo{} }
func (f *fakeGainSDR) Close() error                   { return nil }
func (f *fakeGainSDR) Reader() *MixerIQReader         { return nil }
func (f *fakeGainSDR) SetGain(gain uint32) error {
	f.lastGain = gain
	return nil
}

func TestRtlReceiverTuneSetsBand(t *testing.T) {
	sdr := &fakeGainSDR{}
	rx := NewReceiver(sdr, "vfo0")
	require.NoError(t, rx.SetBandwidth("vfo0", 12500))
	require.NoError(t, rx.Tune("vfo0", 145500000))
	require.Len(t, sdr.bands, 1)
	assert.Equal(t, uint64(145500000), sdr.bands[0].Center)
	assert.Equal(t, uint64(12500), sdr.bands[0].Width)
}

func TestRtlReceiverSetGainWiresThrough(t *testing.T) {
	sdr := &fakeGainSDR{}
	rx := NewReceiver(sdr, "vfo0")
	require.NoError(t, rx.SetGain(20.5))
	assert.Equal(t, uint32(205), sdr.lastGain)
}

func TestRtlReceiverSquelchUnsupported(t *testing.T) {
	sdr := &fakeGainSDR{}
	rx := NewReceiver(sdr, "vfo0")
	assert.ErrorIs(t, rx.SetSquelchEnabled("vfo0", true), engine.ErrInterfaceMissing)
	assert.ErrorIs(t, rx.SetSquelchLevel("vfo0", -40), engine.ErrInterfaceMissing)
	_, err := rx.SquelchLevel("vfo0")
	assert.ErrorIs(t, err, engine.ErrInterfaceMissing)
}

func TestRtlReceiverSelectedVFO(t *testing.T) {
	rx := NewReceiver(&fakeGainSDR{}, "vfo0")
	assert.Equal(t, "vfo0", rx.SelectedVFO())
}

func TestFftwSourceUnavailableBeforeFirstMeasurement(t *testing.T) {
	s := &fftwSource{sdr: &fakeGainSDR{}, bins: 64}
	_, _, _, err := s.AcquireRawFFT()
	assert.ErrorIs(t, err, engine.ErrFFTUnavailable)
}
