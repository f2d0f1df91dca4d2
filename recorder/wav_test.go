package recorder

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chzchzchz/freqscan/engine"
	"github.com/chzchzchz/freqscan/radio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeFormatNarrowbandVsWFM(t *testing.T) {
	rate, depth, channels := modeFormat(engine.ModeNFM)
	assert.Equal(t, 8000, rate)
	assert.Equal(t, 16, depth)
	assert.Equal(t, 1, channels)

	rate, depth, channels = modeFormat(engine.ModeWFM)
	assert.Equal(t, 48000, rate)
	assert.Equal(t, 16, depth)
	assert.Equal(t, 2, channels)
}

func TestWavRecorderStartWriteStop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.wav")

	r := New()
	r.SetAudioFormat(engine.ModeWFM)
	require.NoError(t, r.SetMode(true))
	require.NoError(t, r.SetExternalControl("engine"))
	require.NoError(t, r.StartWithFilename(path))

	require.NoError(t, r.Write(make([]byte, 128)))

	time.Sleep(5 * time.Millisecond)
	realized, err := r.Stop()
	require.NoError(t, err)
	assert.Greater(t, realized, 0.0)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(128))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	wr, err := wav.NewReader(f)
	require.NoError(t, err)
	assert.Equal(t, 2, wr.Channels())
	assert.Equal(t, 48000, wr.SampleRate())
	assert.Equal(t, 16, wr.BitDepth())
}

func TestWavRecorderDoubleStartRejected(t *testing.T) {
	dir := t.TempDir()
	r := New()
	require.NoError(t, r.StartWithFilename(filepath.Join(dir, "a.wav")))
	assert.Error(t, r.StartWithFilename(filepath.Join(dir, "b.wav")))
	_, err := r.Stop()
	require.NoError(t, err)
}

func TestWavRecorderStopWhenNotActiveIsNoop(t *testing.T) {
	r := New()
	realized, err := r.Stop()
	require.NoError(t, err)
	assert.Equal(t, 0.0, realized)
}

func TestWavRecorderWriteWithoutStartFails(t *testing.T) {
	r := New()
	assert.ErrorIs(t, r.Write([]byte{1, 2}), engine.ErrRecorderFailure)
}
