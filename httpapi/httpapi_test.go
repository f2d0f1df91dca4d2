package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chzchzchz/freqscan/catalog"
	"github.com/chzchzchz/freqscan/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReceiver struct{}

func (fakeReceiver) Tune(string, float64) error                  { return nil }
func (fakeReceiver) Bandwidth(string) (float64, error)           { return 0, nil }
func (fakeReceiver) SetMode(string, engine.DemodMode) error      { return nil }
func (fakeReceiver) SetBandwidth(string, float64) error          { return nil }
func (fakeReceiver) SetGain(float64) error                       { return nil }
func (fakeReceiver) SetSquelchEnabled(string, bool) error        { return nil }
func (fakeReceiver) SetSquelchLevel(string, float64) error       { return nil }
func (fakeReceiver) SquelchLevel(string) (float64, error)        { return 0, nil }
func (fakeReceiver) SelectedVFO() string                         { return "vfo0" }

type fakeFftSource struct{}

func (fakeFftSource) AcquireRawFFT() ([]float32, float64, float64, error) {
	return make([]float32, 16), 0, 1000, nil
}
func (fakeFftSource) ReleaseRawFFT() {}

type fakeRecorder struct{}

func (fakeRecorder) SetMode(bool) error             { return nil }
func (fakeRecorder) SetExternalControl(string) error { return nil }
func (fakeRecorder) StartWithFilename(string) error  { return nil }
func (fakeRecorder) Stop() (float64, error)          { return 0, nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cat := catalog.New()
	require.NoError(t, cat.AddBookmark("default", "A", catalog.Bookmark{
		Kind: catalog.KindFrequency, FrequencyHz: 145500000, NominalBWHz: 12500, Scannable: true,
	}))
	builder := catalog.NewBuilder(cat)
	bl := catalog.NewBlacklist()
	names := catalog.NewNameCache(cat, bl)
	eng := engine.New(cat, builder, bl, fakeReceiver{}, fakeFftSource{}, fakeRecorder{}, "vfo0", engine.Config{
		ScanRateHz: 50, VFOBandwidthHz: 200000,
	}, nil)
	return New(cat, builder, names, eng)
}

func TestHandleScanListReturnsEntries(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/scanlist", nil)
	w := httptest.NewRecorder()
	s.handleScanList(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var views []scanEntryView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, 145500000.0, views[0].FrequencyHz)
}

func TestHandleNameLooksUpBookmark(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/name?freq=145500000", nil)
	w := httptest.NewRecorder()
	s.handleName(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "A", body["name"])
}

func TestHandleNameRejectsMissingParam(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/name", nil)
	w := httptest.NewRecorder()
	s.handleName(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleStatusReportsSnapshot(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	s.handleStatus(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "SCANNING", body["state"])
	assert.Equal(t, false, body["running"])
}

func TestHandleScanListRejectsNonGet(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/scanlist", nil)
	w := httptest.NewRecorder()
	s.handleScanList(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
