// Package httpapi publishes the scan engine's external read surface
// over HTTP (spec.md §4.9/§6), grounded on nicerx/http's per-resource
// ServeMux handler shape (http.go + sdr.go: StripPrefix-mounted
// sub-mux per resource, JSON responses via encoding/json).
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/chzchzchz/freqscan/catalog"
	"github.com/chzchzchz/freqscan/engine"
	"github.com/chzchzchz/freqscan/radio"
)

// Server exposes the catalog and engine over HTTP.
type Server struct {
	cat     *catalog.Catalog
	builder *catalog.Builder
	names   *catalog.NameCache
	eng     *engine.Engine

	devices func(context.Context) ([]radio.SDRHWInfo, error)
}

func New(cat *catalog.Catalog, builder *catalog.Builder, names *catalog.NameCache, eng *engine.Engine) *Server {
	return &Server{cat: cat, builder: builder, names: names, eng: eng}
}

// SetDeviceLister wires a /devices enumerator (radio.SDRList in
// production). Left nil, /devices reports 503.
func (s *Server) SetDeviceLister(f func(context.Context) ([]radio.SDRHWInfo, error)) {
	s.devices = f
}

func ServeHttp(s *Server, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/scanlist", s.handleScanList)
	mux.HandleFunc("/name", s.handleName)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/devices", s.handleDevices)
	return http.ListenAndServe(addr, mux)
}

// scanEntryView is the JSON projection of a catalog.ScanEntry.
type scanEntryView struct {
	FrequencyHz  float64 `json:"frequency_hz"`
	FromBand     bool    `json:"from_band"`
	BookmarkName string  `json:"bookmark_name"`
	BookmarkID   uint64  `json:"bookmark_id,omitempty"`
	ProfileID    uint64  `json:"profile_id,omitempty"`
}

func (s *Server) handleScanList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	entries := s.builder.Get()
	views := make([]scanEntryView, len(entries))
	for i, ent := range entries {
		views[i] = scanEntryView{
			FrequencyHz:  ent.FrequencyHz,
			FromBand:     ent.FromBand,
			BookmarkName: ent.BookmarkName,
			BookmarkID:   uint64(ent.BookmarkID),
			ProfileID:    uint64(ent.ProfileID),
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views)
}

func (s *Server) handleName(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	freq, err := parseFreqParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	name := s.names.Lookup(freq)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"name": name})
}

// noiseFloorSource is implemented by radio's fftwSource; engine.FftSource
// itself carries no diagnostic surface, so handleStatus type-asserts
// for this capability rather than widening the interface every caller
// must implement.
type noiseFloorSource interface {
	NoiseFloorDB() float64
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	snap := s.eng.Snapshot()
	body := map[string]interface{}{
		"state":      snap.State,
		"current_hz": snap.CurrentHz,
		"direction":  snap.Direction,
		"running":    snap.Running,
	}
	if nf, ok := s.eng.FftSource().(noiseFloorSource); ok {
		body["noise_floor_db"] = nf.NoiseFloorDB()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.devices == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	devs, err := s.devices(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(devs)
}

func parseFreqParam(r *http.Request) (float64, error) {
	return parseFloatQuery(r, "freq")
}
