package session

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/whyfires/firescope/pkg/backend"
)

const greeceRecords = `[
	{"latitude":38.1,"longitude":23.7,"brightness":330.5,"acq_date":"2021-08-05","acq_time":"1015","daynight":"D","type":0},
	{"latitude":37.9,"longitude":22.1,"brightness":310,"acq_date":"2021-08-06","acq_time":"0130","daynight":"N","type":0},
	{"latitude":35.2,"longitude":24.9,"brightness":301,"acq_date":"2021-03-02","acq_time":"1200","daynight":"D","type":2}
]`

const greeceAreas = `{"type":"FeatureCollection","features":[
	{"type":"Feature","properties":{"NAME_1":"Attica"},
	 "geometry":{"type":"Polygon","coordinates":[[[23,38],[24,38],[24,39],[23,39],[23,38]]]}},
	{"type":"Feature","properties":{"NAME_1":"Crete"},
	 "geometry":{"type":"Polygon","coordinates":[[[24,35],[26,35],[26,36],[24,36],[24,35]]]}}
]}`

const greeceOutline = `{"type":"FeatureCollection","features":[
	{"type":"Feature","properties":{"name":"Greece"},
	 "geometry":{"type":"Polygon","coordinates":[[[20,35],[28,35],[28,42],[20,42],[20,35]]]}}
]}`

const countriesMeta = `{"countriesLonLat":{"Greece":{"lat":39.07,"lon":21.82}},"countriesZoom":{"Greece":5.5}}`

func jsonBody(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}
}

func sseEvent(w http.ResponseWriter, data string) {
	fmt.Fprintf(w, "data: %s\n\n", data)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// greeceRoutes is a backend that knows about Greece in 2021.
func greeceRoutes() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"GET /api/countriesMeta":              jsonBody(countriesMeta),
		"GET /api/data":                       greeceData,
		"GET /geojson/greece.geojson":         jsonBody(greeceOutline),
		"GET /geojson/greece_areas.geojson":   jsonBody(greeceAreas),
		"GET /geojson/atlantis.geojson":       http.NotFound,
		"GET /geojson/atlantis_areas.geojson": http.NotFound,
		"POST /api/predict":                   jsonBody(`{"country":"Greece","country_area_percentage":12.5,"predictions":[{"area":"Attica","fire_risk_percent":40},{"area":"Crete","fire_risk_percent":0}]}`),
		"GET /api/analysis_results/run-1":     jsonBody(`{"success":true,"data":{"monthly":[{"month":8,"count":2}]},"stats":{"total_fires":2}}`),
		"GET /api/analysis_results/other-run": jsonBody(`{"success":true,"data":{},"stats":{"total_fires":9}}`),
		"POST /api/analyze":                   jsonBody(`{"success":true,"session_id":"run-1"}`),
	}
}

func greeceData(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("country") != "Greece" || r.URL.Query().Get("year") != "2021" {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"Data file not found"}`)
		return
	}
	jsonBody(greeceRecords)(w, r)
}

func newTestSession(t *testing.T, routes map[string]http.HandlerFunc) *Session {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, h := range routes {
		mux.HandleFunc(pattern, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := backend.New(backend.Config{
		BaseURL:      srv.URL,
		Timeout:      5 * time.Second,
		RetryMax:     1,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
	})
	s := New("test", c, nil)
	t.Cleanup(s.Close)
	return s
}

func waitFinished(t *testing.T, s *Session) AnalysisStatus {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if st, ok := s.AnalysisStatus(); ok && !st.Running {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("analysis did not finish")
	return AnalysisStatus{}
}
