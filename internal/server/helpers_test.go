package server

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/whyfires/firescope/pkg/backend"
)

func jsonBody(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}
}

func fakeFireBackend() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"GET /api/countriesMeta": jsonBody(`{"countriesLonLat":{"Greece":{"lat":39.07,"lon":21.82}},"countriesZoom":{"Greece":5.5}}`),
		"GET /api/countries": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("year") != "2021" {
				jsonBody(`{"countries":[]}`)(w, r)
				return
			}
			jsonBody(`{"countries":["Greece","Italy"]}`)(w, r)
		},
		"GET /api/data": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("country") != "Greece" {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"error":"Data file not found"}`)
				return
			}
			jsonBody(`[{"latitude":38.1,"longitude":23.7,"brightness":330.5,"acq_date":"2021-08-05","acq_time":"1015","daynight":"D","type":0},
			           {"latitude":37.9,"longitude":22.1,"brightness":310,"acq_date":"2021-08-06","acq_time":"0130","daynight":"N","type":0}]`)(w, r)
		},
		"GET /geojson/greece.geojson": http.NotFound,
		"POST /api/analyze":           jsonBody(`{"success":true,"session_id":"run-1"}`),
		"GET /api/progress/run-1": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			for _, m := range []string{"data: {\"progress\":40,\ndata: \"phase\":\"aggregating\"}", `data: {"progress":100,"phase":"complete"}`} {
				fmt.Fprintf(w, "%s\n\n", m)
				w.(http.Flusher).Flush()
				time.Sleep(20 * time.Millisecond)
			}
		},
		"GET /api/analysis_results/run-1": jsonBody(`{"success":true,
			"data":{"monthly":[{"month":8,"count":2}],"country":[{"country":"Greece","count":2}],
			        "selection_info":{"single_country_selected":false}},
			"stats":{"total_fires":2,"avg_brightness":320.25,"avg_confidence":80,"avg_frp":11}}`),
	}
}

// testServer starts a dashboard in front of a fake backend and returns its URL and a
// client that keeps the session cookie.
func testServer(t *testing.T, user, pass string) (*Server, string, *http.Client) {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, h := range fakeFireBackend() {
		mux.HandleFunc(pattern, h)
	}
	upstream := httptest.NewServer(mux)
	t.Cleanup(upstream.Close)

	c := backend.New(backend.Config{BaseURL: upstream.URL, RetryMax: 1, RetryWaitMin: time.Millisecond, RetryWaitMax: time.Millisecond})
	s := New(c, user, pass)
	h, err := s.Handler()
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	t.Cleanup(s.StopJobs)

	jar, _ := cookiejar.New(nil)
	return s, srv.URL, &http.Client{Jar: jar, Timeout: 10 * time.Second}
}
