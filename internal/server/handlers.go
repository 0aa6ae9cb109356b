package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/whyfires/firescope/internal/utils"
	"github.com/whyfires/firescope/pkg/backend"
	"github.com/whyfires/firescope/pkg/calendar"
	"github.com/whyfires/firescope/pkg/charts"
	"github.com/whyfires/firescope/pkg/filter"
	"github.com/whyfires/firescope/pkg/mapview"
	"github.com/whyfires/firescope/pkg/session"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var missing *backend.MissingFieldsError
	var upstream *backend.StatusError
	switch {
	case errors.As(err, &missing), errors.Is(err, session.ErrNoSelection):
		status = http.StatusBadRequest
	case errors.Is(err, backend.ErrNoData):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrNoAnalysis):
		status = http.StatusConflict
	case errors.As(err, &upstream):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		utils.Log.Errorf("request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "year must be a number"})
		return
	}
	countries, err := s.Backend.Countries(r.Context(), year)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"countries": countries})
}

type SelectRequest struct {
	Year    int    `json:"year"`
	Country string `json:"country"`
}

type SelectResponse struct {
	session.Selection
	Message string `json:"message,omitempty"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req SelectRequest
	if !decode(w, r, &req) {
		return
	}
	sel, err := sess.Select(r.Context(), req.Year, req.Country)
	if errors.Is(err, backend.ErrNoData) {
		// Nothing to show is still a valid selection.
		writeJSON(w, http.StatusOK, SelectResponse{Selection: sel, Message: err.Error()})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SelectResponse{Selection: sel})
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, sess.Selection())
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	st := filter.Default()
	if !decode(w, r, &st) {
		return
	}
	sel, err := sess.SetFilters(st)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var (
		v   mapview.View
		err error
	)
	switch step := session.ZoomStep(r.URL.Query().Get("zoom")); step {
	case "":
		v, err = sess.View(r.Context())
	case session.ZoomIn, session.ZoomOut, session.ZoomReset:
		v, err = sess.Zoom(r.Context(), step)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "zoom must be in, out or reset"})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type LegendResponse struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Gradient string  `json:"gradient"`
	Bottom   string  `json:"bottom"`
	Top      string  `json:"top"`
}

func (s *Server) handleLegend(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	l := sess.Legend()
	bottom, top := l.Labels()
	writeJSON(w, http.StatusOK, LegendResponse{Min: l.Min, Max: l.Max, Gradient: l.Gradient(), Bottom: bottom, Top: top})
}

// HoverRequest carries either a point, an area marker, or neither to clear.
type HoverRequest struct {
	Point *mapview.Point     `json:"point,omitempty"`
	Area  *mapview.AreaPoint `json:"area,omitempty"`
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req HoverRequest
	if !decode(w, r, &req) {
		return
	}
	switch {
	case req.Point != nil:
		sess.Hover(*req.Point)
	case req.Area != nil:
		sess.HoverArea(*req.Area)
	default:
		sess.Unhover()
	}
	writeJSON(w, http.StatusOK, sess.Hovered())
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var p mapview.Point
	if !decode(w, r, &p) {
		return
	}
	text, ok, err := sess.Activate(r.Context(), p)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "point has no acquisition date"})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": text})
}

type PredictRequest struct {
	Country   string `json:"country"`
	StartDate string `json:"start_date"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req PredictRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := sess.Predict(r.Context(), req.Country, req.StartDate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleToggleAreaRisk(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, map[string]bool{"area_risk": sess.ToggleAreaRisk()})
}

func (s *Server) handleAreaRisk(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	v, err := sess.AreaView(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// CalendarRequest accepts the forecast's probabilities as produced by the forecast stream.
type CalendarRequest struct {
	Probabilities []calendar.Day `json:"probabilities"`
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req CalendarRequest
	if !decode(w, r, &req) {
		return
	}
	g, err := sess.Calendar(req.Probabilities)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if r.URL.Query().Get("format") == "json" {
		writeJSON(w, http.StatusOK, g)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := calendar.RenderHTML(w, g); err != nil {
		utils.Log.Errorf("rendering calendar: %v", err)
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var f backend.AnalysisFilter
	if !decode(w, r, &f) {
		return
	}
	id, err := sess.StartAnalysis(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "session_id": id})
}

func (s *Server) handleAnalysisStatus(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	st, ok := sess.AnalysisStatus()
	if !ok {
		writeError(w, session.ErrNoAnalysis)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleStopAnalysis(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := sess.StopAnalysis(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Analysis stopped"})
}

// handleAnalysisProgress relays the running analysis as server-sent events and ends
// with a "status" event carrying the final state.
func (s *Server) handleAnalysisProgress(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	events, cancel := sess.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				if st, ok := sess.AnalysisStatus(); ok {
					b, _ := json.Marshal(st)
					fmt.Fprintf(w, "event: status\ndata: %s\n\n", b)
					flusher.Flush()
				}
				return
			}
			writeEvent(w, ev)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// writeEvent relays one upstream event. Raw keeps the upstream line breaks, so every
// line gets its own data: field.
func writeEvent(w io.Writer, ev backend.Event) {
	data := ev.Raw
	if len(data) == 0 {
		data, _ = json.Marshal(ev)
	}
	for _, line := range bytes.Split(data, []byte("\n")) {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}

func (s *Server) handleAnalysisChart(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	res, err := sess.Results(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := charts.AnalysisPage(w, res); err != nil {
		utils.Log.Errorf("rendering analysis page: %v", err)
	}
}

type AnnualChartRequest struct {
	AnnualCounts []backend.YearCount `json:"annual_fire_counts"`
}

func (s *Server) handleAnnualChart(w http.ResponseWriter, r *http.Request) {
	var req AnnualChartRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.AnnualCounts) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no annual counts"})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := charts.AnnualCountsPNG(w, req.AnnualCounts); err != nil {
		utils.Log.Errorf("rendering annual chart: %v", err)
	}
}
