// Package session owns the dashboard state of one user: the loaded record set, the
// filter state, the map view inputs, predictions, the area-risk toggle and the running
// analysis. All state lives on the Session and is guarded by its mutex; the last
// completed write wins.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	geojson "github.com/paulmach/go.geojson"

	"github.com/whyfires/firescope/pkg/arearisk"
	"github.com/whyfires/firescope/pkg/backend"
	"github.com/whyfires/firescope/pkg/calendar"
	"github.com/whyfires/firescope/pkg/colormap"
	"github.com/whyfires/firescope/pkg/filter"
	"github.com/whyfires/firescope/pkg/fire"
	"github.com/whyfires/firescope/pkg/mapview"
	"github.com/whyfires/firescope/pkg/progress"
)

// Backend is the part of the backend client a session uses. *backend.Client implements it.
type Backend interface {
	CountriesMeta(ctx context.Context) (mapview.Meta, error)
	Records(ctx context.Context, year int, country string) ([]fire.Record, error)
	Detail(ctx context.Context, r backend.DetailRequest) (fire.Record, error)
	Predict(ctx context.Context, country, startDate string) (*backend.PredictResult, error)
	CountryGeoJSON(ctx context.Context, country string) (*geojson.FeatureCollection, error)
	AreaGeoJSON(ctx context.Context, country string) (*geojson.FeatureCollection, error)

	StartAnalysis(ctx context.Context, f backend.AnalysisFilter) (string, error)
	AnalysisProgress(ctx context.Context, sessionID string) (*backend.Stream, error)
	StopAnalysis(ctx context.Context, sessionID string) (string, error)
	AnalysisResults(ctx context.Context, sessionID string) (*backend.AnalysisResults, error)
}

// ErrNoSelection is returned by operations that need a selected country.
var ErrNoSelection = errors.New("please select a country")

// Session is one user's dashboard state.
type Session struct {
	ID      string
	Created time.Time

	b   Backend
	log progress.Logger

	areas    *arearisk.Cache
	outlines *arearisk.Cache
	streams  *progress.Registry

	mu         sync.Mutex
	year       int
	country    string
	records    []fire.Record
	filters    filter.State
	lookup     mapview.Lookup
	prediction *backend.PredictResult
	areaRisk   bool
	events     mapview.Events
	camera     *mapview.Center
	lastUsed   time.Time
	analysis   *analysis
	results    map[string]*backend.AnalysisResults
}

func New(id string, b Backend, log progress.Logger) *Session {
	if log == nil {
		log = nopLogger{}
	}
	now := time.Now()
	s := &Session{
		ID:       id,
		Created:  now,
		b:        b,
		log:      log,
		streams:  progress.NewRegistry(log),
		filters:  filter.Default(),
		lookup:   mapview.Lookup{},
		lastUsed: now,
		results:  make(map[string]*backend.AnalysisResults),
	}
	s.areas = arearisk.NewCache(func(ctx context.Context, country string) (*geojson.FeatureCollection, error) {
		return b.AreaGeoJSON(ctx, country)
	})
	s.outlines = arearisk.NewCache(func(ctx context.Context, country string) (*geojson.FeatureCollection, error) {
		return b.CountryGeoJSON(ctx, country)
	})
	return s
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

func (s *Session) touch() { s.lastUsed = time.Now() }

// LastUsed is when the session last served a request.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Selection is the current (year, country) and how many records it holds.
type Selection struct {
	Year     int          `json:"year"`
	Country  string       `json:"country"`
	Records  int          `json:"records"`
	Filtered int          `json:"filtered"`
	Filters  filter.State `json:"filters"`
	Active   []string     `json:"active_filters"`
	AreaRisk bool         `json:"area_risk"`
}

func (s *Session) selectionLocked() Selection {
	return Selection{
		Year:     s.year,
		Country:  s.country,
		Records:  len(s.records),
		Filtered: len(filter.Apply(s.records, s.filters)),
		Filters:  s.filters,
		Active:   s.filters.Summary(),
		AreaRisk: s.areaRisk,
	}
}

func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectionLocked()
}

// Select loads the records for (year, country), replacing the current set wholesale.
// A "no data" answer still replaces the set (with an empty one) and is returned wrapped
// in backend.ErrNoData so callers can show it as information.
func (s *Session) Select(ctx context.Context, year int, country string) (Selection, error) {
	if country == "" {
		return s.Selection(), &backend.MissingFieldsError{Fields: []string{"country"}}
	}
	recs, err := s.b.Records(ctx, year, country)
	if err != nil && !errors.Is(err, backend.ErrNoData) {
		s.log.Warnf("loading %s %d: %v", country, year, err)
		return s.Selection(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.year, s.country = year, country
	s.records = recs
	s.camera = nil
	s.events.Unhover()
	s.log.Debugf("session %s selected %s %d (%d records)", s.ID, country, year, len(recs))
	return s.selectionLocked(), err
}

// Records returns the loaded set. The slice must not be modified.
func (s *Session) Records() []fire.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records
}

// SetFilters validates and stores a new filter state.
func (s *Session) SetFilters(st filter.State) (Selection, error) {
	if err := st.Validate(); err != nil {
		return s.Selection(), err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.filters = st
	s.events.Unhover()
	return s.selectionLocked(), nil
}

// Filtered applies the current filters to the loaded records.
func (s *Session) Filtered() []fire.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter.Apply(s.records, s.filters)
}

// Legend is the colour legend for the filtered set.
func (s *Session) Legend() colormap.Legend {
	return colormap.NewLegend(filter.BrightnessRange(s.Filtered()))
}

// SetLookup replaces the region centre lookup, e.g. after a shared refresh.
func (s *Session) SetLookup(l mapview.Lookup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookup = l
}

// RefreshMeta reloads the region centre lookup from the backend.
func (s *Session) RefreshMeta(ctx context.Context) error {
	meta, err := s.b.CountriesMeta(ctx)
	if err != nil {
		return err
	}
	s.SetLookup(mapview.NewLookup(meta))
	return nil
}

// lookupOrRefresh returns the region centre lookup, fetching it first when no refresh
// has succeeded yet.
func (s *Session) lookupOrRefresh(ctx context.Context) mapview.Lookup {
	s.mu.Lock()
	lookup := s.lookup
	s.mu.Unlock()
	if len(lookup) > 0 {
		return lookup
	}
	if err := s.RefreshMeta(ctx); err != nil {
		s.log.Warnf("loading region centres: %v", err)
		return lookup
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup
}

// View returns the map view for the current mode, at the camera left by Zoom. In points
// mode the country outline is added when it can be loaded; failing to load it only costs
// the outline.
func (s *Session) View(ctx context.Context) (mapview.View, error) {
	lookup := s.lookupOrRefresh(ctx)

	s.mu.Lock()
	areaRisk := s.areaRisk
	country := s.country
	recs := filter.Apply(s.records, s.filters)
	camera := s.camera
	s.touch()
	s.mu.Unlock()

	var v mapview.View
	if areaRisk {
		var err error
		if v, err = s.AreaView(ctx); err != nil {
			return v, err
		}
	} else {
		v = mapview.Build(recs, country, lookup)
		if country != "" {
			fc, err := s.outlines.Get(ctx, country)
			if err != nil {
				s.log.Debugf("no outline for %s: %v", country, err)
			} else {
				v = v.WithOutline(fc)
			}
		}
	}
	if camera != nil {
		v.Center = *camera
	}
	return v, nil
}

// ZoomStep is a camera move requested by the map controls.
type ZoomStep string

const (
	ZoomIn    ZoomStep = "in"
	ZoomOut   ZoomStep = "out"
	ZoomReset ZoomStep = "reset"
)

// Zoom moves the camera one step from where it is and returns the resulting view.
// The camera returns home on reset or when a new country is selected.
func (s *Session) Zoom(ctx context.Context, step ZoomStep) (mapview.View, error) {
	v, err := s.View(ctx)
	if err != nil {
		return v, err
	}
	switch step {
	case ZoomIn:
		v = v.ZoomIn()
	case ZoomOut:
		v = v.ZoomOut()
	case ZoomReset:
		v = v.Reset()
	default:
		return v, fmt.Errorf("unknown zoom step %q", step)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if step == ZoomReset {
		s.camera = nil
	} else {
		c := v.Center
		s.camera = &c
	}
	return v, nil
}

// Hover, HoverArea and Unhover feed pointer events from the map.
func (s *Session) Hover(p mapview.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events.Hover(p, filter.BrightnessRange(filter.Apply(s.records, s.filters)))
}

func (s *Session) HoverArea(a mapview.AreaPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events.HoverArea(a)
}

func (s *Session) Unhover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events.Unhover()
}

// HoverState is what the tooltip shows.
type HoverState struct {
	Point *mapview.Hovered     `json:"point,omitempty"`
	Area  *mapview.AreaPayload `json:"area,omitempty"`
}

func (s *Session) Hovered() HoverState {
	s.mu.Lock()
	defer s.mu.Unlock()
	var hs HoverState
	if h, ok := s.events.Hovered(); ok {
		hs.Point = &h
	}
	if a, ok := s.events.AreaHovered(); ok {
		hs.Area = &a
	}
	return hs
}

// Calendar lays out forecast days.
func (s *Session) Calendar(days []calendar.Day) (calendar.Grid, error) {
	return calendar.Build(days)
}
