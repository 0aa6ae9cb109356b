package session

import (
	"context"
	"errors"
	"time"

	"github.com/whyfires/firescope/pkg/arearisk"
	"github.com/whyfires/firescope/pkg/backend"
	"github.com/whyfires/firescope/pkg/fire"
	"github.com/whyfires/firescope/pkg/mapview"
)

// NoDetail is shown when the backend has no row for an activated point.
const NoDetail = "No detail found for this point."

// Detail looks up the full record behind a map point and renders the detail text.
func (s *Session) Detail(ctx context.Context, p mapview.Payload) (string, error) {
	s.mu.Lock()
	year, country := s.year, s.country
	s.touch()
	s.mu.Unlock()
	if country == "" {
		return "", ErrNoSelection
	}

	rec, err := s.b.Detail(ctx, backend.NewDetailRequest(year, country, p))
	if errors.Is(err, backend.ErrNoData) {
		return NoDetail, nil
	}
	if err != nil {
		return "", err
	}
	return fire.DescribeDetail(country, rec), nil
}

// Activate handles a click on a map point. Points without a date are ignored and
// return ok=false.
func (s *Session) Activate(ctx context.Context, p mapview.Point) (text string, ok bool, err error) {
	s.mu.Lock()
	payload, ok := s.events.Activate(p)
	s.mu.Unlock()
	if !ok {
		return "", false, nil
	}
	text, err = s.Detail(ctx, payload)
	return text, true, err
}

// Today is the default prediction start date, in local time.
func Today() string { return time.Now().Format("2006-01-02") }

// Predict requests per-area risk for country from start. An empty country falls back to
// the selected one and an empty start to today.
func (s *Session) Predict(ctx context.Context, country, start string) (*backend.PredictResult, error) {
	s.mu.Lock()
	if country == "" {
		country = s.country
	}
	s.touch()
	s.mu.Unlock()
	if country == "" {
		return nil, ErrNoSelection
	}
	if start == "" {
		start = Today()
	}

	res, err := s.b.Predict(ctx, country, start)
	if err != nil {
		return nil, err
	}
	if res.Country == "" {
		res.Country = country
	}
	s.mu.Lock()
	s.prediction = res
	s.mu.Unlock()
	s.log.Debugf("session %s: %d area predictions for %s", s.ID, len(res.Predictions), country)
	return res, nil
}

// Prediction returns the last prediction, or nil.
func (s *Session) Prediction() *backend.PredictResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prediction
}

// ToggleAreaRisk flips between points and area-risk mode and returns the new flag.
func (s *Session) ToggleAreaRisk() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.areaRisk = !s.areaRisk
	s.events.Unhover()
	return s.areaRisk
}

func (s *Session) AreaRisk() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.areaRisk
}

// AreaView renders the area polygons of the predicted country coloured by risk. Without
// a prediction the view is empty.
func (s *Session) AreaView(ctx context.Context) (mapview.View, error) {
	s.mu.Lock()
	pred := s.prediction
	key := s.country
	lookup := s.lookup
	s.mu.Unlock()

	if pred == nil {
		return mapview.BuildAreaView(nil, key, lookup), nil
	}
	if pred.Country != "" {
		key = pred.Country
	}
	fc, err := s.areas.Get(ctx, key)
	if err != nil {
		return mapview.BuildAreaView(nil, key, lookup), err
	}
	regions := arearisk.Enrich(arearisk.FromFeatureCollection(key, fc), pred.Predictions)
	return mapview.BuildAreaView(regions, key, lookup), nil
}
