package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	geojson "github.com/paulmach/go.geojson"
	"github.com/tidwall/gjson"

	"github.com/whyfires/firescope/pkg/arearisk"
	"github.com/whyfires/firescope/pkg/fire"
	"github.com/whyfires/firescope/pkg/mapview"
)

// CountriesMeta returns the per-country centre and zoom tables.
func (c *Client) CountriesMeta(ctx context.Context) (mapview.Meta, error) {
	b, err := c.get(ctx, "/api/countriesMeta", nil)
	if err != nil {
		return mapview.Meta{}, err
	}
	if err := checkNoData(b); err != nil {
		return mapview.Meta{}, err
	}
	return mapview.ParseMeta(b)
}

// Countries lists the countries with data for year.
func (c *Client) Countries(ctx context.Context, year int) ([]string, error) {
	b, err := c.get(ctx, "/api/countries", url.Values{"year": {strconv.Itoa(year)}})
	if err != nil {
		return nil, err
	}
	if err := checkNoData(b); err != nil {
		return nil, err
	}
	var out []string
	for _, r := range gjson.GetBytes(b, "countries").Array() {
		if s := r.String(); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, noData(fmt.Sprintf("no countries for %d", year))
	}
	return out, nil
}

// Records fetches every detection for (year, country).
func (c *Client) Records(ctx context.Context, year int, country string) ([]fire.Record, error) {
	q := url.Values{
		"year":    {strconv.Itoa(year)},
		"country": {fire.QueryName(country)},
	}
	b, err := c.get(ctx, "/api/data", q)
	if err != nil {
		return nil, err
	}
	if err := checkNoData(b); err != nil {
		return nil, err
	}
	var recs []fire.Record
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	return recs, nil
}

// DetailRequest identifies one point. Every field is sent as a string.
type DetailRequest struct {
	Year      string `json:"year"`
	Country   string `json:"country"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	AcqDate   string `json:"acq_date"`
	AcqTime   string `json:"acq_time"`
}

// NewDetailRequest builds the lookup for a map point payload.
func NewDetailRequest(year int, country string, p mapview.Payload) DetailRequest {
	return DetailRequest{
		Year:      strconv.Itoa(year),
		Country:   fire.QueryName(country),
		Latitude:  strconv.FormatFloat(p.Latitude, 'f', -1, 64),
		Longitude: strconv.FormatFloat(p.Longitude, 'f', -1, 64),
		AcqDate:   p.AcqDate,
		AcqTime:   string(p.AcqTime),
	}
}

// Validate enumerates the empty fields of r.
func (r DetailRequest) Validate() error {
	var missing []string
	for _, f := range []struct{ name, v string }{
		{"year", r.Year}, {"country", r.Country}, {"latitude", r.Latitude},
		{"longitude", r.Longitude}, {"acq_date", r.AcqDate}, {"acq_time", r.AcqTime},
	} {
		if f.v == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// Detail returns the full MODIS row for a point.
func (c *Client) Detail(ctx context.Context, r DetailRequest) (fire.Record, error) {
	if err := r.Validate(); err != nil {
		return fire.Record{}, err
	}
	b, err := c.post(ctx, "/api/detail", r)
	if err != nil {
		return fire.Record{}, err
	}
	if err := checkNoData(b); err != nil {
		return fire.Record{}, err
	}
	var recs []fire.Record
	if err := json.Unmarshal(b, &recs); err != nil {
		return fire.Record{}, fmt.Errorf("decoding detail: %w", err)
	}
	if len(recs) == 0 {
		return fire.Record{}, noData("")
	}
	return recs[0], nil
}

// PredictResult is the per-area risk payload for a country.
type PredictResult struct {
	Country               string                `json:"country"`
	CountryAreaPercentage float64               `json:"country_area_percentage"`
	Predictions           []arearisk.Prediction `json:"predictions"`
}

// Predict asks for per-area fire risk from startDate (YYYY-MM-DD).
func (c *Client) Predict(ctx context.Context, country, startDate string) (*PredictResult, error) {
	var missing []string
	if country == "" {
		missing = append(missing, "country")
	}
	if startDate == "" {
		missing = append(missing, "start date")
	}
	if len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}
	b, err := c.post(ctx, "/api/predict", map[string]string{"country": country, "start_date": startDate})
	if err != nil {
		return nil, err
	}
	if err := checkNoData(b); err != nil {
		return nil, err
	}
	var res PredictResult
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, fmt.Errorf("decoding prediction: %w", err)
	}
	return &res, nil
}

// ConfidenceRange bounds detection confidence in an analysis.
type ConfidenceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// AnalysisFilter selects the data a batch analysis runs over.
type AnalysisFilter struct {
	Years           []int           `json:"years"`
	Countries       []string        `json:"countries"`
	ConfidenceRange ConfidenceRange `json:"confidenceRange"`
	DayNight        string          `json:"daynight,omitempty"`
	Type            *fire.Type      `json:"type,omitempty"`
}

// Validate checks the filter before it is sent.
func (f AnalysisFilter) Validate() error {
	var missing []string
	if len(f.Years) == 0 {
		missing = append(missing, "years")
	}
	if len(f.Countries) == 0 {
		missing = append(missing, "countries")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	if f.DayNight != "" && f.DayNight != fire.Day && f.DayNight != fire.Night {
		return fmt.Errorf("daynight must be %q or %q, got %q", fire.Day, fire.Night, f.DayNight)
	}
	if f.ConfidenceRange.Min > f.ConfidenceRange.Max {
		return fmt.Errorf("confidence range %v..%v is inverted", f.ConfidenceRange.Min, f.ConfidenceRange.Max)
	}
	return nil
}

// StartAnalysis starts a batch analysis and returns its session id.
func (c *Client) StartAnalysis(ctx context.Context, f AnalysisFilter) (string, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}
	b, err := c.post(ctx, "/api/analyze", f)
	if err != nil {
		return "", err
	}
	if !gjson.GetBytes(b, "success").Bool() {
		return "", fmt.Errorf("analysis not started: %s", orUnknown(gjson.GetBytes(b, "error").String()))
	}
	id := gjson.GetBytes(b, "session_id").String()
	if id == "" {
		return "", fmt.Errorf("analysis started without a session id")
	}
	return id, nil
}

// StopAnalysis asks the backend to stop a running analysis. An empty id stops whatever
// is running. The acknowledgement message is returned.
func (c *Client) StopAnalysis(ctx context.Context, sessionID string) (string, error) {
	body := map[string]string{}
	if sessionID != "" {
		body["session_id"] = sessionID
	}
	b, err := c.post(ctx, "/api/analyze/stop", body)
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(b, "message").String(), nil
}

// AnalysisResults fetches the aggregated results of a finished analysis.
func (c *Client) AnalysisResults(ctx context.Context, sessionID string) (*AnalysisResults, error) {
	if sessionID == "" {
		return nil, &MissingFieldsError{Fields: []string{"session id"}}
	}
	b, err := c.get(ctx, "/api/analysis_results/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, err
	}
	return ParseAnalysisResults(b)
}

// DataSetup reports whether one-time provisioning has completed.
func (c *Client) DataSetup(ctx context.Context) (bool, error) {
	b, err := c.get(ctx, "/api/data_setup", nil)
	if err != nil {
		return false, err
	}
	return gjson.GetBytes(b, "data_setup").Bool(), nil
}

// DataStatus says which provisioning artefacts exist on the backend.
type DataStatus struct {
	ModisExists    bool `json:"modis_exists"`
	CombinedExists bool `json:"combined_exists"`
	ModelExists    bool `json:"model_exists"`
}

// Describe mirrors the provisioning screen's status line.
func (s DataStatus) Describe() string {
	switch {
	case s.CombinedExists && s.ModelExists:
		return "All files are available, but conversion is needed."
	case s.CombinedExists:
		return "Dataset file is available. Model file needs to be downloaded."
	case s.ModelExists:
		return "Model file is available. Dataset file needs to be downloaded."
	}
	return "Both dataset and model files need to be downloaded."
}

func (c *Client) CheckData(ctx context.Context) (DataStatus, error) {
	b, err := c.get(ctx, "/api/check_data", nil)
	if err != nil {
		return DataStatus{}, err
	}
	var s DataStatus
	if err := json.Unmarshal(b, &s); err != nil {
		return DataStatus{}, fmt.Errorf("decoding data status: %w", err)
	}
	return s, nil
}

func (c *Client) SetDataSetup(ctx context.Context, done bool) error {
	_, err := c.post(ctx, "/api/set_data_setup", map[string]bool{"data_setup": done})
	return err
}

// GeoJSON fetches /geojson/{file}.geojson. A missing file is ErrNoData.
func (c *Client) GeoJSON(ctx context.Context, file string) (*geojson.FeatureCollection, error) {
	b, err := c.do(ctx, "GET", c.url(c.geo, "/geojson/"+url.PathEscape(file)+".geojson", nil), nil)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(b)
	if err != nil {
		return nil, fmt.Errorf("decoding %s.geojson: %w", file, err)
	}
	return fc, nil
}

// CountryGeoJSON fetches a country's outline.
func (c *Client) CountryGeoJSON(ctx context.Context, country string) (*geojson.FeatureCollection, error) {
	return c.GeoJSON(ctx, fire.GeoJSONName(country))
}

// AreaGeoJSON fetches a country's sub-area polygons.
func (c *Client) AreaGeoJSON(ctx context.Context, country string) (*geojson.FeatureCollection, error) {
	return c.GeoJSON(ctx, fire.GeoJSONName(country)+"_areas")
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown error"
	}
	return s
}
