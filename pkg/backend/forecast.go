package backend

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/whyfires/firescope/pkg/calendar"
	"github.com/whyfires/firescope/pkg/fire"
)

// ForecastParams are the inputs of a forecast run.
type ForecastParams struct {
	Country   string
	MapKey    string
	Days      int
	Periods   int
	StartDate string
}

const (
	MaxForecastDays    = 10
	MaxForecastPeriods = 20
)

// Validate enumerates missing or out of range fields.
func (p ForecastParams) Validate() error {
	var missing []string
	if p.Country == "" {
		missing = append(missing, "country")
	}
	if p.MapKey == "" {
		missing = append(missing, "map key")
	}
	if p.Days < 1 || p.Days > MaxForecastDays {
		missing = append(missing, fmt.Sprintf("days (1-%d)", MaxForecastDays))
	}
	if p.Periods < 1 || p.Periods > MaxForecastPeriods {
		missing = append(missing, fmt.Sprintf("periods (1-%d)", MaxForecastPeriods))
	}
	if p.StartDate == "" {
		missing = append(missing, "start date")
	} else if _, err := time.Parse("2006-01-02", p.StartDate); err != nil {
		missing = append(missing, "start date (YYYY-MM-DD)")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

func (p ForecastParams) query() url.Values {
	return url.Values{
		"country":    {fire.QueryName(p.Country)},
		"map_key":    {p.MapKey},
		"days":       {strconv.Itoa(p.Days)},
		"periods":    {strconv.Itoa(p.Periods)},
		"start_date": {p.StartDate},
	}
}

// ForecastStream starts a forecast and follows its progress.
func (c *Client) ForecastStream(ctx context.Context, p ForecastParams) (*Stream, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return c.openStream(ctx, "/api/forecast_stream", p.query())
}

// YearCount is one bar of the annual fire counts chart.
type YearCount struct {
	Year  string  `json:"year"`
	Count float64 `json:"count"`
}

// ForecastResult is the payload of the terminal forecast event.
type ForecastResult struct {
	AnnualCounts  []YearCount    `json:"annual_fire_counts"`
	Probabilities []calendar.Day `json:"probabilities"`
}

// ParseForecast decodes the terminal event of a forecast stream. Annual counts keep
// the order the backend sent them in.
func ParseForecast(ev Event) (*ForecastResult, error) {
	if len(ev.Raw) == 0 || !gjson.ValidBytes(ev.Raw) {
		return nil, fmt.Errorf("forecast result: invalid JSON")
	}
	root := gjson.ParseBytes(ev.Raw)
	if e := root.Get("error"); e.Exists() {
		return nil, noData(e.String())
	}
	res := &ForecastResult{}
	root.Get("annual_fire_counts").ForEach(func(k, v gjson.Result) bool {
		res.AnnualCounts = append(res.AnnualCounts, YearCount{Year: k.String(), Count: v.Float()})
		return true
	})
	for _, d := range root.Get("probabilities").Array() {
		date := d.Get("date").String()
		if date == "" {
			continue
		}
		res.Probabilities = append(res.Probabilities, calendar.Day{
			Date:            date,
			FireProbability: d.Get("fire_probability").Float(),
		})
	}
	return res, nil
}
