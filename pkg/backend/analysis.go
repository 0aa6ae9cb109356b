package backend

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

type MonthCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

type DayNightCount struct {
	Month    string `json:"month"`
	DayNight string `json:"daynight"`
	Count    int64  `json:"count"`
}

// NamedCount is a count for an area or a country.
type NamedCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type Selection struct {
	SingleCountry bool   `json:"single_country_selected"`
	Country       string `json:"selected_country"`
}

type Stats struct {
	TotalFires    int64   `json:"total_fires"`
	AvgBrightness float64 `json:"avg_brightness"`
	AvgConfidence float64 `json:"avg_confidence"`
	AvgFRP        float64 `json:"avg_frp"`
}

// AnalysisResults is the aggregated outcome of a batch analysis. Raw keeps the body
// as received for clients that want fields not modelled here.
type AnalysisResults struct {
	Monthly         []MonthCount    `json:"monthly"`
	DayNightMonthly []DayNightCount `json:"day_night_monthly"`
	Areas           []NamedCount    `json:"area"`
	Countries       []NamedCount    `json:"country"`
	Selection       Selection       `json:"selection_info"`
	Stats           Stats           `json:"stats"`
	Raw             json.RawMessage `json:"-"`
}

// ParseAnalysisResults reads an analysis_results body. Months may be numbers or names,
// counts may be numbers or numeric strings.
func ParseAnalysisResults(body []byte) (*AnalysisResults, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("analysis results: invalid JSON")
	}
	root := gjson.ParseBytes(body)
	if s := root.Get("success"); s.Exists() && !s.Bool() {
		return nil, fmt.Errorf("analysis results: %s", orUnknown(root.Get("message").String()))
	}
	data := root.Get("data")
	res := &AnalysisResults{Raw: append(json.RawMessage(nil), body...)}

	for _, r := range data.Get("monthly").Array() {
		res.Monthly = append(res.Monthly, MonthCount{Month: r.Get("month").String(), Count: r.Get("count").Int()})
	}
	for _, r := range data.Get("day_night_monthly").Array() {
		res.DayNightMonthly = append(res.DayNightMonthly, DayNightCount{
			Month:    r.Get("month").String(),
			DayNight: r.Get("daynight").String(),
			Count:    r.Get("count").Int(),
		})
	}
	for _, r := range data.Get("area").Array() {
		res.Areas = append(res.Areas, NamedCount{Name: r.Get("area").String(), Count: r.Get("count").Int()})
	}
	for _, r := range data.Get("country").Array() {
		res.Countries = append(res.Countries, NamedCount{Name: r.Get("country").String(), Count: r.Get("count").Int()})
	}
	sel := data.Get("selection_info")
	res.Selection = Selection{
		SingleCountry: sel.Get("single_country_selected").Bool(),
		Country:       sel.Get("selected_country").String(),
	}
	st := root.Get("stats")
	res.Stats = Stats{
		TotalFires:    st.Get("total_fires").Int(),
		AvgBrightness: st.Get("avg_brightness").Float(),
		AvgConfidence: st.Get("avg_confidence").Float(),
		AvgFRP:        st.Get("avg_frp").Float(),
	}
	return res, nil
}

// ShowAreas reports whether the geographic chart should break down by area rather
// than by country: a single country was selected and the backend returned area counts.
func (r *AnalysisResults) ShowAreas() bool {
	return r.Selection.SingleCountry && len(r.Areas) > 0
}
