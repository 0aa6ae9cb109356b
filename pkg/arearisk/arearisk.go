// Package arearisk joins region polygons with per-area fire risk predictions.
package arearisk

import (
	"fmt"
	"math"
	"strings"

	geojson "github.com/paulmach/go.geojson"
)

// Prediction is one area's predicted fire risk, as returned by /api/predict.
type Prediction struct {
	Area            string  `json:"area"`
	FireRiskPercent float64 `json:"fire_risk_percent"`
}

// MatchKind records how a region name was resolved against the predictions.
type MatchKind int

const (
	NoMatch MatchKind = iota
	ExactMatch
	KeywordMatch
)

func (k MatchKind) String() string {
	switch k {
	case ExactMatch:
		return "exact"
	case KeywordMatch:
		return "keyword"
	default:
		return "none"
	}
}

// Region is a named polygon, optionally carrying a risk percentage once enriched.
type Region struct {
	Key         string                 `json:"key"`
	Name        string                 `json:"name"`
	Geometry    *geojson.Geometry      `json:"geometry,omitempty"`
	Properties  map[string]interface{} `json:"properties,omitempty"`
	RiskPercent *float64               `json:"fire_risk_percent"`
	FillColor   string                 `json:"fill_color"`
	Match       MatchKind              `json:"-"`
}

// NameProperties are the feature properties tried, in order, for a region's display name.
var NameProperties = []string{"NAME_1", "name", "NAME", "state"}

// RegionKeywords mark compass-style region names that get relaxed matching.
var RegionKeywords = []string{
	"north", "south", "east", "west", "central",
	"northeast", "northwest", "southeast", "southwest",
	"midwest", "eastern", "western", "southern", "northern",
}

// RegionName returns the first non-empty name property, or "".
func RegionName(props map[string]interface{}) string {
	for _, key := range NameProperties {
		v, ok := props[key]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		default:
			s = fmt.Sprint(t)
		}
		if s != "" {
			return s
		}
	}
	return ""
}

func isRegionName(name string) bool {
	for _, kw := range RegionKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// Match resolves name against predictions. Exact case-insensitive equality wins; names
// containing a region keyword then fall back to equality or containment in either
// direction. Predictions with an empty area never take part in the relaxed step.
func Match(name string, predictions []Prediction) (Prediction, MatchKind) {
	if name == "" || len(predictions) == 0 {
		return Prediction{}, NoMatch
	}
	n := strings.ToLower(name)
	for _, p := range predictions {
		if strings.ToLower(p.Area) == n {
			return p, ExactMatch
		}
	}
	if !isRegionName(n) {
		return Prediction{}, NoMatch
	}
	for _, p := range predictions {
		a := strings.ToLower(p.Area)
		if a == "" {
			continue
		}
		if a == n || strings.Contains(n, a) || strings.Contains(a, n) {
			return p, KeywordMatch
		}
	}
	return Prediction{}, NoMatch
}

// Enrich returns copies of regions with RiskPercent, FillColor and Match set.
func Enrich(regions []Region, predictions []Prediction) []Region {
	out := make([]Region, 0, len(regions))
	for _, r := range regions {
		if r.Name == "" {
			r.Name = RegionName(r.Properties)
		}
		p, kind := Match(r.Name, predictions)
		r.Match = kind
		r.RiskPercent = nil
		if kind != NoMatch {
			pct := p.FireRiskPercent
			r.RiskPercent = &pct
		}
		r.FillColor = RiskColor(r.RiskPercent)
		out = append(out, r)
	}
	return out
}

// UnknownRiskColor fills regions without a prediction.
const UnknownRiskColor = "rgba(200, 200, 200, 0.5)"

// RiskColor is a green to red ramp: red grows and green shrinks linearly with pct.
func RiskColor(pct *float64) string {
	if pct == nil {
		return UnknownRiskColor
	}
	p := *pct / 100
	r := int(math.Round(p * 255))
	g := int(math.Round((1 - p) * 255))
	return fmt.Sprintf("rgba(%d, %d, 0, 0.7)", r, g)
}
