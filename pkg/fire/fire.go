// Package fire holds the satellite fire detection model shared by every other package.
package fire

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Type is the MODIS inferred hot spot type.
type Type int

const (
	Vegetation  Type = 0
	Volcano     Type = 1
	OtherStatic Type = 2
	Offshore    Type = 3
	Unknown     Type = 99
)

var typeLabels = map[Type]string{
	Vegetation:  "Presumed Vegetation Fire",
	Volcano:     "Active Volcano",
	OtherStatic: "Other Static Land Source",
	Offshore:    "Offshore",
	Unknown:     "UNKNOWN",
}

// Label returns the human readable description of the type.
func (t Type) Label() string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return "unknown"
}

const (
	Day   = "D"
	Night = "N"
)

// DayNightLabel describes a day/night flag.
func DayNightLabel(flag string) string {
	switch flag {
	case Day:
		return "Daytime Fire"
	case Night:
		return "Nighttime Fire"
	default:
		return "unknown"
	}
}

// Record is one satellite fire observation as served by the backend.
type Record struct {
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	Brightness *float64 `json:"brightness,omitempty"`
	AcqDate    string   `json:"acq_date"`
	AcqTime    AcqTime  `json:"acq_time"`
	DayNight   string   `json:"daynight"`
	Type       Type     `json:"type"`
	Satellite  string   `json:"satellite,omitempty"`
	Area       string   `json:"area,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	FRP        *float64 `json:"frp,omitempty"`
}

// HasBrightness reports whether the record carries a finite brightness.
func (r Record) HasBrightness() bool {
	return r.Brightness != nil && !math.IsNaN(*r.Brightness) && !math.IsInf(*r.Brightness, 0)
}

// Month returns the month of AcqDate, or 0 when the date does not parse.
func (r Record) Month() int {
	if len(r.AcqDate) < 7 {
		return 0
	}
	m, err := strconv.Atoi(r.AcqDate[5:7])
	if err != nil || m < 1 || m > 12 {
		return 0
	}
	return m
}

// AcqTime is the HHMM acquisition time. The backend sends it either as a number
// (pandas int column) or as a string, so it is normalised to its string form.
type AcqTime string

func (t *AcqTime) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*t = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*t = AcqTime(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("acq_time: %w", err)
	}
	*t = AcqTime(n.String())
	return nil
}

var hhmm = regexp.MustCompile(`^(\d\d)(\d\d)$`)

// FormatTime renders an HHMM value as HH:MM, left padding short values ("659" -> "06:59").
// A nil value, or anything that is not four digits once padded, yields "Time not available".
func FormatTime(v interface{}) string {
	const missing = "Time not available"
	var s string
	switch t := v.(type) {
	case nil:
		return missing
	case string:
		s = t
	case AcqTime:
		s = string(t)
	case *string:
		if t == nil {
			return missing
		}
		s = *t
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		s = fmt.Sprint(t)
	}
	for len(s) < 4 {
		s = "0" + s
	}
	if !hhmm.MatchString(s) {
		return missing
	}
	return s[:2] + ":" + s[2:]
}

// QueryName turns a display country name into the form used in URL paths and queries:
// every whitespace character becomes an underscore.
func QueryName(country string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			return '_'
		}
		return r
	}, country)
}

var spaceRuns = regexp.MustCompile(`\s+`)

// GeoJSONName is the file-style name used for /geojson/{name}.geojson lookups.
func GeoJSONName(country string) string {
	return strings.ToLower(spaceRuns.ReplaceAllString(country, "_"))
}
