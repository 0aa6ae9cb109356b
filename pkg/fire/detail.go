package fire

import (
	"fmt"
	"strconv"
	"strings"
)

// DescribeDetail renders the detail panel text for a record returned by the
// backend's detail endpoint. Missing fields fall back to "unknown ..." markers.
func DescribeDetail(country string, r Record) string {
	area := r.Area
	if area == "" {
		area = "unknown area"
	}
	date := r.AcqDate
	if date == "" {
		date = "unknown date"
	}
	var tm interface{}
	if r.AcqTime != "" {
		tm = string(r.AcqTime)
	}
	bright := "N/A"
	if r.HasBrightness() && *r.Brightness != 0 {
		bright = strconv.FormatFloat(*r.Brightness, 'f', -1, 64)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", country)
	fmt.Fprintf(&b, "%s\n\n", area)
	fmt.Fprintf(&b, "Date: %s\n", date)
	fmt.Fprintf(&b, "Time: %s UTC (%s)\n\n", FormatTime(tm), DayNightLabel(r.DayNight))
	fmt.Fprintf(&b, "Latitude: %s\n", coord(r.Latitude, "lat"))
	fmt.Fprintf(&b, "Longitude: %s\n\n", coord(r.Longitude, "lon"))
	fmt.Fprintf(&b, "Temperature: %s K\n", bright)
	fmt.Fprintf(&b, "Type: %s\n", r.Type.Label())
	if r.Satellite != "" {
		fmt.Fprintf(&b, "Satellite: %s\n", r.Satellite)
	}
	return b.String()
}

func coord(v float64, name string) string {
	if v == 0 {
		return "unknown " + name
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
