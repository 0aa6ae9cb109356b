package filter

import "github.com/whyfires/firescope/pkg/fire"

func rec(date, daynight string, typ fire.Type, brightness float64) fire.Record {
	b := brightness
	return fire.Record{
		Latitude:   10,
		Longitude:  20,
		Brightness: &b,
		AcqDate:    date,
		AcqTime:    "0100",
		DayNight:   daynight,
		Type:       typ,
	}
}

func dates(records []fire.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.AcqDate)
	}
	return out
}
