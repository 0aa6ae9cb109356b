package mapview

import (
	"github.com/whyfires/firescope/pkg/fire"
)

func bright(v float64) *float64 { return &v }

func rec(lat, lon float64, b *float64, date string) fire.Record {
	return fire.Record{Latitude: lat, Longitude: lon, Brightness: b, AcqDate: date, AcqTime: "0130", DayNight: fire.Night}
}

var testMeta = []byte(`{
	"countriesLonLat": {"Greece": {"lat": 39.07, "lon": 21.82}, "Chile": {"lat": "-35.6", "lon": "-71.5"}, "Bad": {"lat": "x", "lon": 1}},
	"countriesZoom": {"Greece": 5.5}
}`)
