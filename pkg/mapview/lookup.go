package mapview

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Center is a map centre with its zoom level.
type Center struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Zoom float64 `json:"zoom"`
}

// World is used when no region is selected or the region is unknown.
var World = Center{Lat: 20, Lon: 0, Zoom: 2}

// Meta is the countriesMeta payload: per-country centre coordinates and zoom levels.
type Meta struct {
	LonLat map[string]LatLon  `json:"countriesLonLat"`
	Zoom   map[string]float64 `json:"countriesZoom"`
}

type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ParseMeta reads a countriesMeta body. Coordinates and zooms may arrive as numbers or
// numeric strings; entries that are neither are skipped.
func ParseMeta(body []byte) (Meta, error) {
	if !gjson.ValidBytes(body) {
		return Meta{}, fmt.Errorf("countriesMeta: invalid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return Meta{}, fmt.Errorf("countriesMeta: expected an object")
	}
	m := Meta{LonLat: map[string]LatLon{}, Zoom: map[string]float64{}}
	root.Get("countriesLonLat").ForEach(func(k, v gjson.Result) bool {
		lat, lon := v.Get("lat"), v.Get("lon")
		if !isNumber(lat) || !isNumber(lon) {
			return true
		}
		m.LonLat[k.String()] = LatLon{Lat: lat.Float(), Lon: lon.Float()}
		return true
	})
	root.Get("countriesZoom").ForEach(func(k, v gjson.Result) bool {
		if isNumber(v) {
			m.Zoom[k.String()] = v.Float()
		}
		return true
	})
	return m, nil
}

func isNumber(r gjson.Result) bool {
	switch r.Type {
	case gjson.Number:
		return true
	case gjson.String:
		var f float64
		_, err := fmt.Sscanf(r.Str, "%g", &f)
		return err == nil
	}
	return false
}

// Lookup maps a region key to its centre.
type Lookup map[string]Center

// NewLookup joins the coordinate and zoom tables. A country without a zoom entry
// gets the world zoom.
func NewLookup(m Meta) Lookup {
	l := make(Lookup, len(m.LonLat))
	for name, ll := range m.LonLat {
		zoom, ok := m.Zoom[name]
		if !ok || zoom <= 0 {
			zoom = World.Zoom
		}
		l[name] = Center{Lat: ll.Lat, Lon: ll.Lon, Zoom: zoom}
	}
	return l
}

// Resolve returns the centre for key, or World.
func (l Lookup) Resolve(key string) Center {
	if c, ok := l[key]; ok && key != "" {
		return c
	}
	return World
}
