package arearisk

import (
	geojson "github.com/paulmach/go.geojson"
)

// FromFeatureCollection turns every feature of fc into a Region. Features without
// properties get an empty map so later lookups never fail.
func FromFeatureCollection(key string, fc *geojson.FeatureCollection) []Region {
	if fc == nil {
		return nil
	}
	out := make([]Region, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		props := make(map[string]interface{}, len(f.Properties))
		for k, v := range f.Properties {
			props[k] = v
		}
		out = append(out, Region{
			Key:        key,
			Name:       RegionName(props),
			Geometry:   f.Geometry,
			Properties: props,
			FillColor:  UnknownRiskColor,
		})
	}
	return out
}

// ToFeatureCollection writes regions back out as GeoJSON, adding the
// fire_risk_percent, display_name and fill_color properties.
func ToFeatureCollection(regions []Region) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range regions {
		f := geojson.NewFeature(r.Geometry)
		for k, v := range r.Properties {
			f.SetProperty(k, v)
		}
		if r.RiskPercent != nil {
			f.SetProperty("fire_risk_percent", *r.RiskPercent)
		} else {
			f.SetProperty("fire_risk_percent", nil)
		}
		f.SetProperty("display_name", r.Name)
		f.SetProperty("fill_color", r.FillColor)
		fc.AddFeature(f)
	}
	return fc
}

// Centroid averages the vertices of the outer ring of a Polygon, or of the first
// polygon of a MultiPolygon. Other geometry types have no centroid.
func Centroid(g *geojson.Geometry) (lat, lon float64, ok bool) {
	if g == nil {
		return 0, 0, false
	}
	var ring [][]float64
	switch {
	case g.IsPolygon() && len(g.Polygon) > 0:
		ring = g.Polygon[0]
	case g.IsMultiPolygon() && len(g.MultiPolygon) > 0 && len(g.MultiPolygon[0]) > 0:
		ring = g.MultiPolygon[0][0]
	default:
		return 0, 0, false
	}
	n := 0
	for _, c := range ring {
		if len(c) < 2 {
			continue
		}
		lon += c[0]
		lat += c[1]
		n++
	}
	if n == 0 {
		return 0, 0, false
	}
	return lat / float64(n), lon / float64(n), true
}
