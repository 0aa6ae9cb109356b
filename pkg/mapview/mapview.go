// Package mapview assembles what the map renderer needs: centre and zoom, the point or
// area marker layer, polygon layers and the brightness legend.
package mapview

import (
	"strconv"

	geojson "github.com/paulmach/go.geojson"

	"github.com/whyfires/firescope/pkg/arearisk"
	"github.com/whyfires/firescope/pkg/colormap"
	"github.com/whyfires/firescope/pkg/filter"
	"github.com/whyfires/firescope/pkg/fire"
)

type Mode string

const (
	PointsMode   Mode = "points"
	AreaRiskMode Mode = "arearisk"
)

// Payload is attached to each point so a later detail lookup needs no refetch.
type Payload struct {
	Latitude   float64      `json:"latitude"`
	Longitude  float64      `json:"longitude"`
	Brightness *float64     `json:"brightness"`
	AcqDate    string       `json:"acq_date"`
	AcqTime    fire.AcqTime `json:"acq_time"`
}

type Point struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Color   string  `json:"color"`
	Text    string  `json:"text"`
	Payload Payload `json:"payload"`
}

// AreaPayload describes a region under the pointer in risk mode.
type AreaPayload struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
}

// AreaPoint is an invisible marker placed on a region centroid to carry hover text.
type AreaPoint struct {
	Lat     float64     `json:"lat"`
	Lon     float64     `json:"lon"`
	Text    string      `json:"text"`
	Payload AreaPayload `json:"payload"`
}

// Layer is a GeoJSON layer drawn below the markers.
type Layer struct {
	Name      string      `json:"name"`
	Type      string      `json:"type"` // fill or line
	Source    interface{} `json:"source"`
	Color     string      `json:"color,omitempty"`
	Opacity   float64     `json:"opacity,omitempty"`
	LineColor string      `json:"line_color,omitempty"`
	LineWidth float64     `json:"line_width,omitempty"`
	Below     string      `json:"below,omitempty"`
}

// View is the complete map description. Points, Areas and Layers are never nil so the
// serialized form always carries arrays.
type View struct {
	Mode   Mode             `json:"mode"`
	Region string           `json:"region"`
	Center Center           `json:"center"`
	Home   Center           `json:"home"`
	Points []Point          `json:"points"`
	Areas  []AreaPoint      `json:"areas"`
	Layers []Layer          `json:"layers"`
	Range  filter.Range     `json:"range"`
	Legend *colormap.Legend `json:"legend,omitempty"`
}

// Build projects filtered records into a points-mode view centred on key.
func Build(records []fire.Record, key string, lookup Lookup) View {
	center := lookup.Resolve(key)
	rng := filter.BrightnessRange(records)
	legend := colormap.NewLegend(rng)
	v := View{
		Mode:   PointsMode,
		Region: key,
		Center: center,
		Home:   center,
		Points: make([]Point, 0, len(records)),
		Areas:  []AreaPoint{},
		Layers: []Layer{},
		Range:  rng,
		Legend: &legend,
	}
	for _, r := range records {
		v.Points = append(v.Points, Point{
			Lat:   r.Latitude,
			Lon:   r.Longitude,
			Color: colormap.BrightnessToColor(r.Brightness, rng.Min, rng.Max),
			Text:  pointText(key, r),
			Payload: Payload{
				Latitude:   r.Latitude,
				Longitude:  r.Longitude,
				Brightness: r.Brightness,
				AcqDate:    r.AcqDate,
				AcqTime:    r.AcqTime,
			},
		})
	}
	return v
}

func pointText(country string, r fire.Record) string {
	b := "N/A"
	if r.HasBrightness() {
		b = num(*r.Brightness)
	}
	return country + "(" + num(r.Latitude) + ", " + num(r.Longitude) + "), " + b + "K"
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// WithOutline adds the selected country's boundary beneath the points. It is a no-op
// in risk mode or when fc is nil.
func (v View) WithOutline(fc *geojson.FeatureCollection) View {
	if fc == nil || v.Mode != PointsMode {
		return v
	}
	layers := make([]Layer, 0, len(v.Layers)+1)
	layers = append(layers, v.Layers...)
	v.Layers = append(layers, Layer{
		Name:      "country outline",
		Type:      "fill",
		Source:    fc,
		Color:     "rgba(243, 156, 18, 0.15)",
		Opacity:   0.3,
		LineColor: "rgba(243, 156, 18, 0.8)",
		LineWidth: 2,
		Below:     "traces",
	})
	return v
}

// BuildAreaView renders enriched regions: one fill layer per region, a shared border
// layer, and a hover marker on the centroid of every region with a non-zero risk.
func BuildAreaView(regions []arearisk.Region, key string, lookup Lookup) View {
	center := lookup.Resolve(key)
	v := View{
		Mode:   AreaRiskMode,
		Region: key,
		Center: center,
		Home:   center,
		Points: []Point{},
		Areas:  []AreaPoint{},
		Layers: make([]Layer, 0, len(regions)+1),
		Range:  filter.DefaultRange,
	}
	if len(regions) == 0 {
		return v
	}
	fc := arearisk.ToFeatureCollection(regions)
	for i, r := range regions {
		color := r.FillColor
		if color == "" {
			color = arearisk.UnknownRiskColor
		}
		v.Layers = append(v.Layers, Layer{
			Name:    r.Name,
			Type:    "fill",
			Source:  fc.Features[i],
			Color:   color,
			Opacity: 0.7,
			Below:   "traces",
		})

		if r.RiskPercent == nil || *r.RiskPercent == 0 {
			continue
		}
		lat, lon, ok := arearisk.Centroid(r.Geometry)
		if !ok {
			continue
		}
		v.Areas = append(v.Areas, AreaPoint{
			Lat:  lat,
			Lon:  lon,
			Text: r.Name + ": " + num(*r.RiskPercent) + "%",
			Payload: AreaPayload{
				Name:       r.Name,
				Percentage: *r.RiskPercent,
				Color:      color,
			},
		})
	}
	v.Layers = append(v.Layers, Layer{
		Name:      "area borders",
		Type:      "line",
		Source:    fc,
		LineColor: "white",
		LineWidth: 2,
	})
	return v
}

// MinZoom is the lowest zoom ZoomOut will go to.
const MinZoom = 1

func (v View) ZoomIn() View {
	v.Center.Zoom++
	return v
}

func (v View) ZoomOut() View {
	v.Center.Zoom--
	if v.Center.Zoom < MinZoom {
		v.Center.Zoom = MinZoom
	}
	return v
}

// Reset returns to the region's own centre and zoom.
func (v View) Reset() View {
	v.Center = v.Home
	return v
}
