// Package colormap turns brightness temperatures into marker and legend colours.
package colormap

import (
	"fmt"
	"math"
	"strconv"

	"github.com/whyfires/firescope/pkg/filter"
)

// Neutral is used for records without a brightness value.
const Neutral = "gray"

// MaxHue is the hue of the coolest value; the hottest value has hue 0 (red).
const MaxHue = 150.0

// Hue returns the hue for v within [min, max]. Values outside the range are clamped.
// When min == max every value is treated as the hottest.
func Hue(v, min, max float64) float64 {
	span := max - min
	if span <= 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		return 0
	}
	ratio := (v - min) / span
	if ratio < 0 {
		ratio = 0
	} else if ratio > 1 {
		ratio = 1
	}
	return (1 - ratio) * MaxHue
}

// BrightnessToColor maps a brightness to an HSL colour string. A nil or non-finite
// value yields Neutral.
func BrightnessToColor(v *float64, min, max float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return Neutral
	}
	return hsl(Hue(*v, min, max))
}

func hsl(h float64) string {
	return "hsl(" + strconv.FormatFloat(h, 'f', -1, 64) + ", 100%, 50%)"
}

// Legend is the colour bar shown next to the map. Start and End are produced by
// BrightnessToColor so they always equal the colours of the coolest and hottest markers.
type Legend struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Start string  `json:"start"`
	End   string  `json:"end"`
}

// NewLegend builds the legend for a brightness range.
func NewLegend(r filter.Range) Legend {
	lo, hi := r.Min, r.Max
	return Legend{
		Min:   lo,
		Max:   hi,
		Start: BrightnessToColor(&lo, lo, hi),
		End:   BrightnessToColor(&hi, lo, hi),
	}
}

// Gradient returns the CSS gradient for a vertical bar, coolest at the bottom.
func (l Legend) Gradient() string {
	return fmt.Sprintf("linear-gradient(to top, %s, %s)", l.Start, l.End)
}

// Labels returns the bottom and top labels, rounded to whole Kelvin.
func (l Legend) Labels() (min, max string) {
	return fmt.Sprintf("%.0fK", l.Min), fmt.Sprintf("%.0fK", l.Max)
}
