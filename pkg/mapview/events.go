package mapview

import (
	"github.com/whyfires/firescope/pkg/colormap"
	"github.com/whyfires/firescope/pkg/filter"
)

// Hovered is the tooltip state for a point under the pointer.
type Hovered struct {
	Payload Payload `json:"payload"`
	Color   string  `json:"color"`
}

// Events tracks pointer state coming back from the map renderer. It is not safe for
// concurrent use; the owning session serialises access.
type Events struct {
	hovered     *Hovered
	areaHovered *AreaPayload
}

// Activate returns the payload to hand to the detail lookup. Points without a date
// (the empty fallback marker) are not activatable.
func (e *Events) Activate(p Point) (Payload, bool) {
	if p.Payload.AcqDate == "" {
		return Payload{}, false
	}
	return p.Payload, true
}

// Hover records p as the hovered point. A point without a colour is coloured against r,
// the brightness range of the set it was drawn from.
func (e *Events) Hover(p Point, r filter.Range) {
	color := p.Color
	if color == "" {
		color = colormap.BrightnessToColor(p.Payload.Brightness, r.Min, r.Max)
	}
	e.hovered = &Hovered{Payload: p.Payload, Color: color}
	e.areaHovered = nil
}

func (e *Events) HoverArea(a AreaPoint) {
	pl := a.Payload
	e.areaHovered = &pl
	e.hovered = nil
}

// Unhover clears both point and area hover state.
func (e *Events) Unhover() {
	e.hovered = nil
	e.areaHovered = nil
}

func (e *Events) Hovered() (Hovered, bool) {
	if e.hovered == nil {
		return Hovered{}, false
	}
	return *e.hovered, true
}

func (e *Events) AreaHovered() (AreaPayload, bool) {
	if e.areaHovered == nil {
		return AreaPayload{}, false
	}
	return *e.areaHovered, true
}
