// Package filter narrows a loaded detection record set down to what the user asked to see.
package filter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/whyfires/firescope/pkg/fire"
)

// State is the set of user controlled predicates.
//
// Each OR-group (day/night, fire type) is skipped entirely when every flag in it is set.
// Otherwise a record passes the group when it matches one of the set flags, which means a
// group with no flag set selects nothing.
type State struct {
	Day   bool `json:"typeDay"`
	Night bool `json:"typeNight"`

	Vegetation  bool `json:"typePVF"`
	Volcano     bool `json:"typeAV"`
	OtherStatic bool `json:"typeOSLS"`
	Offshore    bool `json:"typeO"`

	// Month is 1..12, or 0 for no month restriction.
	Month int `json:"month"`
	// ExactDate is a YYYY-MM-DD date, or empty.
	ExactDate string `json:"date,omitempty"`
}

// Default returns the unconstrained state.
func Default() State {
	return State{Day: true, Night: true, Vegetation: true, Volcano: true, OtherStatic: true, Offshore: true}
}

func (s State) allDayNight() bool { return s.Day && s.Night }

func (s State) allTypes() bool {
	return s.Vegetation && s.Volcano && s.OtherStatic && s.Offshore
}

func (s State) matchDayNight(r fire.Record) bool {
	return (s.Day && r.DayNight == fire.Day) || (s.Night && r.DayNight == fire.Night)
}

func (s State) matchType(r fire.Record) bool {
	switch r.Type {
	case fire.Vegetation:
		return s.Vegetation
	case fire.Volcano:
		return s.Volcano
	case fire.OtherStatic:
		return s.OtherStatic
	case fire.Offshore:
		return s.Offshore
	}
	return false
}

// Apply returns a new slice with the records that pass every predicate of s,
// in their original order. The input slice is never modified.
func Apply(records []fire.Record, s State) []fire.Record {
	out := make([]fire.Record, 0, len(records))
	for _, r := range records {
		if !s.allDayNight() && !s.matchDayNight(r) {
			continue
		}
		if !s.allTypes() && !s.matchType(r) {
			continue
		}
		if s.Month != 0 && r.Month() != s.Month {
			continue
		}
		if s.ExactDate != "" && r.AcqDate != s.ExactDate {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Range is the brightness span of a record set, in Kelvin.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DefaultRange is used when a set has no finite brightness.
var DefaultRange = Range{Min: 0, Max: 100}

// BrightnessRange returns the min/max brightness over records with a finite brightness.
func BrightnessRange(records []fire.Record) Range {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range records {
		if !r.HasBrightness() {
			continue
		}
		b := *r.Brightness
		if b < lo {
			lo = b
		}
		if b > hi {
			hi = b
		}
	}
	if math.IsInf(lo, 1) || math.IsInf(hi, -1) {
		return DefaultRange
	}
	return Range{Min: lo, Max: hi}
}

// ParseMonth accepts "" or "0" for no restriction, 1..12, or an English month name.
func ParseMonth(s string) (int, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 12 {
			return 0, fmt.Errorf("month out of range: %d", n)
		}
		return n, nil
	}
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if s == name || (len(s) >= 3 && strings.HasPrefix(name, s)) {
			return int(m), nil
		}
	}
	return 0, fmt.Errorf("invalid month: %q", s)
}

// Validate checks that Month and ExactDate are well formed.
func (s State) Validate() error {
	if s.Month < 0 || s.Month > 12 {
		return fmt.Errorf("month out of range: %d", s.Month)
	}
	if s.ExactDate != "" {
		if _, err := time.Parse("2006-01-02", s.ExactDate); err != nil {
			return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s.ExactDate)
		}
	}
	return nil
}

// Summary lists the active restrictions, empty when nothing is filtered.
func (s State) Summary() []string {
	var out []string
	if !s.allDayNight() {
		var parts []string
		if s.Day {
			parts = append(parts, "day")
		}
		if s.Night {
			parts = append(parts, "night")
		}
		out = append(out, "daynight="+orNone(parts))
	}
	if !s.allTypes() {
		var parts []string
		if s.Vegetation {
			parts = append(parts, "vegetation")
		}
		if s.Volcano {
			parts = append(parts, "volcano")
		}
		if s.OtherStatic {
			parts = append(parts, "other-static")
		}
		if s.Offshore {
			parts = append(parts, "offshore")
		}
		out = append(out, "type="+orNone(parts))
	}
	if s.Month != 0 {
		out = append(out, "month="+time.Month(s.Month).String())
	}
	if s.ExactDate != "" {
		out = append(out, "date="+s.ExactDate)
	}
	return out
}

func orNone(parts []string) string {
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}
