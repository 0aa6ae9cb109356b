// Package calendar lays forecast probabilities out as a Sunday to Saturday week grid.
package calendar

import (
	"fmt"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// NoData marks a day inside the forecast window that has no probability.
const NoData = "No data"

// Day is one forecast entry.
type Day struct {
	Date            string  `json:"date"`
	FireProbability float64 `json:"fire_probability"`
}

// Cell is one calendar square. Padding cells outside the forecast window have
// InWindow set to false and carry no data.
type Cell struct {
	Date        time.Time `json:"date"`
	InWindow    bool      `json:"in_window"`
	HasData     bool      `json:"has_data"`
	Probability float64   `json:"probability,omitempty"`
}

// Label is the cell's date as YYYY-MM-DD, or "" for padding cells.
func (c Cell) Label() string {
	if !c.InWindow {
		return ""
	}
	return c.Date.Format(dateLayout)
}

// Value is "NN.NN%", NoData, or "" for padding cells.
func (c Cell) Value() string {
	switch {
	case !c.InWindow:
		return ""
	case !c.HasData:
		return NoData
	}
	return strconv.FormatFloat(c.Probability, 'f', 2, 64) + "%"
}

// Grid is the laid out calendar. Empty is set when there was nothing to lay out.
type Grid struct {
	Empty bool      `json:"empty"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`
	Rows  [][]Cell  `json:"rows"`
}

// Cells returns every cell in row order.
func (g Grid) Cells() []Cell {
	out := make([]Cell, 0, len(g.Rows)*7)
	for _, r := range g.Rows {
		out = append(out, r...)
	}
	return out
}

func parseLocal(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.Local)
}

func addDays(t time.Time, n int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+n, 0, 0, 0, 0, t.Location())
}

// Build lays days out in full weeks. The first and last entries bound the forecast
// window; entries in between may be missing or unordered. When a date appears twice
// the later entry wins.
func Build(days []Day) (Grid, error) {
	if len(days) == 0 {
		return Grid{Empty: true}, nil
	}
	first, err := parseLocal(days[0].Date)
	if err != nil {
		return Grid{}, fmt.Errorf("first forecast date: %w", err)
	}
	last, err := parseLocal(days[len(days)-1].Date)
	if err != nil {
		return Grid{}, fmt.Errorf("last forecast date: %w", err)
	}
	if last.Before(first) {
		return Grid{}, fmt.Errorf("forecast window ends (%s) before it starts (%s)", days[len(days)-1].Date, days[0].Date)
	}

	probs := make(map[string]float64, len(days))
	for _, d := range days {
		probs[d.Date] = d.FireProbability
	}

	g := Grid{
		Start: addDays(first, -int(first.Weekday())),
		End:   addDays(last, 6-int(last.Weekday())),
		First: first,
		Last:  last,
	}
	var row []Cell
	for cur := g.Start; !cur.After(g.End); cur = addDays(cur, 1) {
		c := Cell{Date: cur}
		if !cur.Before(first) && !cur.After(last) {
			c.InWindow = true
			c.Probability, c.HasData = probs[cur.Format(dateLayout)]
		}
		row = append(row, c)
		if len(row) == 7 {
			g.Rows = append(g.Rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		g.Rows = append(g.Rows, row)
	}
	return g, nil
}
