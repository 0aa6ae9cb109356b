package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestBuild_Empty(t *testing.T) {
	g, err := Build(nil)
	if err != nil || !g.Empty {
		t.Fatalf("expected empty marker without error, got %+v %v", g, err)
	}
	if got := Text(g); got != "No forecast available\n" {
		t.Fatalf("unexpected empty text %q", got)
	}
}

func TestBuild_FullWeeks(t *testing.T) {
	// 2024-03-06 is a Wednesday, 2024-03-12 a Tuesday.
	days := []Day{
		{Date: "2024-03-06", FireProbability: 12.346},
		{Date: "2024-03-07", FireProbability: 50},
		{Date: "2024-03-09", FireProbability: 1},
		{Date: "2024-03-12", FireProbability: 99.999},
	}
	g, err := Build(days)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.Start.Weekday() != time.Sunday || g.End.Weekday() != time.Saturday {
		t.Fatalf("grid must run Sunday to Saturday, got %v..%v", g.Start.Weekday(), g.End.Weekday())
	}
	if g.Start.Format(dateLayout) != "2024-03-03" || g.End.Format(dateLayout) != "2024-03-16" {
		t.Fatalf("unexpected grid bounds %v..%v", g.Start, g.End)
	}
	cells := g.Cells()
	if len(cells)%7 != 0 || len(g.Rows) != 2 {
		t.Fatalf("expected two full rows, got %d cells in %d rows", len(cells), len(g.Rows))
	}
	if g.Start.Location() != time.Local {
		t.Fatalf("dates must be anchored to local time")
	}

	tests := []struct {
		idx   int
		label string
		value string
	}{
		{0, "", ""},
		{2, "", ""},
		{3, "2024-03-06", "12.35%"},
		{4, "2024-03-07", "50.00%"},
		{5, "2024-03-08", NoData},
		{6, "2024-03-09", "1.00%"},
		{9, "2024-03-12", "100.00%"},
		{10, "", ""},
	}
	for _, tt := range tests {
		c := cells[tt.idx]
		if c.Label() != tt.label || c.Value() != tt.value {
			t.Fatalf("cell %d = (%q, %q), want (%q, %q)", tt.idx, c.Label(), c.Value(), tt.label, tt.value)
		}
	}
}

func TestBuild_SingleDay(t *testing.T) {
	g, err := Build([]Day{{Date: "2024-03-10", FireProbability: 3}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(g.Rows) != 1 || len(g.Rows[0]) != 7 {
		t.Fatalf("a Sunday forecast should fill exactly one week, got %+v", g.Rows)
	}
}

func TestBuild_AcrossDSTChanges(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("no zoneinfo: %v", err)
	}
	local := time.Local
	time.Local = ny
	t.Cleanup(func() { time.Local = local })

	// Spans the March and November 2024 transitions.
	g, err := Build([]Day{{Date: "2024-03-05", FireProbability: 1}, {Date: "2024-11-08", FireProbability: 2}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.Start.Weekday() != time.Sunday || g.End.Weekday() != time.Saturday {
		t.Fatalf("window %v..%v is not Sun..Sat", g.Start, g.End)
	}
	var cells int
	for i, r := range g.Rows {
		if len(r) != 7 {
			t.Fatalf("row %d has %d cells", i, len(r))
		}
		for j, c := range r {
			cells++
			if c.Date.Hour() != 0 || c.Date.Minute() != 0 {
				t.Fatalf("cell %d/%d is not at midnight: %v", i, j, c.Date)
			}
			if c.Date.Weekday() != time.Weekday(j) {
				t.Fatalf("cell %d/%d falls on %v", i, j, c.Date.Weekday())
			}
		}
	}
	if cells != 252 {
		t.Fatalf("expected 36 weeks (252 cells), got %d", cells)
	}
}

func TestBuild_BadDates(t *testing.T) {
	if _, err := Build([]Day{{Date: "03/06/2024"}}); err == nil {
		t.Fatalf("expected error for unparseable date")
	}
	if _, err := Build([]Day{{Date: "2024-03-06"}, {Date: "2024-03-01"}}); err == nil {
		t.Fatalf("expected error for reversed window")
	}
	if _, err := Build([]Day{{Date: "2024-03-06"}, {Date: "garbage"}, {Date: "2024-03-07"}}); err != nil {
		t.Fatalf("unparseable inner dates must not fail the grid: %v", err)
	}
}

func TestRenderHTML(t *testing.T) {
	g, _ := Build([]Day{{Date: "2024-03-06", FireProbability: 7.5}, {Date: "2024-03-08", FireProbability: 8}})
	var buf bytes.Buffer
	if err := RenderHTML(&buf, g); err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`<table class="calendar-table">`,
		`<th>Sun</th>`,
		`<td class="empty-cell"></td>`,
		`<div class="date-number">2024-03-06</div>`,
		`<div class="forecast-probability">Probability: 7.50%</div>`,
		`<div class="forecast-probability">No data</div>`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered calendar missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	empty, _ := Build(nil)
	if err := RenderHTML(&buf, empty); err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	if !strings.Contains(buf.String(), EmptyMessage) {
		t.Fatalf("expected empty message, got %s", buf.String())
	}
}

func TestText(t *testing.T) {
	g, _ := Build([]Day{{Date: "2024-03-06", FireProbability: 7.5}, {Date: "2024-03-07", FireProbability: 1}})
	lines := strings.Split(strings.TrimSuffix(Text(g), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus two lines per week, got %q", lines)
	}
	if !strings.HasPrefix(lines[0], "Sun      Mon") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[1], "03-06") || !strings.Contains(lines[2], "7.50%") {
		t.Fatalf("unexpected week text %q", lines[1:])
	}
}
