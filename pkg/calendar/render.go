package calendar

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Weekdays is the column order of the grid.
var Weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// EmptyMessage is shown instead of a table when there is no forecast.
const EmptyMessage = "No forecast available"

func element(a atom.Atom, class string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	if class != "" {
		n.Attr = []html.Attribute{{Key: "class", Val: class}}
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Node builds the calendar table, or a paragraph with EmptyMessage.
func Node(g Grid) *html.Node {
	if g.Empty {
		p := element(atom.P, "calendar-empty")
		p.AppendChild(text(EmptyMessage))
		return p
	}

	table := element(atom.Table, "calendar-table")
	header := element(atom.Tr, "")
	for _, d := range Weekdays {
		th := element(atom.Th, "")
		th.AppendChild(text(d))
		header.AppendChild(th)
	}
	table.AppendChild(header)

	for _, r := range g.Rows {
		tr := element(atom.Tr, "")
		for _, c := range r {
			if !c.InWindow {
				tr.AppendChild(element(atom.Td, "empty-cell"))
				continue
			}
			td := element(atom.Td, "")
			date := element(atom.Div, "date-number")
			date.AppendChild(text(c.Label()))
			prob := element(atom.Div, "forecast-probability")
			if c.HasData {
				prob.AppendChild(text("Probability: " + c.Value()))
			} else {
				prob.AppendChild(text(NoData))
			}
			td.AppendChild(date)
			td.AppendChild(prob)
			tr.AppendChild(td)
		}
		table.AppendChild(tr)
	}
	return table
}

// RenderHTML writes the calendar as an HTML fragment.
func RenderHTML(w io.Writer, g Grid) error {
	return html.Render(w, Node(g))
}

// Text renders the grid for a terminal: one column per weekday, each cell showing
// "MM-DD" over its value.
func Text(g Grid) string {
	if g.Empty {
		return EmptyMessage + "\n"
	}
	var b strings.Builder
	line := func(cells []string) {
		var l strings.Builder
		for _, c := range cells {
			fmt.Fprintf(&l, "%-9s", c)
		}
		b.WriteString(strings.TrimRight(l.String(), " "))
		b.WriteString("\n")
	}
	line(Weekdays)
	for _, r := range g.Rows {
		dates := make([]string, len(r))
		values := make([]string, len(r))
		for i, c := range r {
			if !c.InWindow {
				continue
			}
			dates[i] = c.Date.Format("01-02")
			values[i] = c.Value()
			if !c.HasData {
				values[i] = "-"
			}
		}
		line(dates)
		line(values)
	}
	return b.String()
}
