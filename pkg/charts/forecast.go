package charts

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/whyfires/firescope/pkg/backend"
)

const annualTitle = "Annual fire counts"

// AnnualCountsHTML writes the annual counts bar chart as an HTML page.
func AnnualCountsHTML(w io.Writer, counts []backend.YearCount) error {
	if len(counts) == 0 {
		return fmt.Errorf("no annual count data available")
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(baseOpts(annualTitle, "")...)
	x := make([]string, 0, len(counts))
	y := make([]opts.BarData, 0, len(counts))
	for _, c := range counts {
		x = append(x, c.Year)
		y = append(y, opts.BarData{Value: c.Count})
	}
	bar.SetXAxis(x).AddSeries("fires", y)
	return bar.Render(w)
}

// AnnualCountsPNG writes the same chart as a PNG image.
func AnnualCountsPNG(w io.Writer, counts []backend.YearCount) error {
	if len(counts) == 0 {
		return fmt.Errorf("no annual count data available")
	}
	bars := make([]chart.Value, 0, len(counts))
	top := 0.0
	for _, c := range counts {
		if c.Count > top {
			top = c.Count
		}
		bars = append(bars, chart.Value{
			Value: c.Count,
			Label: c.Year,
			Style: chart.Style{
				FillColor:   drawing.Color{R: 231, G: 76, B: 60, A: 255},
				StrokeColor: drawing.Color{R: 192, G: 57, B: 43, A: 255},
				StrokeWidth: 1,
			},
		})
	}
	if top == 0 {
		top = 1
	}
	const width = 800
	barWidth := (width-100)/len(bars) - 10
	if barWidth > 40 {
		barWidth = 40
	}
	if barWidth < 4 {
		barWidth = 4
	}
	graph := chart.BarChart{
		Title: annualTitle,
		TitleStyle: chart.Style{
			FontSize:  16,
			FontColor: drawing.ColorBlack,
		},
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		Width:    width,
		Height:   400,
		BarWidth: barWidth,
		Bars:     bars,
		XAxis:    chart.Style{FontSize: 10},
		YAxis: chart.YAxis{
			Name:  "Fires",
			Style: chart.Style{FontSize: 10},
			// a fixed range keeps single-bar and all-zero charts renderable
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("rendering annual counts: %w", err)
	}
	return nil
}
