// Package charts renders analysis dashboards and forecast results.
package charts

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/whyfires/firescope/pkg/backend"
	"github.com/whyfires/firescope/pkg/fire"
)

// TopN is how many countries or areas the geographic charts show.
const TopN = 10

// StatsLine summarises the analysis for the page title.
func StatsLine(s backend.Stats) string {
	return fmt.Sprintf("%d fires, avg brightness %.1f K, avg confidence %.1f%%, avg FRP %.1f MW",
		s.TotalFires, s.AvgBrightness, s.AvgConfidence, s.AvgFRP)
}

func baseOpts(title, subtitle string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

// monthLabel turns "3" or "Mar" into a short month name.
func monthLabel(m string) string {
	if n, err := strconv.Atoi(m); err == nil && n >= 1 && n <= 12 {
		return time.Month(n).String()[:3]
	}
	return m
}

// MonthlyLine is the detections per month line chart.
func MonthlyLine(res *backend.AnalysisResults) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(baseOpts("Fires per month", "")...)
	x := make([]string, 0, len(res.Monthly))
	y := make([]opts.LineData, 0, len(res.Monthly))
	for _, m := range res.Monthly {
		x = append(x, monthLabel(m.Month))
		y = append(y, opts.LineData{Value: m.Count})
	}
	line.SetXAxis(x).AddSeries("fires", y)
	return line
}

// topCounts returns the TopN entries by count, ties broken by name.
func topCounts(in []backend.NamedCount) []backend.NamedCount {
	out := append([]backend.NamedCount(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > TopN {
		out = out[:TopN]
	}
	return out
}

// geography picks areas for a single country with area data, countries otherwise.
func geography(res *backend.AnalysisResults) (string, []backend.NamedCount) {
	if res.ShowAreas() {
		return "Top areas in " + res.Selection.Country, topCounts(res.Areas)
	}
	return "Top countries", topCounts(res.Countries)
}

// GeographyBar is the top countries (or areas) bar chart.
func GeographyBar(res *backend.AnalysisResults) *charts.Bar {
	title, counts := geography(res)
	bar := charts.NewBar()
	bar.SetGlobalOptions(baseOpts(title, "")...)
	x := make([]string, 0, len(counts))
	y := make([]opts.BarData, 0, len(counts))
	for _, c := range counts {
		x = append(x, c.Name)
		y = append(y, opts.BarData{Value: c.Count})
	}
	bar.SetXAxis(x).AddSeries("fires", y,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar
}

// DistributionPie shows the share of each country (or area) in the top list.
func DistributionPie(res *backend.AnalysisResults) *charts.Pie {
	title, counts := geography(res)
	pie := charts.NewPie()
	pie.SetGlobalOptions(baseOpts("Distribution: "+title, "")...)
	data := make([]opts.PieData, 0, len(counts))
	for _, c := range counts {
		data = append(data, opts.PieData{Name: c.Name, Value: c.Count})
	}
	pie.AddSeries("share", data)
	return pie
}

// DayNightBar stacks day and night detections per month, months in first-seen order.
func DayNightBar(res *backend.AnalysisResults) *charts.Bar {
	var months []string
	seen := map[string]bool{}
	counts := map[string]map[string]int64{fire.Day: {}, fire.Night: {}}
	for _, r := range res.DayNightMonthly {
		if !seen[r.Month] {
			seen[r.Month] = true
			months = append(months, r.Month)
		}
		if c, ok := counts[r.DayNight]; ok {
			c[r.Month] += r.Count
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(baseOpts("Day vs night by month", "")...)
	labels := make([]string, len(months))
	for i, m := range months {
		labels[i] = monthLabel(m)
	}
	bar.SetXAxis(labels)
	for _, dn := range []string{fire.Day, fire.Night} {
		data := make([]opts.BarData, len(months))
		for i, m := range months {
			data[i] = opts.BarData{Value: counts[dn][m]}
		}
		bar.AddSeries(fire.DayNightLabel(dn), data, charts.WithBarChartOpts(opts.BarChart{Stack: "daynight"}))
	}
	return bar
}

// AnalysisPage writes the full analysis dashboard as a standalone HTML page.
func AnalysisPage(w io.Writer, res *backend.AnalysisResults) error {
	if res == nil {
		return fmt.Errorf("no analysis results")
	}
	page := components.NewPage()
	page.PageTitle = "Fire analysis: " + StatsLine(res.Stats)
	page.AddCharts(
		MonthlyLine(res),
		GeographyBar(res),
		DistributionPie(res),
		DayNightBar(res),
	)
	return page.Render(w)
}
