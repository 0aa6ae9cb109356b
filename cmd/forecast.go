package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/whyfires/firescope/internal/utils"
	"github.com/whyfires/firescope/pkg/backend"
	"github.com/whyfires/firescope/pkg/calendar"
	"github.com/whyfires/firescope/pkg/charts"
	"github.com/whyfires/firescope/pkg/progress"
	"github.com/whyfires/firescope/pkg/session"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Forecast daily fire probability for a country",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := backend.ForecastParams{MapKey: viper.GetString("forecast.map_key")}
		p.Country, _ = cmd.Flags().GetString("country")
		p.Days, _ = cmd.Flags().GetInt("days")
		p.Periods, _ = cmd.Flags().GetInt("periods")
		p.StartDate, _ = cmd.Flags().GetString("start-date")
		if p.StartDate == "" {
			p.StartDate = session.Today()
		}
		htmlOut, _ := cmd.Flags().GetString("html")
		pngOut, _ := cmd.Flags().GetString("png")
		calOut, _ := cmd.Flags().GetString("calendar")

		c, err := newClient()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		stream, err := c.ForecastStream(ctx, p)
		if err != nil {
			return err
		}
		ev, err := progress.Watch(ctx, stream, progress.AnyDone, func(ev backend.Event) {
			if ev.Progress != nil {
				utils.Log.Infof("[%3.0f%%] %s %s", *ev.Progress, ev.Phase, ev.Message)
			}
		})
		if err != nil {
			return err
		}
		res, err := backend.ParseForecast(ev)
		if err != nil {
			return err
		}

		grid, err := calendar.Build(res.Probabilities)
		if err != nil {
			return err
		}
		fmt.Print(calendar.Text(grid))
		fmt.Println()
		for _, yc := range res.AnnualCounts {
			fmt.Printf("%s: %.0f fires\n", yc.Year, yc.Count)
		}

		if calOut != "" {
			if err := writeFile(calOut, func(f *os.File) error { return calendar.RenderHTML(f, grid) }); err != nil {
				return err
			}
		}
		if htmlOut != "" {
			if err := writeFile(htmlOut, func(f *os.File) error { return charts.AnnualCountsHTML(f, res.AnnualCounts) }); err != nil {
				return err
			}
		}
		if pngOut != "" {
			if err := writeFile(pngOut, func(f *os.File) error { return charts.AnnualCountsPNG(f, res.AnnualCounts) }); err != nil {
				return err
			}
		}
		return nil
	},
}

// writeFile creates path and hands it to write.
func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	utils.Log.Infof("Wrote %s", path)
	return nil
}

func init() {
	rootCmd.AddCommand(forecastCmd)
	forecastCmd.Flags().StringP("country", "c", "", "Country name")
	forecastCmd.Flags().String("map-key", "", "FIRMS map key (or forecast.map_key in the config)")
	forecastCmd.Flags().Int("days", 7, fmt.Sprintf("Days of recent detections to train on (1-%d)", backend.MaxForecastDays))
	forecastCmd.Flags().Int("periods", 7, fmt.Sprintf("Days to forecast (1-%d)", backend.MaxForecastPeriods))
	forecastCmd.Flags().String("start-date", "", "First forecast day, YYYY-MM-DD (default today)")
	forecastCmd.Flags().String("html", "", "Write the annual counts chart as HTML to this file")
	forecastCmd.Flags().String("png", "", "Write the annual counts chart as PNG to this file")
	forecastCmd.Flags().String("calendar", "", "Write the forecast calendar as HTML to this file")
	viper.BindPFlag("forecast.map_key", forecastCmd.Flags().Lookup("map-key"))
}
