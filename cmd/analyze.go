package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/whyfires/firescope/internal/utils"
	"github.com/whyfires/firescope/pkg/backend"
	"github.com/whyfires/firescope/pkg/charts"
	"github.com/whyfires/firescope/pkg/fire"
	"github.com/whyfires/firescope/pkg/progress"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a batch analysis over years and countries",
	Long:  `Run a batch analysis and print its summary. Ctrl-C asks the backend to stop the run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := backend.AnalysisFilter{}
		f.Years, _ = cmd.Flags().GetIntSlice("years")
		countries, _ := cmd.Flags().GetString("countries")
		f.Countries = utils.SplitList(countries)
		f.DayNight, _ = cmd.Flags().GetString("daynight")
		f.ConfidenceRange.Min, _ = cmd.Flags().GetFloat64("min-confidence")
		f.ConfidenceRange.Max, _ = cmd.Flags().GetFloat64("max-confidence")
		if cmd.Flags().Changed("type") {
			t, _ := cmd.Flags().GetInt("type")
			ft := fire.Type(t)
			f.Type = &ft
		}
		htmlOut, _ := cmd.Flags().GetString("html")
		stopTimeout, _ := cmd.Flags().GetDuration("stop-timeout")
		if err := f.Validate(); err != nil {
			return err
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		id, err := c.StartAnalysis(ctx, f)
		if err != nil {
			return err
		}
		utils.Log.Infof("Analysis %s started", id)
		stream, err := c.AnalysisProgress(ctx, id)
		if err != nil {
			return err
		}
		job := progress.NewJob(id, stream, c.StopAnalysis)
		job.StopTimeout = stopTimeout
		job.Log = utils.Logger("analysis")

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt)
		defer signal.Stop(sigs)
		finished := make(chan struct{})
		defer close(finished)
		go func() {
			select {
			case <-sigs:
				utils.Log.Info("Stopping analysis...")
				if err := job.Stop(context.Background()); err != nil {
					utils.Log.Warnf("Stop request failed: %v", err)
				}
			case <-finished:
			}
		}()

		_, err = job.Wait(ctx, func(ev backend.Event) {
			if ev.Progress != nil {
				utils.Log.Infof("[%3.0f%%] %s %s", *ev.Progress, ev.Phase, ev.Message)
			}
		})
		if errors.Is(err, progress.ErrStopped) {
			utils.Log.Info("Analysis stopped")
			return nil
		}
		if err != nil {
			return err
		}

		res, err := c.AnalysisResults(ctx, id)
		if err != nil {
			return err
		}
		printAnalysis(res)
		if htmlOut != "" {
			return writeFile(htmlOut, func(f *os.File) error { return charts.AnalysisPage(f, res) })
		}
		return nil
	},
}

func printAnalysis(res *backend.AnalysisResults) {
	fmt.Println(charts.StatsLine(res.Stats))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "MONTH\tFIRES\n")
	for _, m := range res.Monthly {
		fmt.Fprintf(w, "%s\t%d\n", m.Month, m.Count)
	}
	w.Flush()
	fmt.Println()

	label, counts := "COUNTRY", res.Countries
	if res.ShowAreas() {
		label, counts = "AREA", res.Areas
	}
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFIRES\n", label)
	for _, nc := range counts {
		fmt.Fprintf(w, "%s\t%d\n", nc.Name, nc.Count)
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().IntSlice("years", nil, "Years to analyze (comma separated)")
	analyzeCmd.Flags().String("countries", "", "Countries to analyze (comma separated)")
	analyzeCmd.Flags().String("daynight", "", "Only day (D) or night (N) detections")
	analyzeCmd.Flags().Int("type", 0, "Only this fire type")
	analyzeCmd.Flags().Float64("min-confidence", 0, "Minimum detection confidence")
	analyzeCmd.Flags().Float64("max-confidence", 100, "Maximum detection confidence")
	analyzeCmd.Flags().String("html", "", "Write the analysis charts as HTML to this file")
	analyzeCmd.Flags().Duration("stop-timeout", progress.DefaultStopTimeout, "How long to wait for the backend after Ctrl-C")
}
