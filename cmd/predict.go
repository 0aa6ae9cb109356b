package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/whyfires/firescope/pkg/session"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict per-area fire risk for a country",
	RunE: func(cmd *cobra.Command, args []string) error {
		country, _ := cmd.Flags().GetString("country")
		start, _ := cmd.Flags().GetString("start-date")
		if country == "" {
			return session.ErrNoSelection
		}
		if start == "" {
			start = session.Today()
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		res, err := c.Predict(cmd.Context(), country, start)
		if err != nil {
			return err
		}

		preds := append(res.Predictions[:0:0], res.Predictions...)
		sort.SliceStable(preds, func(i, j int) bool {
			return preds[i].FireRiskPercent > preds[j].FireRiskPercent
		})

		fmt.Printf("%s: %.2f%% of the country at risk from %s\n\n", res.Country, res.CountryAreaPercentage, start)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "AREA\tRISK\n")
		for _, p := range preds {
			fmt.Fprintf(w, "%s\t%.2f%%\n", p.Area, p.FireRiskPercent)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)
	predictCmd.Flags().StringP("country", "c", "", "Country name")
	predictCmd.Flags().String("start-date", "", "First predicted day, YYYY-MM-DD (default today)")
}
