package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/whyfires/firescope/internal/utils"
	"github.com/whyfires/firescope/pkg/backend"
	"github.com/whyfires/firescope/pkg/colormap"
	"github.com/whyfires/firescope/pkg/filter"
	"github.com/whyfires/firescope/pkg/fire"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Print the detections for a country and year",
	Long: `Print the detections for a country and year, narrowed by the same filters the dashboard offers.
Output flags: ` + fire.OutputFlags + `. Example: -o cdtb`,
	RunE: func(cmd *cobra.Command, args []string) error {
		year, _ := cmd.Flags().GetInt("year")
		country, _ := cmd.Flags().GetString("country")
		output, _ := cmd.Flags().GetString("output")
		delimiter, _ := cmd.Flags().GetString("delimiter")
		summary, _ := cmd.Flags().GetBool("summary")

		st, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		recs, err := c.Records(cmd.Context(), year, country)
		if errors.Is(err, backend.ErrNoData) {
			utils.Log.Warnf("No data for %s in %d", country, year)
			return nil
		}
		if err != nil {
			return err
		}
		filtered := filter.Apply(recs, st)

		if summary {
			rng := filter.BrightnessRange(filtered)
			legend := colormap.NewLegend(rng)
			lo, hi := legend.Labels()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "COUNTRY\tYEAR\tRECORDS\tSHOWN\tBRIGHTNESS\tFILTERS\n")
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s..%s\t%v\n", country, year, len(recs), len(filtered), lo, hi, st.Summary())
			return w.Flush()
		}
		return fire.PrintRecords(os.Stdout, filtered, output, delimiter)
	},
}

// filterFromFlags turns the filter flags into a filter.State.
func filterFromFlags(cmd *cobra.Command) (filter.State, error) {
	st := filter.Default()
	daynight, _ := cmd.Flags().GetString("daynight")
	switch daynight {
	case "":
	case fire.Day:
		st.Night = false
	case fire.Night:
		st.Day = false
	default:
		return st, fmt.Errorf("--daynight must be %s or %s", fire.Day, fire.Night)
	}

	if types, _ := cmd.Flags().GetIntSlice("type"); len(types) > 0 {
		st.Vegetation, st.Volcano, st.OtherStatic, st.Offshore = false, false, false, false
		for _, t := range types {
			switch fire.Type(t) {
			case fire.Vegetation:
				st.Vegetation = true
			case fire.Volcano:
				st.Volcano = true
			case fire.OtherStatic:
				st.OtherStatic = true
			case fire.Offshore:
				st.Offshore = true
			default:
				return st, fmt.Errorf("unknown fire type %d", t)
			}
		}
	}

	month, _ := cmd.Flags().GetString("month")
	m, err := filter.ParseMonth(month)
	if err != nil {
		return st, err
	}
	st.Month = m
	st.ExactDate, _ = cmd.Flags().GetString("date")
	return st, st.Validate()
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("daynight", "", "Only day (D) or night (N) detections")
	cmd.Flags().IntSlice("type", nil, "Only these fire types (0 vegetation, 1 volcano, 2 other static, 3 offshore)")
	cmd.Flags().String("month", "", "Only this month (1-12 or name)")
	cmd.Flags().String("date", "", "Only this date (YYYY-MM-DD)")
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.Flags().IntP("year", "y", 0, "Year")
	recordsCmd.Flags().StringP("country", "c", "", "Country name")
	addFilterFlags(recordsCmd)
	recordsCmd.Flags().StringP("output", "o", "cdtb", "Output flags. Supported: "+fire.OutputFlags+". Can be combined. Example: -o cdtb")
	recordsCmd.Flags().StringP("delimiter", "d", " ", "Delimiter character to use for txt output format")
	recordsCmd.Flags().Bool("summary", false, "Print a one-line summary instead of the records")
	recordsCmd.MarkFlagRequired("year")
	recordsCmd.MarkFlagRequired("country")
}
