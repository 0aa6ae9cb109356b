package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/whyfires/firescope/pkg/backend"
	"github.com/whyfires/firescope/pkg/fire"
	"github.com/whyfires/firescope/pkg/mapview"
)

var detailCmd = &cobra.Command{
	Use:   "detail",
	Short: "Show everything the backend knows about one detection",
	RunE: func(cmd *cobra.Command, args []string) error {
		year, _ := cmd.Flags().GetInt("year")
		country, _ := cmd.Flags().GetString("country")
		lat, _ := cmd.Flags().GetFloat64("lat")
		lon, _ := cmd.Flags().GetFloat64("lon")
		date, _ := cmd.Flags().GetString("date")
		tm, _ := cmd.Flags().GetString("time")

		c, err := newClient()
		if err != nil {
			return err
		}
		req := backend.NewDetailRequest(year, country, mapview.Payload{
			Latitude:  lat,
			Longitude: lon,
			AcqDate:   date,
			AcqTime:   fire.AcqTime(tm),
		})
		rec, err := c.Detail(cmd.Context(), req)
		if errors.Is(err, backend.ErrNoData) {
			fmt.Println("No detail found for this point.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Print(fire.DescribeDetail(country, rec))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detailCmd)
	detailCmd.Flags().IntP("year", "y", 0, "Year")
	detailCmd.Flags().StringP("country", "c", "", "Country name")
	detailCmd.Flags().Float64("lat", 0, "Latitude")
	detailCmd.Flags().Float64("lon", 0, "Longitude")
	detailCmd.Flags().String("date", "", "Acquisition date (YYYY-MM-DD)")
	detailCmd.Flags().String("time", "", "Acquisition time (HHMM)")
	for _, f := range []string{"year", "country", "lat", "lon", "date", "time"} {
		detailCmd.MarkFlagRequired(f)
	}
}
