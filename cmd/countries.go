package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var countriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List the countries with detections for a year",
	RunE: func(cmd *cobra.Command, args []string) error {
		year, _ := cmd.Flags().GetInt("year")
		c, err := newClient()
		if err != nil {
			return err
		}
		countries, err := c.Countries(cmd.Context(), year)
		if err != nil {
			return err
		}
		for _, country := range countries {
			fmt.Println(country)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(countriesCmd)
	countriesCmd.Flags().IntP("year", "y", 0, "Year to list")
	countriesCmd.MarkFlagRequired("year")
}
