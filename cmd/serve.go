package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/whyfires/firescope/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the firescope dashboard",
	Long:  `Start a web server exposing the map, filters, predictions, forecasts and analyses for this backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		srv := server.New(c, viper.GetString("server.username"), viper.GetString("server.password"))
		srv.MetaSchedule = viper.GetString("server.refresh")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Start(ctx, viper.GetString("server.listen"))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("bind", "b", ":9999", "Address to bind the server to")
	serveCmd.Flags().StringP("username", "u", "", "Username for basic auth (optional)")
	serveCmd.Flags().StringP("password", "p", "", "Password for basic auth (optional)")
	serveCmd.Flags().String("refresh", "@every 6h", "Cron schedule for refreshing the countries meta")
	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("bind"))
	viper.BindPFlag("server.username", serveCmd.Flags().Lookup("username"))
	viper.BindPFlag("server.password", serveCmd.Flags().Lookup("password"))
	viper.BindPFlag("server.refresh", serveCmd.Flags().Lookup("refresh"))
}
