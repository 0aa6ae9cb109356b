package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/whyfires/firescope/internal/utils"
	"github.com/whyfires/firescope/pkg/backend"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `
	  __ _
	 / _(_)_ __ ___  ___  ___ ___  _ __   ___
	| |_| | '__/ _ \/ __|/ __/ _ \| '_ \ / _ \
	|  _| | | |  __/\__ \ (_| (_) | |_) |  __/
	|_| |_|_|  \___||___/\___\___/| .__/ \___|
	                              |_|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "firescope",
	Short: "Explore satellite fire detections, risk predictions and forecasts.",
	Long: LOGO + `firescope talks to a wildfire detection backend: it lists and filters MODIS detections,
asks for per-area fire risk, runs batch analyses and forecasts, provisions the backend's
data, and serves a small dashboard on top of it all.`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.firescope.yaml)")

	// Global flags
	rootCmd.PersistentFlags().String("backend", "", "Backend base URL (default http://localhost:5000)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	viper.BindPFlag("backend.url", rootCmd.PersistentFlags().Lookup("backend"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// A local .env may carry FIRESCOPE_* variables.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading .env: %s\n", err)
		}
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".firescope")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("firescope")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("backend.url", "http://localhost:5000")
	viper.SetDefault("backend.timeout", 60)
	viper.SetDefault("backend.retries", 3)
	viper.SetDefault("geojson.url", "")
	viper.SetDefault("server.listen", ":9999")
	viper.SetDefault("server.username", "")
	viper.SetDefault("server.password", "")
	viper.SetDefault("server.refresh", "@every 6h")
	viper.SetDefault("forecast.map_key", "")
	viper.SetDefault("setup.lockdir", "")

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

// newClient builds the backend client from the current configuration.
func newClient() (*backend.Client, error) {
	base := viper.GetString("backend.url")
	if !utils.IsHTTPURL(base) {
		return nil, fmt.Errorf("invalid backend url %q", base)
	}
	geo := viper.GetString("geojson.url")
	if geo != "" && !utils.IsHTTPURL(geo) {
		return nil, fmt.Errorf("invalid geojson url %q", geo)
	}
	return backend.New(backend.Config{
		BaseURL:    base,
		GeoJSONURL: geo,
		Timeout:    time.Duration(viper.GetInt("backend.timeout")) * time.Second,
		RetryMax:   viper.GetInt("backend.retries"),
		Log:        utils.Logger("backend"),
	}), nil
}
