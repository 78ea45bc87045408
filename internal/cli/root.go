package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aahmdakml/MatkulBigdata/config"
	"github.com/aahmdakml/MatkulBigdata/logger"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "hargaberas",
	Short: "Rice and paddy price facts for West Java",
	Long: `hargaberas extracts rice and paddy price facts (commodity, price, unit,
quality, location and a confidence score) from Indonesian news, feeds,
government price tables and social post exports.

Run "extract" on a single text, "scrape" to crawl every configured source
once and export the records, or "summary" to print the statistics of an
existing export.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose && os.Getenv("LOG_LEVEL") == "" {
			os.Setenv("LOG_LEVEL", "debug")
		}
		logger.InitWithWriter(os.Stderr)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (same keys as the environment, e.g. redis_addr)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig loads .env and points the worker configuration at the config file
func initConfig() {
	_ = godotenv.Load()

	if cfgFile != "" {
		os.Setenv("HARGA_CONFIG_FILE", cfgFile)
	}

	viper.SetEnvPrefix("HARGA")
	viper.AutomaticEnv()
}

// loadConfig returns the validated worker configuration
func loadConfig() (*config.Config, error) {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
