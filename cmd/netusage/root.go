package main

import (
	"github.com/spf13/cobra"

	"netusage/internal/config"
)

var (
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "netusage",
	Short: "Explore internet usage exports",
	Long: `netusage loads a CSV export of internet sessions and summarizes the
consumption per day, month and year, either as a web dashboard or as a report.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./netusage.yaml or ./config/netusage.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file (default is ./.env when present)")
}

// loadConfig loads the configuration using the global flags.
func loadConfig() (*config.Config, error) {
	return config.Load(config.Options{ConfigFile: cfgFile, EnvFile: envFile})
}
