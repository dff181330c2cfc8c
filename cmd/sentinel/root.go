package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Claim fraud and compliance risk evaluation",
	Long: `Sentinel evaluates medical billing claims for fraud and compliance
risk. Each claim runs through a priority-ordered compliance rule chain
and four scoring engines (statistical anomaly, predictive ensemble,
network risk, code legality); the signals are aggregated into a
composite score and a risk level.

Claims and evaluation results live in a local SQLite database, code
reference data in a second one. Configuration is a YAML file with
SENTINEL_* environment overrides.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "sentinel.yaml",
		"path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
}
