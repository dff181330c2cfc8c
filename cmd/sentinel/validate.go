package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"veritas-health/sentinel/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate parses the configuration file, applies defaults and
environment overrides, and reports every validation problem found.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
		if err != nil {
			return err
		}
		fmt.Printf("Configuration %s is valid\n", cfgFile)
		fmt.Printf("  claim store:      %s\n", cfg.Storage.Claims.Path)
		fmt.Printf("  reference store:  %s\n", cfg.Storage.Reference.Path)
		fmt.Printf("  engine timeout:   %s\n", cfg.Evaluation.EngineTimeout)
		fmt.Printf("  retention:        %d days\n", cfg.Retention.RetentionDays)
		fmt.Printf("  metrics address:  %s\n", cfg.Telemetry.MetricsAddress)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
