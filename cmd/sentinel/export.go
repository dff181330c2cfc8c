package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"veritas-health/sentinel/pkg/export"
)

var (
	exportFormat string
	exportSince  time.Duration
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored evaluation results",
	Long: `Export writes stored evaluation results to JSON or CSV for
downstream review tooling. By default the last 30 days of results go to
stdout.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApplication(nil)
		if err != nil {
			return err
		}
		defer app.Close()

		now := time.Now()
		results, err := app.store.ResultsBetween(cmd.Context(), now.Add(-exportSince), now)
		if err != nil {
			return err
		}

		out := os.Stdout
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		switch exportFormat {
		case "json":
			return export.NewJSONExporter(true).Export(cmd.Context(), results, out)
		case "csv":
			return export.NewCSVExporter(true).Export(cmd.Context(), results, out)
		default:
			return fmt.Errorf("unknown export format %q (want json or csv)", exportFormat)
		}
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json",
		"export format: json or csv")
	exportCmd.Flags().DurationVar(&exportSince, "since", 30*24*time.Hour,
		"how far back to export results")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "",
		"output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}
