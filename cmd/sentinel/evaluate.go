package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <claim-id>",
	Short: "Evaluate a stored claim and print the result",
	Long: `Evaluate loads one claim from the claim store, runs the full
pipeline against it and prints the evaluation result as JSON. The
result is also persisted to the evaluation store.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApplication(nil)
		if err != nil {
			return err
		}
		defer app.Close()

		result, err := app.orchestrator().EvaluateByID(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}
