package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"veritas-health/sentinel/pkg/evaluation"
)

var batchSummaryOnly bool

// batchReport is the JSON document the batch command emits.
type batchReport struct {
	Evaluated int                            `json:"evaluated"`
	Failed    int                            `json:"failed"`
	ByRisk    map[string]int                 `json:"by_risk_level"`
	Results   []*evaluation.EvaluationResult `json:"results,omitempty"`
	Errors    map[string]string              `json:"errors,omitempty"`
}

var batchCmd = &cobra.Command{
	Use:   "batch <claim-id>...",
	Short: "Evaluate a set of stored claims",
	Long: `Batch evaluates every named claim with bounded concurrency and
prints a JSON report. A claim that fails to evaluate does not abort the
batch; its error is collected in the report.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApplication(nil)
		if err != nil {
			return err
		}
		defer app.Close()

		items, err := app.orchestrator().EvaluateBatch(cmd.Context(), args)
		if err != nil {
			return err
		}

		report := batchReport{ByRisk: map[string]int{}}
		for _, item := range items {
			if item.Err != nil {
				report.Failed++
				if report.Errors == nil {
					report.Errors = map[string]string{}
				}
				report.Errors[item.ClaimID] = item.Err.Error()
				continue
			}
			report.Evaluated++
			report.ByRisk[item.Result.RiskLevel]++
			if !batchSummaryOnly {
				report.Results = append(report.Results, item.Result)
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
		if report.Failed > 0 {
			return fmt.Errorf("%d of %d claims failed to evaluate", report.Failed, len(items))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().BoolVar(&batchSummaryOnly, "summary", false,
		"print only the per-risk-level counts, not full results")
	rootCmd.AddCommand(batchCmd)
}
