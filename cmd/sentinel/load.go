package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"veritas-health/sentinel/pkg/claim"
)

var loadCmd = &cobra.Command{
	Use:   "load <claims.json>",
	Short: "Load claims from a JSON file into the claim store",
	Long: `Load reads a JSON array of claims and inserts each one into the
claim store. Claims that fail validation are skipped and reported; valid
claims are stored even when others in the file are malformed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var claims []claim.Claim
		if err := json.Unmarshal(data, &claims); err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}

		app, err := newApplication(nil)
		if err != nil {
			return err
		}
		defer app.Close()

		var loaded, skipped int
		for _, c := range claims {
			if err := c.Validate(); err != nil {
				skipped++
				fmt.Fprintf(os.Stderr, "skipping claim %q: %v\n", c.ID, err)
				continue
			}
			if err := app.store.SaveClaim(cmd.Context(), c); err != nil {
				return fmt.Errorf("store claim %q: %w", c.ID, err)
			}
			loaded++
		}

		fmt.Printf("Loaded %d claims (%d skipped)\n", loaded, skipped)
		if skipped > 0 {
			return fmt.Errorf("%d claims failed validation", skipped)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
}
