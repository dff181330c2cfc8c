package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"veritas-health/sentinel/pkg/claim"
	"veritas-health/sentinel/pkg/enrichment"
	"veritas-health/sentinel/pkg/storage"
)

// seedFile is the YAML document the seed command reads.
type seedFile struct {
	Procedures    []seedProcedure     `yaml:"procedures"`
	ProviderLinks []seedProviderLinks `yaml:"provider_links"`
}

type seedProcedure struct {
	Code             string    `yaml:"code"`
	Active           bool      `yaml:"active"`
	ActiveFrom       time.Time `yaml:"active_from"`
	ActiveUntil      time.Time `yaml:"active_until"`
	FeeMinCents      int64     `yaml:"fee_min_cents"`
	FeeMaxCents      int64     `yaml:"fee_max_cents"`
	BundledWith      []string  `yaml:"bundled_with"`
	Restricted       bool      `yaml:"restricted"`
	AllowedDiagnoses []string  `yaml:"allowed_diagnoses"`
}

type seedProviderLinks struct {
	ProviderID    string `yaml:"provider_id"`
	FacilityLinks int    `yaml:"facility_links"`
	PayerLinks    int    `yaml:"payer_links"`
}

var seedCmd = &cobra.Command{
	Use:   "seed <reference.yaml>",
	Short: "Seed the code reference store from a YAML file",
	Long: `Seed loads procedure reference records (validity windows, fee
ranges, bundling and diagnosis pairing lists) and provider network links
into the reference store. Existing records with the same key are
replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var file seedFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}

		app, err := newApplication(nil)
		if err != nil {
			return err
		}
		defer app.Close()

		for _, p := range file.Procedures {
			rec := storage.ProcedureRecord{
				Info: enrichment.ProcedureInfo{
					Code:        p.Code,
					Active:      p.Active,
					ActiveFrom:  p.ActiveFrom,
					ActiveUntil: p.ActiveUntil,
					FeeMin:      claim.Money(p.FeeMinCents),
					FeeMax:      claim.Money(p.FeeMaxCents),
					BundledWith: p.BundledWith,
				},
				Restricted:       p.Restricted,
				AllowedDiagnoses: p.AllowedDiagnoses,
			}
			if err := app.refStore.UpsertProcedure(cmd.Context(), rec); err != nil {
				return err
			}
		}
		for _, l := range file.ProviderLinks {
			if err := app.refStore.UpsertProviderLinks(cmd.Context(),
				l.ProviderID, l.FacilityLinks, l.PayerLinks); err != nil {
				return err
			}
		}

		fmt.Printf("Seeded %d procedures and %d provider link records\n",
			len(file.Procedures), len(file.ProviderLinks))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
