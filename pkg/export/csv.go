package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"veritas-health/sentinel/pkg/evaluation"
	"veritas-health/sentinel/pkg/rules"
)

// CSVExporter exports evaluation results as CSV, one row per result.
// Nested structures are flattened: rule outcomes become counts, engine
// outcomes become per-engine score columns.
type CSVExporter struct {
	// IncludeHeader writes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// Export writes the results to w in CSV format.
func (e *CSVExporter) Export(ctx context.Context, results []*evaluation.EvaluationResult, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(headerRow()); err != nil {
			return fmt.Errorf("export: write csv header: %w", err)
		}
	}
	for i, result := range results {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writer.Write(resultToRow(result)); err != nil {
			return fmt.Errorf("export: write csv row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ExportStream writes results arriving on the channel to w in CSV
// format, flushing periodically so long exports make visible progress.
func (e *CSVExporter) ExportStream(ctx context.Context, results <-chan *evaluation.EvaluationResult, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(headerRow()); err != nil {
			return fmt.Errorf("export: write csv header: %w", err)
		}
	}

	count := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case result, ok := <-results:
			if !ok {
				writer.Flush()
				return writer.Error()
			}
			if err := writer.Write(resultToRow(result)); err != nil {
				return fmt.Errorf("export: write csv row %d: %w", count, err)
			}
			count++
			if count%100 == 0 {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return fmt.Errorf("export: flush csv: %w", err)
				}
			}
		}
	}
}

func headerRow() []string {
	return []string{
		"evaluation_id", "claim_id", "evaluated_at",
		"risk_level", "composite_score", "score_available",
		"compliance_score", "rules_completed", "chain_terminated",
		"rules_passed", "rules_failed", "rules_skipped", "warnings",
		"engines_available", "engine_scores",
		"duration_ms",
	}
}

func resultToRow(result *evaluation.EvaluationResult) []string {
	var passed, failed, skipped int
	for _, out := range result.RuleOutcomes {
		switch out.Result {
		case rules.Passed:
			passed++
		case rules.Failed:
			failed++
		case rules.Skipped:
			skipped++
		}
	}

	var available int
	engineScores := make([]string, 0, len(result.EngineOutcomes))
	for _, out := range result.EngineOutcomes {
		if out.Available {
			available++
			engineScores = append(engineScores,
				fmt.Sprintf("%s=%.4f", out.Engine, out.Score))
		} else {
			engineScores = append(engineScores,
				fmt.Sprintf("%s=unavailable", out.Engine))
		}
	}

	return []string{
		result.EvaluationID,
		result.ClaimID,
		result.EvaluatedAt.Format(time.RFC3339),
		result.RiskLevel,
		strconv.FormatFloat(result.CompositeScore, 'f', 4, 64),
		strconv.FormatBool(result.ScoreAvailable),
		strconv.FormatFloat(result.ComplianceScore, 'f', 4, 64),
		strconv.FormatBool(result.RulesCompleted),
		strconv.FormatBool(result.ChainTerminated),
		strconv.Itoa(passed),
		strconv.Itoa(failed),
		strconv.Itoa(skipped),
		strings.Join(result.Warnings, "; "),
		strconv.Itoa(available),
		strings.Join(engineScores, "; "),
		strconv.FormatInt(result.Duration.Milliseconds(), 10),
	}
}
