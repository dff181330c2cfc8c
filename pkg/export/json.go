package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"veritas-health/sentinel/pkg/evaluation"
)

// JSONExporter exports evaluation results as a JSON array.
type JSONExporter struct {
	// Pretty enables indented output.
	Pretty bool
}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export writes the results to w as one JSON array.
func (e *JSONExporter) Export(ctx context.Context, results []*evaluation.EvaluationResult, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if results == nil {
		results = []*evaluation.EvaluationResult{}
	}

	var data []byte
	var err error
	if e.Pretty {
		data, err = json.MarshalIndent(results, "", "  ")
	} else {
		data, err = json.Marshal(results)
	}
	if err != nil {
		return fmt.Errorf("export: marshal %d results: %w", len(results), err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("export: write json: %w", err)
	}
	return nil
}

// ExportStream writes results arriving on the channel to w as a JSON
// array, one result at a time, so large exports never hold the full set
// in memory. The channel must be closed to terminate the array.
func (e *JSONExporter) ExportStream(ctx context.Context, results <-chan *evaluation.EvaluationResult, w io.Writer) error {
	if _, err := w.Write([]byte("[")); err != nil {
		return fmt.Errorf("export: write json: %w", err)
	}

	first := true
	count := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case result, ok := <-results:
			if !ok {
				if _, err := w.Write([]byte("]")); err != nil {
					return fmt.Errorf("export: write json: %w", err)
				}
				return nil
			}
			if !first {
				if _, err := w.Write([]byte(",")); err != nil {
					return fmt.Errorf("export: write json: %w", err)
				}
			}
			first = false

			data, err := e.marshal(result)
			if err != nil {
				return fmt.Errorf("export: marshal result %d: %w", count, err)
			}
			if _, err := w.Write(data); err != nil {
				return fmt.Errorf("export: write json: %w", err)
			}
			count++
		}
	}
}

func (e *JSONExporter) marshal(result *evaluation.EvaluationResult) ([]byte, error) {
	if e.Pretty {
		return json.MarshalIndent(result, "", "  ")
	}
	return json.Marshal(result)
}
