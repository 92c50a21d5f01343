package batch

import (
	"fmt"

	"github.com/ruspass-tech/ruspass/internal/document"
	"github.com/ruspass-tech/ruspass/internal/export"
	"github.com/ruspass-tech/ruspass/internal/parse"
	"github.com/ruspass-tech/ruspass/internal/pipeline"
)

// formatResults renders pipeline results in the requested format.
func formatResults(results []*pipeline.Result, format string) ([]byte, error) {
	switch format {
	case "xlsx", "":
		return export.WriteXLSX(buildRows(results))
	case "json":
		records := make([]*document.Record, 0, len(results))
		for _, res := range results {
			if res != nil {
				records = append(records, res.Record)
			}
		}
		return export.WriteJSON(records)
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// buildRows flattens results into workbook rows. The tax number is not a
// record field; it is scanned out of the recognized text here.
func buildRows(results []*pipeline.Result) []export.Row {
	rows := make([]export.Row, 0, len(results))
	for i, res := range results {
		if res == nil {
			continue
		}
		inn := parse.ExtractINN(res.Text)
		rows = append(rows, export.RecordToRow(res.Record, i+1, inn, res.Text))
	}
	return rows
}
