package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/hive-corporation/driftwatch/internal/core/domain"
)

var csvHeader = []string{"kind", "entity_id", "tech_id", "tech_name", "status", "reason", "replaced_by_id", "replaced_by_name"}

// CSVExporter renders one row per adjustment for spreadsheet review.
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

func (e *CSVExporter) Format() string      { return "csv" }
func (e *CSVExporter) ContentType() string { return "text/csv; charset=utf-8" }

func (e *CSVExporter) Export(report domain.DatasetAdjustments) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range flatten(report) {
		var byID, byName string
		if row.ReplacedBy != nil {
			byID = row.ReplacedBy.ID
			byName = row.ReplacedBy.Name.Display()
		}
		record := []string{
			row.Kind,
			row.EntityID,
			row.ID,
			displayName(row.Name),
			string(row.Status),
			row.Reason,
			byID,
			byName,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV row for %s: %w", row.EntityID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}
