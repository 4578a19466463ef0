package exporter

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hive-corporation/driftwatch/internal/core/domain"
)

// JSONExporter renders the audit report as {id, created, item, tmpl}.
type JSONExporter struct {
	now func() time.Time
}

func NewJSONExporter() *JSONExporter {
	return &JSONExporter{now: time.Now}
}

func (e *JSONExporter) Format() string      { return "json" }
func (e *JSONExporter) ContentType() string { return "application/json; charset=utf-8" }

func (e *JSONExporter) Export(report domain.DatasetAdjustments) ([]byte, error) {
	doc := ReportDocument{
		ID:        fmt.Sprintf("adjustment-report--%s", uuid.New().String()),
		Created:   e.now().UTC().Format(time.RFC3339),
		Items:     nonNil(report.Items),
		Templates: nonNil(report.Templates),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal adjustment report: %w", err)
	}
	return data, nil
}

// ReportDocument is the JSON envelope of an exported audit report.
type ReportDocument struct {
	ID        string                             `json:"id"`
	Created   string                             `json:"created"`
	Items     map[string][]domain.TechAdjustment `json:"item"`
	Templates map[string][]domain.TechAdjustment `json:"tmpl"`
}

func nonNil(m map[string][]domain.TechAdjustment) map[string][]domain.TechAdjustment {
	if m == nil {
		return map[string][]domain.TechAdjustment{}
	}
	return m
}
