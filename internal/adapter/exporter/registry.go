package exporter

import (
	"fmt"

	"github.com/hive-corporation/driftwatch/internal/core/ports"
)

// ForFormat returns the exporter registered under format. An empty format
// selects JSON.
func ForFormat(format string) (ports.ReportExporter, error) {
	switch format {
	case "json", "":
		return NewJSONExporter(), nil
	case "csv":
		return NewCSVExporter(), nil
	case "cef":
		return NewCEFExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q (use 'json', 'csv' or 'cef')", format)
	}
}
