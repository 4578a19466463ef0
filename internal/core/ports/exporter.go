package ports

import "github.com/hive-corporation/driftwatch/internal/core/domain"

// ReportExporter renders an audit report for a downstream consumer.
type ReportExporter interface {
	// Format is the short name used to select the exporter (json, csv, cef).
	Format() string

	// ContentType is the MIME type of the rendered report.
	ContentType() string

	Export(report domain.DatasetAdjustments) ([]byte, error)
}
