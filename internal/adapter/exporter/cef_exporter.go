package exporter

import (
	"fmt"
	"strings"

	"github.com/hive-corporation/driftwatch/internal/core/domain"
)

// CEFExporter renders non-trivial adjustments in Common Event Format so
// mapping drift can be forwarded to a SIEM.
type CEFExporter struct{}

func NewCEFExporter() *CEFExporter {
	return &CEFExporter{}
}

func (e *CEFExporter) Format() string      { return "cef" }
func (e *CEFExporter) ContentType() string { return "text/plain; charset=utf-8" }

// Export emits one line per removed, replaced or added technique.
// Format: CEF:Version|Device Vendor|Device Product|Device Version|Signature ID|Name|Severity|Extension
func (e *CEFExporter) Export(report domain.DatasetAdjustments) ([]byte, error) {
	var output strings.Builder

	for _, row := range flatten(report) {
		if row.Status == domain.AdjustmentUnchanged {
			continue
		}
		output.WriteString(e.formatCEF(row))
		output.WriteString("\n")
	}

	return []byte(output.String()), nil
}

func (e *CEFExporter) formatCEF(row AdjustmentRow) string {
	vendor := "HiveCorporation"
	product := "Driftwatch"
	version := "1.0"
	signatureID := "technique-" + string(row.Status)
	name := fmt.Sprintf("Technique %s %s", escapeField(row.ID), row.Status)
	severity := calculateSeverity(row.Status)

	extensions := []string{
		fmt.Sprintf("cs1Label=EntityKind cs1=%s", escapeField(row.Kind)),
		fmt.Sprintf("cs2Label=EntityID cs2=%s", escapeField(row.EntityID)),
		fmt.Sprintf("cs3Label=TechniqueID cs3=%s", escapeField(row.ID)),
		fmt.Sprintf("cs4Label=Reason cs4=%s", escapeField(row.Reason)),
	}
	if row.ReplacedBy != nil {
		extensions = append(extensions, fmt.Sprintf("cs5Label=ReplacedBy cs5=%s", escapeField(row.ReplacedBy.ID)))
	}

	return fmt.Sprintf("CEF:0|%s|%s|%s|%s|%s|%d|%s",
		vendor, product, version, signatureID, name, severity, strings.Join(extensions, " "))
}

func calculateSeverity(status domain.AdjustmentStatus) int {
	switch status {
	case domain.AdjustmentRemoved:
		return 6 // mapping lost
	case domain.AdjustmentReplaced:
		return 4
	default:
		return 2
	}
}

func escapeField(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "=", "\\=")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	return s
}
