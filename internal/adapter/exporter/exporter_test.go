package exporter

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hive-corporation/driftwatch/internal/core/domain"
)

func sampleReport() domain.DatasetAdjustments {
	active := domain.TechName{Self: "Command and Scripting Interpreter"}
	old := domain.TechName{Self: "Scripting"}
	return domain.DatasetAdjustments{
		Items: map[string][]domain.TechAdjustment{
			"D3-PSA": {
				{ID: "T1059", Name: &active, Status: domain.AdjustmentUnchanged},
				{ID: "T1064", Name: &old, Status: domain.AdjustmentReplaced, Reason: domain.ReasonRevoked,
					ReplacedBy: &domain.TechRef{ID: "T1059", Name: active}},
			},
			"D3-ABC": {
				{ID: "T9999", Status: domain.AdjustmentRemoved, Reason: domain.ReasonUnknown},
			},
		},
		Templates: map[string][]domain.TechAdjustment{
			"ransomware": {
				{ID: "T1064", Name: &old, Status: domain.AdjustmentReplaced, Reason: domain.ReasonRevoked,
					ReplacedBy: &domain.TechRef{ID: "T1059", Name: active}},
			},
		},
	}
}

func TestJSONExporter_Export(t *testing.T) {
	e := NewJSONExporter()
	e.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	data, err := e.Export(sampleReport())
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "item")
	assert.Contains(t, doc, "tmpl")

	var parsed ReportDocument
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.True(t, strings.HasPrefix(parsed.ID, "adjustment-report--"))
	assert.Equal(t, "2024-05-01T12:00:00Z", parsed.Created)
	require.Len(t, parsed.Items["D3-PSA"], 2)
	assert.Equal(t, "T1059", parsed.Items["D3-PSA"][1].ReplacedBy.ID)

	var raw struct {
		Item map[string][]map[string]any `json:"item"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	removed := raw.Item["D3-ABC"][0]
	assert.NotContains(t, removed, "name")
	assert.NotContains(t, removed, "replacedBy")
	assert.Contains(t, raw.Item["D3-PSA"][1], "replacedBy")
}

func TestJSONExporter_EmptyReport(t *testing.T) {
	data, err := NewJSONExporter().Export(domain.DatasetAdjustments{})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"item": {}`)
	assert.Contains(t, string(data), `"tmpl": {}`)
}

func TestCSVExporter_Export(t *testing.T) {
	data, err := NewCSVExporter().Export(sampleReport())
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)

	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{"item", "D3-ABC", "T9999", "", "removed", "tech is unknown", "", ""}, records[1])
	assert.Equal(t, []string{"item", "D3-PSA", "T1059", "Command and Scripting Interpreter", "unchanged", "", "", ""}, records[2])
	assert.Equal(t, "tmpl", records[4][0])
	assert.Equal(t, "T1059", records[4][6])
}

func TestCEFExporter_Export(t *testing.T) {
	data, err := NewCEFExporter().Export(sampleReport())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3, "unchanged rows are not exported")

	assert.True(t, strings.HasPrefix(lines[0], "CEF:0|HiveCorporation|Driftwatch|1.0|technique-removed|"))
	assert.Contains(t, lines[0], "|6|")
	assert.Contains(t, lines[1], "cs5=T1059")
}

func TestEscapeField(t *testing.T) {
	assert.Equal(t, `a\|b\=c\\d\ne`, escapeField("a|b=c\\d\ne"))
}

func TestForFormat(t *testing.T) {
	for _, format := range []string{"", "json", "csv", "cef"} {
		e, err := ForFormat(format)
		require.NoError(t, err, format)
		if format != "" {
			assert.Equal(t, format, e.Format())
		}
	}

	_, err := ForFormat("xlsx")
	assert.Error(t, err)
}
