package exporter

import (
	"sort"

	"github.com/hive-corporation/driftwatch/internal/core/domain"
)

// Entity kinds as they appear in the audit report.
const (
	KindItem     = "item"
	KindTemplate = "tmpl"
)

// AdjustmentRow is one adjustment flattened with the entity it belongs to.
type AdjustmentRow struct {
	Kind     string
	EntityID string
	domain.TechAdjustment
}

// flatten lists item rows then template rows, entities in ID order and
// adjustments in their recorded order.
func flatten(report domain.DatasetAdjustments) []AdjustmentRow {
	var rows []AdjustmentRow
	for _, group := range []struct {
		kind    string
		entries map[string][]domain.TechAdjustment
	}{
		{KindItem, report.Items},
		{KindTemplate, report.Templates},
	} {
		ids := make([]string, 0, len(group.entries))
		for id := range group.entries {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			for _, adj := range group.entries[id] {
				rows = append(rows, AdjustmentRow{Kind: group.kind, EntityID: id, TechAdjustment: adj})
			}
		}
	}
	return rows
}

func displayName(name *domain.TechName) string {
	if name == nil {
		return ""
	}
	return name.Display()
}
