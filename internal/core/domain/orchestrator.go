package domain

// DatasetAdjustments is the audit report of one dataset adjustment pass,
// keyed by item ID and by template ID.
type DatasetAdjustments struct {
	Items     map[string][]TechAdjustment `json:"item"`
	Templates map[string][]TechAdjustment `json:"tmpl"`
}

// WithoutUnchanged drops unchanged rows, and entities left with no rows, for
// display.
func (d DatasetAdjustments) WithoutUnchanged() DatasetAdjustments {
	return DatasetAdjustments{
		Items:     filterUnchanged(d.Items),
		Templates: filterUnchanged(d.Templates),
	}
}

// Count returns the number of rows with the given status across the report.
func (d DatasetAdjustments) Count(status AdjustmentStatus) int {
	n := 0
	for _, group := range []map[string][]TechAdjustment{d.Items, d.Templates} {
		for _, rows := range group {
			for _, row := range rows {
				if row.Status == status {
					n++
				}
			}
		}
	}
	return n
}

func filterUnchanged(in map[string][]TechAdjustment) map[string][]TechAdjustment {
	out := make(map[string][]TechAdjustment, len(in))
	for id, rows := range in {
		kept := make([]TechAdjustment, 0, len(rows))
		for _, row := range rows {
			if row.Status != AdjustmentUnchanged {
				kept = append(kept, row)
			}
		}
		if len(kept) > 0 {
			out[id] = kept
		}
	}
	return out
}

// DatasetAdjustToAttack repairs every item and template of ds against table.
// Unknown, deprecated and revoked references are absorbed and reported; this
// never fails.
func DatasetAdjustToAttack(ds Dataset, table TechStatusTable) (Dataset, DatasetAdjustments) {
	report := DatasetAdjustments{
		Items:     make(map[string][]TechAdjustment, len(ds.Items)),
		Templates: make(map[string][]TechAdjustment, len(ds.Templates)),
	}

	items := make([]Item, 0, len(ds.Items))
	for _, item := range ds.Items {
		adjusted, adjustments := AdjustItem(item, table)
		items = append(items, adjusted)
		report.Items[item.ID] = adjustments
	}

	techIndex := BuildTechIndex(items)
	itemIndex := BuildItemIndex(items)

	templates := make([]Template, 0, len(ds.Templates))
	for _, tmpl := range ds.Templates {
		adjusted, adjustments := AdjustTemplate(tmpl, table, techIndex, itemIndex)
		templates = append(templates, adjusted)
		report.Templates[tmpl.ID] = adjustments
	}

	return Dataset{Items: items, Templates: templates}, report
}
