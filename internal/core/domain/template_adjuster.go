package domain

// AdjustTemplate rebuilds a template's technique map against table. Item
// lists under each surviving technique are recomputed from techIndex, which
// must be built over already-adjusted items. Items that were reachable
// before but no longer appear under any technique are moved to the unmapped
// bucket when they still exist in items.
func AdjustTemplate(tmpl Template, table TechStatusTable, techIndex TechIndex, items ItemIndex) (Template, []TechAdjustment) {
	originalIDs := tmpl.TechToItems.TechIDs()
	result := AdjustTechs(originalIDs, table)

	ignored := make(map[string]struct{}, len(tmpl.IgnoredItems))
	for _, id := range tmpl.IgnoredItems {
		ignored[id] = struct{}{}
	}

	rebuilt := TechToItemMap{
		UnmappedKey: {
			Confidence: tmpl.TechToItems[UnmappedKey].Confidence,
			Items:      []ItemEntry{},
		},
	}

	for _, id := range originalIDs {
		live, ok := resolveLive(id, table)
		if !ok {
			continue
		}
		if _, done := rebuilt[live]; done {
			continue
		}
		entries := make([]ItemEntry, 0, len(techIndex[live]))
		for _, entry := range techIndex[live] {
			if _, skip := ignored[entry.ID]; skip {
				continue
			}
			entries = append(entries, entry)
		}
		rebuilt[live] = TechMapping{
			Confidence: tmpl.TechToItems[id].Confidence,
			Items:      entries,
		}
	}

	reachable := make(map[string]struct{})
	for _, mapping := range rebuilt {
		for _, entry := range mapping.Items {
			reachable[entry.ID] = struct{}{}
		}
	}

	unmapped := rebuilt[UnmappedKey]
	for _, key := range append(originalIDs, UnmappedKey) {
		for _, entry := range tmpl.TechToItems[key].Items {
			if _, ok := reachable[entry.ID]; ok {
				continue
			}
			item, exists := items[entry.ID]
			if !exists {
				continue
			}
			reachable[entry.ID] = struct{}{}
			unmapped.Items = append(unmapped.Items, ItemEntry{ID: item.ID, Version: item.Version})
		}
	}
	rebuilt[UnmappedKey] = unmapped

	adjusted := tmpl
	adjusted.TechToItems = rebuilt
	return adjusted, result.Adjustments
}
