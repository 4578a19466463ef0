package domain

import (
	"maps"
	"strings"
)

// AdjustItem repairs the technique mappings of one item. Mappings to unknown
// or deprecated techniques are dropped, revoked ones are moved to their
// replacement, and mappings that end up on the same live technique are
// merged into one.
func AdjustItem(item Item, table TechStatusTable) (Item, []TechAdjustment) {
	result := AdjustTechs(item.TechIDs(), table)

	merged := make(map[string]*MappedTech, len(item.Techniques))
	order := make([]string, 0, len(item.Techniques))

	for _, mapping := range item.Techniques {
		live, ok := resolveLive(mapping.TechID, table)
		if !ok {
			continue
		}
		existing, found := merged[live]
		if !found {
			m := MappedTech{
				TechID:  live,
				Content: mapping.Content,
				Details: mapping.Details,
			}
			merged[live] = &m
			order = append(order, live)
			continue
		}
		existing.Content = mergeContent(existing.Content, mapping.Content)
		existing.Details = mergeDetails(existing.Details, mapping.Details)
	}

	adjusted := item
	adjusted.Techniques = make([]MappedTech, 0, len(order))
	for _, id := range order {
		adjusted.Techniques = append(adjusted.Techniques, *merged[id])
	}
	return adjusted, result.Adjustments
}

// mergeContent joins two contents with a blank line. An empty result
// collapses to nil.
func mergeContent(a, b *string) *string {
	var left, right string
	if a != nil {
		left = *a
	}
	if b != nil {
		right = *b
	}
	joined := strings.TrimSpace(left + "\n\n" + right)
	if joined == "" {
		return nil
	}
	return &joined
}

// mergeDetails overlays b on a; b wins on conflicting keys. An empty result
// collapses to nil.
func mergeDetails(a, b map[string]any) map[string]any {
	out := make(map[string]any, len(a)+len(b))
	maps.Copy(out, a)
	maps.Copy(out, b)
	if len(out) == 0 {
		return nil
	}
	return out
}
