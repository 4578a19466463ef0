package domain

import "sort"

// UnmappedKey is the reserved TechToItemMap key for items that are not
// reachable under any technique.
const UnmappedKey = "unmapped"

// MappedTech is one technique mapping declared by an item. Content and
// Details are opaque to the engine except when two mappings are merged.
type MappedTech struct {
	TechID  string         `json:"tech_id" yaml:"tech_id"`
	Content *string        `json:"content" yaml:"content"`
	Details map[string]any `json:"details" yaml:"details"`
}

// Revocation mirrors the technique revocation shape for items. Item
// lifecycle is unrelated to technique lifecycle.
type Revocation struct {
	By string `json:"by" yaml:"by"`
}

type Item struct {
	ID         string       `json:"id" yaml:"id"`
	Name       string       `json:"name,omitempty" yaml:"name,omitempty"`
	Version    string       `json:"version,omitempty" yaml:"version,omitempty"`
	Techniques []MappedTech `json:"techniques" yaml:"techniques"`
	Deprecated bool         `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	Revoked    *Revocation  `json:"revoked,omitempty" yaml:"revoked,omitempty"`
}

// TechIDs lists the technique IDs the item maps to, in declaration order.
func (i Item) TechIDs() []string {
	ids := make([]string, len(i.Techniques))
	for n, t := range i.Techniques {
		ids[n] = t.TechID
	}
	return ids
}

type ItemEntry struct {
	ID      string `json:"id" yaml:"id"`
	Version string `json:"version" yaml:"version"`
}

type TechMapping struct {
	Confidence string      `json:"confidence" yaml:"confidence"`
	Items      []ItemEntry `json:"items" yaml:"items"`
}

// TechToItemMap maps technique IDs, plus UnmappedKey, to the items listed
// under them.
type TechToItemMap map[string]TechMapping

// TechIDs returns the technique keys of m, excluding UnmappedKey, sorted.
func (m TechToItemMap) TechIDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		if id != UnmappedKey {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

type Template struct {
	ID           string        `json:"id" yaml:"id"`
	Name         string        `json:"name,omitempty" yaml:"name,omitempty"`
	TechToItems  TechToItemMap `json:"tech_to_items" yaml:"tech_to_items"`
	IgnoredItems []string      `json:"ignored_items" yaml:"ignored_items"`
}

type Dataset struct {
	Items     []Item     `json:"items" yaml:"items"`
	Templates []Template `json:"templates" yaml:"templates"`
}

// TechIndex maps a technique ID to every item whose mapping list contains
// it, in dataset order.
type TechIndex map[string][]ItemEntry

// BuildTechIndex indexes items by the technique IDs they map to.
func BuildTechIndex(items []Item) TechIndex {
	index := make(TechIndex)
	for _, item := range items {
		entry := ItemEntry{ID: item.ID, Version: item.Version}
		seen := make(map[string]struct{}, len(item.Techniques))
		for _, t := range item.Techniques {
			if _, dup := seen[t.TechID]; dup {
				continue
			}
			seen[t.TechID] = struct{}{}
			index[t.TechID] = append(index[t.TechID], entry)
		}
	}
	return index
}

// ItemIndex looks items up by ID.
type ItemIndex map[string]Item

func BuildItemIndex(items []Item) ItemIndex {
	index := make(ItemIndex, len(items))
	for _, item := range items {
		index[item.ID] = item
	}
	return index
}
