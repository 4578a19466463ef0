package domain

import "fmt"

type AdjustmentStatus string

const (
	AdjustmentRemoved   AdjustmentStatus = "removed"
	AdjustmentReplaced  AdjustmentStatus = "replaced"
	AdjustmentUnchanged AdjustmentStatus = "unchanged"
	AdjustmentAdded     AdjustmentStatus = "added"
)

// Human-readable reasons attached to adjustments.
const (
	ReasonUnknown      = "tech is unknown"
	ReasonDeprecated   = "tech is deprecated"
	ReasonRevoked      = "tech is revoked"
	ReasonFromTemplate = "from Template"
)

// TechRef identifies a live technique that replaced an input ID.
type TechRef struct {
	ID   string   `json:"id" yaml:"id"`
	Name TechName `json:"name" yaml:"name"`
}

// TechAdjustment is the audit record for one original input ID.
type TechAdjustment struct {
	ID         string           `json:"id" yaml:"id"`
	Name       *TechName        `json:"name,omitempty" yaml:"name,omitempty"`
	Status     AdjustmentStatus `json:"status" yaml:"status"`
	Reason     string           `json:"reason" yaml:"reason"`
	ReplacedBy *TechRef         `json:"replacedBy,omitempty" yaml:"replacedBy,omitempty"`
}

// AdjustmentResult holds the live, deduplicated IDs and the audit trail in
// the order adjustments were discovered.
type AdjustmentResult struct {
	Adjustments []TechAdjustment `json:"adjustments"`
	IDs         []string         `json:"ids"`
}

// AdjustTechs normalizes an untrusted list of technique IDs against table.
// Every returned ID is active in table.
func AdjustTechs(unchecked []string, table TechStatusTable) AdjustmentResult {
	adjustments, contributed, _ := adjustUnchecked(unchecked, table)
	return AdjustmentResult{
		Adjustments: adjustments,
		IDs:         dedupe(contributed),
	}
}

// AdjustTechsWithAdditions behaves like AdjustTechs and then appends
// activeToAdd, IDs the caller already trusts (for example the techniques of a
// template). IDs already present in unchecked are skipped. A trusted ID that
// is not active means the caller's data disagrees with the loaded knowledge
// base and is reported as ErrNotActive.
func AdjustTechsWithAdditions(unchecked, activeToAdd []string, table TechStatusTable) (AdjustmentResult, error) {
	adjustments, contributed, seen := adjustUnchecked(unchecked, table)

	for _, id := range activeToAdd {
		if _, dup := seen[id]; dup {
			continue
		}
		status := table.Status(id)
		if status.Kind() != StatusActive {
			return AdjustmentResult{}, fmt.Errorf("%w: %s is %s", ErrNotActive, id, status.Kind())
		}
		seen[id] = struct{}{}
		name := status.Name()
		adjustments = append(adjustments, TechAdjustment{
			ID:     id,
			Name:   &name,
			Status: AdjustmentAdded,
			Reason: ReasonFromTemplate,
		})
		contributed = append(contributed, id)
	}

	return AdjustmentResult{
		Adjustments: adjustments,
		IDs:         dedupe(contributed),
	}, nil
}

func adjustUnchecked(unchecked []string, table TechStatusTable) ([]TechAdjustment, []string, map[string]struct{}) {
	seen := make(map[string]struct{}, len(unchecked))
	adjustments := make([]TechAdjustment, 0, len(unchecked))
	contributed := make([]string, 0, len(unchecked))

	for _, id := range unchecked {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		adj, live, ok := adjustOne(id, table)
		adjustments = append(adjustments, adj)
		if ok {
			contributed = append(contributed, live)
		}
	}
	return adjustments, contributed, seen
}

func adjustOne(id string, table TechStatusTable) (TechAdjustment, string, bool) {
	switch s := table.Status(id).(type) {
	case ActiveStatus:
		name := s.TechName
		return TechAdjustment{ID: id, Name: &name, Status: AdjustmentUnchanged}, id, true
	case RevokedStatus:
		name := s.TechName
		if table.Status(s.By).Kind() != StatusActive {
			// Only reachable with hand-assembled tables; built tables always
			// point By at an active technique.
			return TechAdjustment{ID: id, Name: &name, Status: AdjustmentRemoved, Reason: ReasonRevoked}, "", false
		}
		return TechAdjustment{
			ID:     id,
			Name:   &name,
			Status: AdjustmentReplaced,
			Reason: ReasonRevoked,
			ReplacedBy: &TechRef{
				ID:   s.By,
				Name: table.Status(s.By).Name(),
			},
		}, s.By, true
	case DeprecatedStatus:
		name := s.TechName
		return TechAdjustment{ID: id, Name: &name, Status: AdjustmentRemoved, Reason: ReasonDeprecated}, "", false
	default:
		return TechAdjustment{ID: id, Status: AdjustmentRemoved, Reason: ReasonUnknown}, "", false
	}
}

// resolveLive maps id to the live technique it stands for, if any.
func resolveLive(id string, table TechStatusTable) (string, bool) {
	switch s := table.Status(id).(type) {
	case ActiveStatus:
		return id, true
	case RevokedStatus:
		if table.Status(s.By).Kind() != StatusActive {
			return "", false
		}
		return s.By, true
	default:
		return "", false
	}
}

// dedupe keeps the first occurrence of every ID.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
