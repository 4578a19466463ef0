package domain

import (
	"sort"
	"strings"
)

// SubtechniqueSeparator splits a sub-technique ID (T1059.001) from its parent.
const SubtechniqueSeparator = "."

// UnknownTechniqueName is the placeholder name for IDs absent from every
// loaded partition.
const UnknownTechniqueName = "Unknown Technique"

// TechName is the display name of a technique. Base is set only for
// sub-techniques and carries the parent technique's own name.
type TechName struct {
	Base *string `json:"base,omitempty" yaml:"base,omitempty"`
	Self string  `json:"self" yaml:"self"`
}

// Display renders the name the way analysts read it: "Parent: Child".
func (n TechName) Display() string {
	if n.Base == nil {
		return n.Self
	}
	return *n.Base + ": " + n.Self
}

// IsSubtechnique reports whether id denotes a sub-technique.
func IsSubtechnique(id string) bool {
	_, ok := ParentID(id)
	return ok
}

// ParentID returns the parent technique ID of a sub-technique.
func ParentID(id string) (string, bool) {
	idx := strings.Index(id, SubtechniqueSeparator)
	if idx <= 0 || idx == len(id)-1 {
		return "", false
	}
	return id[:idx], true
}

func unknownName(id string) TechName {
	name := TechName{Self: UnknownTechniqueName}
	if IsSubtechnique(id) {
		base := UnknownTechniqueName
		name.Base = &base
	}
	return name
}

type StatusKind string

const (
	StatusActive     StatusKind = "active"
	StatusDeprecated StatusKind = "deprecated"
	StatusRevoked    StatusKind = "revoked"
	StatusUnknown    StatusKind = "unknown"
)

// TechStatus is the resolved state of one technique ID. The set of
// implementations is closed: ActiveStatus, DeprecatedStatus, RevokedStatus
// and UnknownStatus.
type TechStatus interface {
	Kind() StatusKind
	Name() TechName
	techStatus()
}

type ActiveStatus struct{ TechName TechName }

type DeprecatedStatus struct{ TechName TechName }

// RevokedStatus points at the technique that finally replaces this one. By is
// never itself revoked in a built table.
type RevokedStatus struct {
	TechName TechName
	By       string
}

type UnknownStatus struct{ TechName TechName }

func (s ActiveStatus) Kind() StatusKind     { return StatusActive }
func (s DeprecatedStatus) Kind() StatusKind { return StatusDeprecated }
func (s RevokedStatus) Kind() StatusKind    { return StatusRevoked }
func (s UnknownStatus) Kind() StatusKind    { return StatusUnknown }

func (s ActiveStatus) Name() TechName     { return s.TechName }
func (s DeprecatedStatus) Name() TechName { return s.TechName }
func (s RevokedStatus) Name() TechName    { return s.TechName }
func (s UnknownStatus) Name() TechName    { return s.TechName }

func (ActiveStatus) techStatus()     {}
func (DeprecatedStatus) techStatus() {}
func (RevokedStatus) techStatus()    {}
func (UnknownStatus) techStatus()    {}

// TechStatusTable maps external technique IDs to their status. It is built
// once per load and never mutated afterwards; lookups are total.
type TechStatusTable struct {
	statuses map[string]TechStatus
}

// NewTechStatusTable copies statuses into a new immutable table.
func NewTechStatusTable(statuses map[string]TechStatus) TechStatusTable {
	m := make(map[string]TechStatus, len(statuses))
	for id, s := range statuses {
		m[id] = s
	}
	return TechStatusTable{statuses: m}
}

// MergeTables unions partition tables. External IDs are expected to be
// disjoint across partitions; on collision the later table wins.
func MergeTables(tables ...TechStatusTable) TechStatusTable {
	size := 0
	for _, t := range tables {
		size += len(t.statuses)
	}
	m := make(map[string]TechStatus, size)
	for _, t := range tables {
		for id, s := range t.statuses {
			m[id] = s
		}
	}
	return TechStatusTable{statuses: m}
}

// Status never fails: IDs absent from the table resolve to UnknownStatus.
func (t TechStatusTable) Status(id string) TechStatus {
	if s, ok := t.statuses[id]; ok {
		return s
	}
	return UnknownStatus{TechName: unknownName(id)}
}

func (t TechStatusTable) Has(id string) bool {
	_, ok := t.statuses[id]
	return ok
}

func (t TechStatusTable) Len() int {
	return len(t.statuses)
}

// IDs returns every known technique ID in sorted order.
func (t TechStatusTable) IDs() []string {
	ids := make([]string, 0, len(t.statuses))
	for id := range t.statuses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CountByKind is used for load-time reporting.
func (t TechStatusTable) CountByKind() map[StatusKind]int {
	counts := make(map[StatusKind]int, 3)
	for _, s := range t.statuses {
		counts[s.Kind()]++
	}
	return counts
}
