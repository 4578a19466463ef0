package domain

import (
	"fmt"
	"strings"
)

// STIX object types and relationship kinds the status builder reads.
const (
	TypeAttackPattern = "attack-pattern"
	TypeRelationship  = "relationship"
	RelRevokedBy      = "revoked-by"
)

// partitionSources maps the external reference source name carried by a
// technique to the knowledge-base partition it belongs to.
var partitionSources = map[string]string{
	"mitre-attack":        "enterprise-attack",
	"mitre-mobile-attack": "mobile-attack",
	"mitre-ics-attack":    "ics-attack",
}

// GraphObject is the subset of a STIX object the status builder needs.
type GraphObject struct {
	Type               string
	ID                 string
	Name               string
	ExternalReferences []ExternalReference
	Deprecated         bool
	Revoked            bool

	// Set on relationship objects only.
	RelationshipType string
	SourceRef        string
	TargetRef        string
}

type ExternalReference struct {
	SourceName string
	ExternalID string
	URL        string
}

// ExternalID returns the first external ID whose source is a known
// partition, together with that partition's name.
func (o GraphObject) ExternalID() (id string, partition string, ok bool) {
	for _, ref := range o.ExternalReferences {
		if p, known := partitionSources[ref.SourceName]; known && ref.ExternalID != "" {
			return ref.ExternalID, p, true
		}
	}
	return "", "", false
}

// StatusPartition is the status table of one knowledge-base partition.
type StatusPartition struct {
	Partition string
	Table     TechStatusTable
}

type techNode struct {
	externalID string
	name       string
	deprecated bool
	revoked    bool
}

// BuildStatusTable classifies every technique of one partition, following
// revoked-by chains to their final target. Any structural problem in the
// graph is returned as an error and no table is produced.
func BuildStatusTable(objects []GraphObject) (StatusPartition, error) {
	byNodeID := make(map[string]*techNode)
	byExternalID := make(map[string]*techNode)
	order := make([]*techNode, 0)
	partition := ""

	for _, obj := range objects {
		if obj.Type != TypeAttackPattern {
			continue
		}
		extID, p, ok := obj.ExternalID()
		if !ok {
			continue
		}
		if partition == "" {
			partition = p
		}
		node := &techNode{
			externalID: extID,
			name:       obj.Name,
			deprecated: obj.Deprecated,
			revoked:    obj.Revoked,
		}
		byNodeID[obj.ID] = node
		byExternalID[extID] = node
		order = append(order, node)
	}

	if partition == "" {
		return StatusPartition{}, ErrUnknownPartition
	}

	revokedByOf := make(map[string]string)
	for _, obj := range objects {
		if obj.Type != TypeRelationship || obj.RelationshipType != RelRevokedBy {
			continue
		}
		if !isTechniqueRef(obj.SourceRef) || !isTechniqueRef(obj.TargetRef) {
			continue
		}
		src, ok := byNodeID[obj.SourceRef]
		if !ok {
			return StatusPartition{}, fmt.Errorf("%w: %s (source of %s)", ErrMissingNode, obj.SourceRef, obj.ID)
		}
		dst, ok := byNodeID[obj.TargetRef]
		if !ok {
			return StatusPartition{}, fmt.Errorf("%w: %s (target of %s)", ErrMissingNode, obj.TargetRef, obj.ID)
		}
		revokedByOf[src.externalID] = dst.externalID
	}

	statuses := make(map[string]TechStatus, len(order))
	for _, node := range order {
		name := techName(node, byExternalID)
		switch {
		case node.deprecated:
			statuses[node.externalID] = DeprecatedStatus{TechName: name}
		case !node.revoked:
			statuses[node.externalID] = ActiveStatus{TechName: name}
		default:
			final, err := resolveRevocation(node.externalID, revokedByOf, byExternalID)
			if err != nil {
				return StatusPartition{}, err
			}
			if final.deprecated {
				statuses[node.externalID] = DeprecatedStatus{TechName: name}
			} else {
				statuses[node.externalID] = RevokedStatus{TechName: name, By: final.externalID}
			}
		}
	}

	return StatusPartition{Partition: partition, Table: NewTechStatusTable(statuses)}, nil
}

// resolveRevocation walks revoked-by links from start until it reaches a node
// that is not flagged revoked. The walk is bounded by the number of known
// techniques, so a malformed cycle fails instead of spinning.
func resolveRevocation(start string, revokedByOf map[string]string, nodes map[string]*techNode) (*techNode, error) {
	cursor := start
	for hops := 0; hops <= len(nodes); hops++ {
		next, ok := revokedByOf[cursor]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrBrokenRevocationChain, cursor)
		}
		node, ok := nodes[next]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingNode, next)
		}
		if !node.revoked {
			return node, nil
		}
		cursor = next
	}
	return nil, fmt.Errorf("%w: starting at %s", ErrRevocationCycle, start)
}

func techName(node *techNode, byExternalID map[string]*techNode) TechName {
	parentID, ok := ParentID(node.externalID)
	if !ok {
		return TechName{Self: node.name}
	}
	base := parentID
	if parent, found := byExternalID[parentID]; found {
		base = parent.name
	}
	return TechName{Base: &base, Self: node.name}
}

func isTechniqueRef(ref string) bool {
	return strings.HasPrefix(ref, TypeAttackPattern+"--")
}
