package domain

func strPtr(s string) *string { return &s }

func name(self string) TechName { return TechName{Self: self} }

func subName(base, self string) TechName { return TechName{Base: strPtr(base), Self: self} }

// scenarioTable is T1 active, T2 revoked by T1, T3 deprecated.
func scenarioTable() TechStatusTable {
	return NewTechStatusTable(map[string]TechStatus{
		"T1": ActiveStatus{TechName: name("Command and Scripting Interpreter")},
		"T2": RevokedStatus{TechName: name("Old Scripting"), By: "T1"},
		"T3": DeprecatedStatus{TechName: name("Retired Technique")},
	})
}

func attackPattern(nodeID, extID, techName string) GraphObject {
	return GraphObject{
		Type: TypeAttackPattern,
		ID:   nodeID,
		Name: techName,
		ExternalReferences: []ExternalReference{
			{SourceName: "capec", ExternalID: "CAPEC-1"},
			{SourceName: "mitre-attack", ExternalID: extID},
		},
	}
}

func revokedBy(relID, source, target string) GraphObject {
	return GraphObject{
		Type:             TypeRelationship,
		ID:               relID,
		RelationshipType: RelRevokedBy,
		SourceRef:        source,
		TargetRef:        target,
	}
}
