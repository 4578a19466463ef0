package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/hive-corporation/driftwatch/internal/core/domain"
	"github.com/hive-corporation/driftwatch/internal/core/ports"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeKB struct {
	name    string
	objects []domain.GraphObject
	err     error
}

func (f *fakeKB) Name() string { return f.name }

func (f *fakeKB) FetchObjects(ctx context.Context) ([]domain.GraphObject, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.objects, ctx.Err()
}

type fakeDataset struct {
	ds  domain.Dataset
	err error
}

func (f *fakeDataset) Name() string { return "fake-dataset" }

func (f *fakeDataset) FetchDataset(ctx context.Context) (domain.Dataset, error) {
	return f.ds, f.err
}

func technique(node, source, extID, name string, revoked, deprecated bool) domain.GraphObject {
	return domain.GraphObject{
		Type:               domain.TypeAttackPattern,
		ID:                 node,
		Name:               name,
		ExternalReferences: []domain.ExternalReference{{SourceName: source, ExternalID: extID}},
		Revoked:            revoked,
		Deprecated:         deprecated,
	}
}

func enterpriseKB() *fakeKB {
	return &fakeKB{name: "enterprise-attack", objects: []domain.GraphObject{
		technique("attack-pattern--1", "mitre-attack", "T1059", "Command and Scripting Interpreter", false, false),
		technique("attack-pattern--2", "mitre-attack", "T1064", "Scripting", true, false),
		technique("attack-pattern--3", "mitre-attack", "T1000", "Retired", false, true),
		{
			Type:             domain.TypeRelationship,
			ID:               "relationship--1",
			RelationshipType: domain.RelRevokedBy,
			SourceRef:        "attack-pattern--2",
			TargetRef:        "attack-pattern--1",
		},
	}}
}

func icsKB() *fakeKB {
	return &fakeKB{name: "ics-attack", objects: []domain.GraphObject{
		technique("attack-pattern--ics1", "mitre-ics-attack", "T0836", "Modify Parameter", false, false),
	}}
}

func dataset() *fakeDataset {
	return &fakeDataset{ds: domain.Dataset{
		Items: []domain.Item{
			{ID: "D3-PSA", Version: "1", Techniques: []domain.MappedTech{{TechID: "T1064"}, {TechID: "T0836"}}},
			{ID: "D3-OLD", Version: "1", Techniques: []domain.MappedTech{{TechID: "T1000"}}},
		},
		Templates: []domain.Template{{
			ID: "ransomware",
			TechToItems: domain.TechToItemMap{
				"T1064":            {Confidence: "high", Items: []domain.ItemEntry{{ID: "D3-PSA"}}},
				"T1000":            {Confidence: "low", Items: []domain.ItemEntry{{ID: "D3-OLD"}}},
				domain.UnmappedKey: {Items: []domain.ItemEntry{}},
			},
		}},
	}}
}

func loadTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := LoadSession(context.Background(), zap.NewNop(), []ports.KnowledgeBaseProvider{enterpriseKB(), icsKB()}, dataset())
	require.NoError(t, err)
	return s
}

func TestLoadSession(t *testing.T) {
	s := loadTestSession(t)

	assert.Equal(t, []string{"enterprise-attack", "ics-attack"}, s.Partitions())
	assert.Equal(t, 4, s.Table().Len())
	assert.Equal(t, domain.StatusActive, s.Status("T0836").Kind())

	item, ok := s.Item("D3-PSA")
	require.True(t, ok)
	assert.Equal(t, []string{"T1059", "T0836"}, item.TechIDs())

	tmpl, ok := s.Template("ransomware")
	require.True(t, ok)
	assert.Equal(t, []string{"T1059"}, tmpl.TechToItems.TechIDs())
	assert.Equal(t, "D3-OLD", tmpl.TechToItems[domain.UnmappedKey].Items[0].ID)
	assert.Equal(t, []string{"ransomware"}, s.TemplateIDs())

	full := s.Report(true)
	assert.Len(t, full.Items["D3-PSA"], 2)
	filtered := s.Report(false)
	assert.Len(t, filtered.Items["D3-PSA"], 1)
}

func TestLoadSession_StructuralFailureAborts(t *testing.T) {
	broken := &fakeKB{name: "broken", objects: []domain.GraphObject{
		technique("attack-pattern--a", "mitre-attack", "T1", "A", true, false),
	}}

	s, err := LoadSession(context.Background(), zap.NewNop(), []ports.KnowledgeBaseProvider{enterpriseKB(), broken}, dataset())

	require.Error(t, err)
	assert.Nil(t, s)
	assert.True(t, errors.Is(err, domain.ErrBrokenRevocationChain))
}

func TestLoadSession_ProviderErrors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name string
		kbs  []ports.KnowledgeBaseProvider
		ds   ports.DatasetProvider
	}{
		{"no partitions", nil, dataset()},
		{"kb fetch", []ports.KnowledgeBaseProvider{&fakeKB{name: "x", err: boom}}, dataset()},
		{"dataset fetch", []ports.KnowledgeBaseProvider{enterpriseKB()}, &fakeDataset{err: boom}},
		{"unidentifiable partition", []ports.KnowledgeBaseProvider{&fakeKB{name: "empty"}}, dataset()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := LoadSession(context.Background(), zap.NewNop(), tt.kbs, tt.ds)
			assert.Error(t, err)
			assert.Nil(t, s)
		})
	}
}

func TestSession_AdjustTechniques(t *testing.T) {
	s := loadTestSession(t)

	result := s.AdjustTechniques([]string{"T1064", "T1059", "T1000", "T9999"})

	assert.Equal(t, []string{"T1059"}, result.IDs)
	require.Len(t, result.Adjustments, 4)
	assert.Equal(t, domain.AdjustmentReplaced, result.Adjustments[0].Status)
}

func TestSession_SeedFromTemplate(t *testing.T) {
	s := loadTestSession(t)

	result, err := s.SeedFromTemplate([]string{"T0836", "T1000"}, "ransomware")
	require.NoError(t, err)
	assert.Equal(t, []string{"T0836", "T1059"}, result.IDs)
	assert.Equal(t, domain.AdjustmentAdded, result.Adjustments[2].Status)

	_, err = s.SeedFromTemplate(nil, "missing")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}
