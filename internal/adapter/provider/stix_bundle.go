package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hive-corporation/driftwatch/internal/core/domain"
)

// STIXBundleProvider reads one knowledge-base partition from a STIX 2.x
// bundle file (for example enterprise-attack.json).
type STIXBundleProvider struct {
	path string
}

func NewSTIXBundleProvider(path string) *STIXBundleProvider {
	return &STIXBundleProvider{path: path}
}

func (p *STIXBundleProvider) Name() string {
	return strings.TrimSuffix(filepath.Base(p.path), filepath.Ext(p.path))
}

func (p *STIXBundleProvider) FetchObjects(ctx context.Context) ([]domain.GraphObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read STIX bundle %s: %w", p.path, err)
	}

	return DecodeSTIXBundle(data)
}

// DecodeSTIXBundle converts raw bundle JSON into graph objects.
func DecodeSTIXBundle(data []byte) ([]domain.GraphObject, error) {
	var bundle stixBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("failed to decode STIX bundle: %w", err)
	}
	if bundle.Type != "bundle" {
		return nil, fmt.Errorf("unexpected STIX document type %q", bundle.Type)
	}

	objects := make([]domain.GraphObject, 0, len(bundle.Objects))
	for _, obj := range bundle.Objects {
		refs := make([]domain.ExternalReference, 0, len(obj.ExternalReferences))
		for _, ref := range obj.ExternalReferences {
			refs = append(refs, domain.ExternalReference{
				SourceName: ref.SourceName,
				ExternalID: ref.ExternalID,
				URL:        ref.URL,
			})
		}

		objects = append(objects, domain.GraphObject{
			Type:               obj.Type,
			ID:                 obj.ID,
			Name:               obj.Name,
			ExternalReferences: refs,
			Deprecated:         obj.Deprecated,
			Revoked:            obj.Revoked,
			RelationshipType:   obj.RelationshipType,
			SourceRef:          obj.SourceRef,
			TargetRef:          obj.TargetRef,
		})
	}

	return objects, nil
}

// STIX 2.x wire structures, limited to the fields the status builder reads.

type stixBundle struct {
	Type    string       `json:"type"`
	ID      string       `json:"id"`
	Objects []stixObject `json:"objects"`
}

type stixObject struct {
	Type               string                  `json:"type"`
	ID                 string                  `json:"id"`
	Name               string                  `json:"name"`
	ExternalReferences []stixExternalReference `json:"external_references,omitempty"`
	Deprecated         bool                    `json:"x_mitre_deprecated"`
	Revoked            bool                    `json:"revoked"`
	RelationshipType   string                  `json:"relationship_type,omitempty"`
	SourceRef          string                  `json:"source_ref,omitempty"`
	TargetRef          string                  `json:"target_ref,omitempty"`
}

type stixExternalReference struct {
	SourceName string `json:"source_name"`
	ExternalID string `json:"external_id,omitempty"`
	URL        string `json:"url,omitempty"`
}
