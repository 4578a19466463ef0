package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hive-corporation/driftwatch/internal/core/domain"
)

// YAMLDatasetProvider reads items and templates from a YAML document.
type YAMLDatasetProvider struct {
	path string
}

func NewYAMLDatasetProvider(path string) *YAMLDatasetProvider {
	return &YAMLDatasetProvider{path: path}
}

func (p *YAMLDatasetProvider) Name() string {
	return filepath.Base(p.path)
}

func (p *YAMLDatasetProvider) FetchDataset(ctx context.Context) (domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return domain.Dataset{}, err
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("failed to read dataset %s: %w", p.path, err)
	}

	return DecodeDataset(data)
}

// DecodeDataset parses a YAML dataset. Templates missing the unmapped bucket
// get an empty one, and duplicate item or template IDs are rejected.
func DecodeDataset(data []byte) (domain.Dataset, error) {
	var ds domain.Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return domain.Dataset{}, fmt.Errorf("failed to decode dataset: %w", err)
	}

	seenItems := make(map[string]bool, len(ds.Items))
	for _, item := range ds.Items {
		if item.ID == "" {
			return domain.Dataset{}, fmt.Errorf("dataset item without id")
		}
		if seenItems[item.ID] {
			return domain.Dataset{}, fmt.Errorf("duplicate dataset item %q", item.ID)
		}
		seenItems[item.ID] = true
	}

	seenTemplates := make(map[string]bool, len(ds.Templates))
	for i, tmpl := range ds.Templates {
		if tmpl.ID == "" {
			return domain.Dataset{}, fmt.Errorf("template without id")
		}
		if seenTemplates[tmpl.ID] {
			return domain.Dataset{}, fmt.Errorf("duplicate template %q", tmpl.ID)
		}
		seenTemplates[tmpl.ID] = true

		if tmpl.TechToItems == nil {
			tmpl.TechToItems = domain.TechToItemMap{}
		}
		if _, ok := tmpl.TechToItems[domain.UnmappedKey]; !ok {
			tmpl.TechToItems[domain.UnmappedKey] = domain.TechMapping{Items: []domain.ItemEntry{}}
		}
		ds.Templates[i] = tmpl
	}

	return ds, nil
}
