package ports

import (
	"context"

	"github.com/hive-corporation/driftwatch/internal/core/domain"
)

// KnowledgeBaseProvider supplies the raw object graph of one knowledge-base
// partition.
type KnowledgeBaseProvider interface {
	FetchObjects(ctx context.Context) ([]domain.GraphObject, error)
	Name() string
}

// DatasetProvider supplies the items and templates to be adjusted.
type DatasetProvider interface {
	FetchDataset(ctx context.Context) (domain.Dataset, error)
	Name() string
}
