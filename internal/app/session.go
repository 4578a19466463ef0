package app

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hive-corporation/driftwatch/internal/adapter/metrics"
	"github.com/hive-corporation/driftwatch/internal/core/domain"
	"github.com/hive-corporation/driftwatch/internal/core/ports"
)

// Session is one loaded knowledge base plus the dataset adjusted against it.
// It is immutable once LoadSession returns.
type Session struct {
	table      domain.TechStatusTable
	partitions []string
	dataset    domain.Dataset
	report     domain.DatasetAdjustments
	items      domain.ItemIndex
	templates  map[string]domain.Template
}

// LoadSession builds every partition's status table concurrently, merges
// them and adjusts the dataset. Any structural failure aborts the load; a
// partial session is never returned.
func LoadSession(ctx context.Context, logger *zap.Logger, kbs []ports.KnowledgeBaseProvider, ds ports.DatasetProvider) (*Session, error) {
	if len(kbs) == 0 {
		return nil, fmt.Errorf("no knowledge-base partitions configured")
	}

	timer := metrics.StartTimer()

	partitions := make([]domain.StatusPartition, len(kbs))
	var dataset domain.Dataset

	g, gctx := errgroup.WithContext(ctx)
	for i, kb := range kbs {
		i, kb := i, kb
		g.Go(func() error {
			logger.Debug("Loading knowledge-base partition", zap.String("provider", kb.Name()))

			objects, err := kb.FetchObjects(gctx)
			if err != nil {
				return fmt.Errorf("failed to fetch %s: %w", kb.Name(), err)
			}

			partition, err := domain.BuildStatusTable(objects)
			if err != nil {
				return fmt.Errorf("failed to build status table from %s: %w", kb.Name(), err)
			}

			logger.Info("Partition loaded",
				zap.String("provider", kb.Name()),
				zap.String("partition", partition.Partition),
				zap.Int("objects", len(objects)),
				zap.Int("techniques", partition.Table.Len()),
			)
			partitions[i] = partition
			return nil
		})
	}
	g.Go(func() error {
		var err error
		dataset, err = ds.FetchDataset(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch dataset %s: %w", ds.Name(), err)
		}
		logger.Info("Dataset loaded",
			zap.String("provider", ds.Name()),
			zap.Int("items", len(dataset.Items)),
			zap.Int("templates", len(dataset.Templates)),
		)
		return nil
	})

	if err := g.Wait(); err != nil {
		metrics.RecordLoadFailure("load")
		return nil, err
	}

	tables := make([]domain.TechStatusTable, len(partitions))
	names := make([]string, len(partitions))
	for i, p := range partitions {
		tables[i] = p.Table
		names[i] = p.Partition
		metrics.RecordPartition(p)
	}
	table := domain.MergeTables(tables...)

	adjusted, report := domain.DatasetAdjustToAttack(dataset, table)
	metrics.RecordReport(report)
	timer.ObserveDuration()

	filtered := report.WithoutUnchanged()
	logger.Info("Dataset adjusted",
		zap.Strings("partitions", names),
		zap.Int("techniques", table.Len()),
		zap.Int("items_changed", len(filtered.Items)),
		zap.Int("templates_changed", len(filtered.Templates)),
		zap.Int("replaced", report.Count(domain.AdjustmentReplaced)),
		zap.Int("removed", report.Count(domain.AdjustmentRemoved)),
	)

	return NewSession(table, names, adjusted, report), nil
}

// NewSession wraps already-adjusted data. LoadSession is the normal entry
// point; this is exposed for callers that assemble tables themselves.
func NewSession(table domain.TechStatusTable, partitions []string, adjusted domain.Dataset, report domain.DatasetAdjustments) *Session {
	templates := make(map[string]domain.Template, len(adjusted.Templates))
	for _, tmpl := range adjusted.Templates {
		templates[tmpl.ID] = tmpl
	}
	return &Session{
		table:      table,
		partitions: partitions,
		dataset:    adjusted,
		report:     report,
		items:      domain.BuildItemIndex(adjusted.Items),
		templates:  templates,
	}
}

func (s *Session) Table() domain.TechStatusTable { return s.table }

func (s *Session) Partitions() []string { return s.partitions }

func (s *Session) Dataset() domain.Dataset { return s.dataset }

func (s *Session) Status(id string) domain.TechStatus {
	return s.table.Status(id)
}

// AdjustTechniques normalizes a free-form, user-submitted list of IDs.
func (s *Session) AdjustTechniques(ids []string) domain.AdjustmentResult {
	result := domain.AdjustTechs(ids, s.table)
	metrics.RecordAdjustments("user", result.Adjustments)
	return result
}

// SeedFromTemplate normalizes user IDs and merges in the live techniques of
// an adjusted template, as done when importing a playbook.
func (s *Session) SeedFromTemplate(ids []string, templateID string) (domain.AdjustmentResult, error) {
	tmpl, ok := s.templates[templateID]
	if !ok {
		return domain.AdjustmentResult{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
	}

	result, err := domain.AdjustTechsWithAdditions(ids, tmpl.TechToItems.TechIDs(), s.table)
	if err != nil {
		return domain.AdjustmentResult{}, fmt.Errorf("template %s: %w", templateID, err)
	}
	metrics.RecordAdjustments("user", result.Adjustments)
	return result, nil
}

func (s *Session) Item(id string) (domain.Item, bool) {
	item, ok := s.items[id]
	return item, ok
}

func (s *Session) Template(id string) (domain.Template, bool) {
	tmpl, ok := s.templates[id]
	return tmpl, ok
}

// TemplateIDs returns the loaded template IDs in sorted order.
func (s *Session) TemplateIDs() []string {
	ids := make([]string, 0, len(s.templates))
	for id := range s.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Report returns the load-time audit report, optionally without unchanged
// rows.
func (s *Session) Report(includeUnchanged bool) domain.DatasetAdjustments {
	if includeUnchanged {
		return s.report
	}
	return s.report.WithoutUnchanged()
}
