// Package controller implements the core business logic (service layer) of
// the registry: it orchestrates ingestion, index maintenance, and the two
// read paths, and emits lifecycle events and metrics around them.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	e "github.com/opencorpdata/registry/internal/registry/errors"
	"github.com/opencorpdata/registry/internal/registry/events"
	"github.com/opencorpdata/registry/internal/registry/ingest"
	"github.com/opencorpdata/registry/internal/registry/metrics"
	"github.com/opencorpdata/registry/internal/registry/models"
	"github.com/opencorpdata/registry/internal/registry/search"
	"go.uber.org/zap"
)

// EventProducer publishes registry lifecycle notifications.
type EventProducer interface {
	Produce(eventType events.EventType, count int64, detail string)
}

// Repository defines the storage interface the service operates on.
type Repository interface {
	search.Repository
	InsertCompanies(ctx context.Context, records []*models.CompanyRecord) (int64, error)
	RebuildSearchIndex(ctx context.Context) (int64, error)
	ResetSearchIndex(ctx context.Context) error
	DeleteByState(ctx context.Context, state string) (int64, error)
	FullTextSlim(ctx context.Context, match string, limit int) ([]*models.SlimRecord, error)
	Counts(ctx context.Context) (companies, indexed int64, err error)
	Close() error
}

// slimLimit caps the narrow full-text endpoint, which has no pagination.
const slimLimit = 20

// RegistryService wires the planner, loader, repository, events and metrics
// behind the operations the transport layer and the admin CLI call.
type RegistryService struct {
	repo     Repository
	planner  *search.Planner
	loader   *ingest.Loader
	producer EventProducer
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewRegistryService constructs a RegistryService.
func NewRegistryService(repo Repository, producer EventProducer, m *metrics.Metrics, logger *zap.Logger) *RegistryService {
	return &RegistryService{
		repo:     repo,
		planner:  search.NewPlanner(repo, logger),
		loader:   ingest.NewLoader(repo, logger),
		producer: producer,
		metrics:  m,
		logger:   logger.Named("registry_service"),
	}
}

// Search serves one paginated search request. Purely read-only; bad
// pagination values are clamped by the planner, never rejected.
func (s *RegistryService) Search(ctx context.Context, q *models.SearchQuery) (*models.SearchResultPage, error) {
	start := time.Now()
	page, strategy, err := s.planner.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to search companies: %w", err)
	}
	s.metrics.SearchesTotal.WithLabelValues(string(strategy)).Inc()
	s.metrics.SearchDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	return page, nil
}

// GetByCIN retrieves a single record by its identifier, returning
// ErrNotFound on a miss.
func (s *RegistryService) GetByCIN(ctx context.Context, cin string) (*models.CompanyRecord, error) {
	cin = strings.TrimSpace(cin)
	if cin == "" {
		return nil, fmt.Errorf("%w: empty identifier", e.ErrInvalidInput)
	}
	record, err := s.repo.GetByCIN(ctx, cin)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			s.metrics.LookupMisses.Inc()
			return nil, err
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return record, nil
}

// QuickSearch serves the narrow full-text endpoint: a bare list of slim rows
// for a keyword, capped at slimLimit. When the text index cannot answer, the
// prefix fallback fills in; the caller never sees an index error.
func (s *RegistryService) QuickSearch(ctx context.Context, keyword string) ([]*models.SlimRecord, error) {
	normalized := search.NormalizeKeyword(keyword)
	if normalized == "" {
		return nil, fmt.Errorf("%w: empty keyword", e.ErrInvalidInput)
	}

	if s.repo.FTSAvailable() && search.KeywordIndexable(normalized) {
		rows, err := s.repo.FullTextSlim(ctx, search.BuildMatch(normalized), slimLimit)
		if err != nil {
			s.logger.Warn("quick search fell back to prefix match", zap.Error(err))
		} else if len(rows) > 0 {
			return rows, nil
		}
	}

	records, err := s.repo.PrefixSearch(ctx, strings.TrimSpace(keyword), "", slimLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to search companies: %w", err)
	}
	rows := make([]*models.SlimRecord, 0, len(records))
	for _, rec := range records {
		rows = append(rows, &models.SlimRecord{
			Name:      rec.Name,
			CIN:       rec.CIN,
			StateCode: rec.StateCode,
			Address:   rec.Address,
		})
	}
	return rows, nil
}

// Ingest loads every dump file under dir. Malformed files are isolated per
// file and reported, not fatal. The search index is not touched; run
// RebuildIndex afterwards to make the new rows full-text searchable.
func (s *RegistryService) Ingest(ctx context.Context, dir string) (*ingest.Report, error) {
	report, err := s.loader.Ingest(ctx, dir)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordsIngested.Add(float64(report.Inserted))
	s.producer.Produce(events.BatchIngested, report.Inserted, dir)
	return report, nil
}

// RebuildIndex incrementally indexes rows ingested since the last rebuild.
// Cheap to call after every batch; a no-op once caught up.
func (s *RegistryService) RebuildIndex(ctx context.Context) (int64, error) {
	indexed, err := s.repo.RebuildSearchIndex(ctx)
	if err != nil {
		return 0, err
	}
	s.metrics.RowsIndexed.Add(float64(indexed))
	if indexed > 0 {
		s.producer.Produce(events.IndexRebuilt, indexed, "")
	}
	s.logger.Info("search index rebuilt", zap.Int64("indexed", indexed))
	return indexed, nil
}

// PurgeState bulk-deletes every record under a jurisdiction, then resets and
// rebuilds the append-only search index so it no longer references the
// deleted rows. Administrative correction path only.
func (s *RegistryService) PurgeState(ctx context.Context, state string) (int64, error) {
	normalized := search.NormalizeState(state)
	if normalized == "" {
		return 0, fmt.Errorf("%w: empty state", e.ErrInvalidInput)
	}

	deleted, err := s.repo.DeleteByState(ctx, normalized)
	if err != nil {
		return 0, err
	}
	if err := s.repo.ResetSearchIndex(ctx); err != nil {
		return deleted, err
	}
	if _, err := s.repo.RebuildSearchIndex(ctx); err != nil {
		return deleted, err
	}
	s.producer.Produce(events.StatePurged, deleted, normalized)
	s.logger.Info("purged jurisdiction",
		zap.String("state", normalized),
		zap.Int64("deleted", deleted),
	)
	return deleted, nil
}

// Stats reports base-table and index row counts.
func (s *RegistryService) Stats(ctx context.Context) (companies, indexed int64, err error) {
	return s.repo.Counts(ctx)
}
