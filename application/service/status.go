package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/snapvec/snapvec/domain/embedding"
	"github.com/snapvec/snapvec/domain/gallery"
	"github.com/snapvec/snapvec/domain/repository"
	"github.com/snapvec/snapvec/infrastructure/provider"
	"github.com/snapvec/snapvec/internal/config"
	"github.com/snapvec/snapvec/internal/database"
	"github.com/snapvec/snapvec/internal/log"
)

// statusPageSize bounds how many items each catalog page load returns while
// scanning for coverage.
const statusPageSize = 500

// KindCoverage reports how much of one entity kind has embeddings under the
// active model.
type KindCoverage struct {
	Kind     embedding.Kind
	Items    int64
	Embedded int64
	Percent  float64
}

// EntityDetail reports embedding presence for one catalog item.
type EntityDetail struct {
	Ref      embedding.EntityRef
	Title    string
	Embedded bool
}

// EmbeddingStatus reports per-kind coverage and per-entity detail under the
// active model.
type EmbeddingStatus struct {
	Model    string
	Coverage []KindCoverage
	Details  []EntityDetail
	Total    int64
}

// AggregateStats summarizes the stored corpus.
type AggregateStats struct {
	Total             int64
	Models            []string
	Providers         []string
	AverageDimensions float64
	RecentCount       int64
	LatestCreatedAt   time.Time
	ComputedAt        time.Time
}

// Health reports provider identity and corpus state for monitoring.
type Health struct {
	Provider        string
	Model           string
	Dimensions      int
	ProviderOK      bool
	Total           int64
	LatestCreatedAt time.Time
}

// StatusService reports coverage, aggregate statistics, and health.
// Aggregate stats are cached for a configurable TTL and invalidated when
// the corpus changes.
type StatusService struct {
	store    embedding.Store
	catalog  gallery.Catalog
	provider provider.Provider
	ttl      time.Duration

	mu       sync.Mutex
	cached   *AggregateStats
	cachedAt time.Time
}

// NewStatusService creates a StatusService.
func NewStatusService(store embedding.Store, catalog gallery.Catalog, p provider.Provider, ttl time.Duration) *StatusService {
	return &StatusService{
		store:    store,
		catalog:  catalog,
		provider: p,
		ttl:      ttl,
	}
}

// Status reports embedding coverage under the active model, per kind and per
// entity. With refs given only those entities are inspected; otherwise the
// catalog is scanned, restricted to the scope.
func (s *StatusService) Status(ctx context.Context, refs []embedding.EntityRef, scope Scope) (EmbeddingStatus, error) {
	model := s.provider.Model()

	items, err := s.statusItems(ctx, refs, scope)
	if err != nil {
		return EmbeddingStatus{}, err
	}

	itemRefs := make([]embedding.EntityRef, len(items))
	for i, item := range items {
		itemRefs[i] = item.Ref()
	}
	embedded, err := s.store.HasEmbeddings(ctx, itemRefs, model)
	if err != nil {
		return EmbeddingStatus{}, fmt.Errorf("check embeddings: %w", err)
	}

	status := EmbeddingStatus{Model: model}
	kinds := []embedding.Kind{embedding.KindImage, embedding.KindAlbum}
	byKind := make(map[embedding.Kind]*KindCoverage, len(kinds))
	for _, kind := range kinds {
		byKind[kind] = &KindCoverage{Kind: kind}
	}

	for _, item := range items {
		has := embedded[item.Ref()]
		if coverage, ok := byKind[item.Kind()]; ok {
			coverage.Items++
			if has {
				coverage.Embedded++
			}
		}
		if has {
			status.Total++
		}
		status.Details = append(status.Details, EntityDetail{
			Ref:      item.Ref(),
			Title:    item.Title(),
			Embedded: has,
		})
	}

	for _, kind := range kinds {
		coverage := byKind[kind]
		if coverage.Items > 0 {
			coverage.Percent = float64(coverage.Embedded) / float64(coverage.Items) * 100
		}
		status.Coverage = append(status.Coverage, *coverage)
	}

	return status, nil
}

// statusItems resolves the entities a status report covers: the named refs
// when given, otherwise a paged scan of the scoped catalog. Named refs that
// vanished from the catalog are skipped.
func (s *StatusService) statusItems(ctx context.Context, refs []embedding.EntityRef, scope Scope) ([]gallery.Item, error) {
	if len(refs) > 0 {
		items := make([]gallery.Item, 0, len(refs))
		for _, ref := range refs {
			item, err := s.catalog.Get(ctx, ref)
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					continue
				}
				return nil, fmt.Errorf("load entity %s: %w", ref, err)
			}
			if scope.Matches(item) {
				items = append(items, item)
			}
		}
		return items, nil
	}

	options := append(scope.Options(),
		repository.WithOrderAsc("id"),
		repository.WithLimit(statusPageSize),
	)
	var items []gallery.Item
	for offset := 0; ; offset += statusPageSize {
		page, err := s.catalog.Find(ctx, append(options, repository.WithOffset(offset))...)
		if err != nil {
			return nil, fmt.Errorf("scan catalog: %w", err)
		}
		items = append(items, page...)
		if len(page) < statusPageSize {
			break
		}
	}
	return items, nil
}

// Stats returns aggregate corpus statistics, served from cache until the
// TTL expires or Invalidate is called.
func (s *StatusService) Stats(ctx context.Context) (AggregateStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && time.Since(s.cachedAt) < s.ttl {
		return *s.cached, nil
	}

	stats, err := s.computeStats(ctx)
	if err != nil {
		return AggregateStats{}, err
	}

	s.cached = &stats
	s.cachedAt = time.Now()
	return stats, nil
}

// Invalidate drops the cached aggregate stats so the next Stats call
// recomputes them.
func (s *StatusService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
}

func (s *StatusService) computeStats(ctx context.Context) (AggregateStats, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return AggregateStats{}, fmt.Errorf("count embeddings: %w", err)
	}
	models, err := s.store.DistinctModels(ctx)
	if err != nil {
		return AggregateStats{}, fmt.Errorf("list models: %w", err)
	}
	providers, err := s.store.DistinctProviders(ctx)
	if err != nil {
		return AggregateStats{}, fmt.Errorf("list providers: %w", err)
	}
	avgDims, err := s.store.AverageDimensions(ctx)
	if err != nil {
		return AggregateStats{}, fmt.Errorf("average dimensions: %w", err)
	}
	recent, err := s.store.CountSince(ctx, time.Now().Add(-config.StatsRecentWindow))
	if err != nil {
		return AggregateStats{}, fmt.Errorf("count recent: %w", err)
	}
	latest, err := s.store.LatestCreatedAt(ctx)
	if err != nil {
		return AggregateStats{}, fmt.Errorf("latest created at: %w", err)
	}

	return AggregateStats{
		Total:             total,
		Models:            models,
		Providers:         providers,
		AverageDimensions: avgDims,
		RecentCount:       recent,
		LatestCreatedAt:   latest,
		ComputedAt:        time.Now(),
	}, nil
}

// CheckHealth reports provider reachability and basic corpus state.
func (s *StatusService) CheckHealth(ctx context.Context) Health {
	health := Health{
		Provider:   s.provider.Name(),
		Model:      s.provider.Model(),
		Dimensions: s.provider.Dimensions(),
	}

	if err := s.provider.Ping(ctx); err != nil {
		log.FromContext(ctx).Warn("provider ping failed", "provider", health.Provider, "error", err)
	} else {
		health.ProviderOK = true
	}

	if total, err := s.store.Count(ctx); err == nil {
		health.Total = total
	}
	if latest, err := s.store.LatestCreatedAt(ctx); err == nil {
		health.LatestCreatedAt = latest
	}

	return health
}
