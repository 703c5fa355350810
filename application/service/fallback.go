package service

import (
	"context"

	"github.com/snapvec/snapvec/domain/embedding"
	"github.com/snapvec/snapvec/domain/gallery"
	"github.com/snapvec/snapvec/domain/search"
	"github.com/snapvec/snapvec/internal/config"
	"github.com/snapvec/snapvec/internal/log"
)

// FallbackService produces non-semantic results when embedding-based search
// cannot run. Fallback lookups never fail the request: any error degrades to
// an empty result set.
type FallbackService struct {
	catalog gallery.Catalog
	search  config.SearchConfig
}

// NewFallbackService creates a FallbackService.
func NewFallbackService(catalog gallery.Catalog, search config.SearchConfig) *FallbackService {
	return &FallbackService{catalog: catalog, search: search}
}

// ByKeyword matches items whose title or description contains the query,
// restricted to the scope, each carrying the nominal keyword score.
func (s *FallbackService) ByKeyword(ctx context.Context, query string, limit int, scope Scope) []search.Result {
	items, err := s.catalog.FindByKeyword(ctx, query, limit, scope.Options()...)
	if err != nil {
		log.FromContext(ctx).Warn("keyword fallback failed", "error", err)
		return []search.Result{}
	}
	return s.toResults(items, s.search.KeywordScore())
}

// BySharedTag matches items sharing a tag with the source item, each
// carrying the nominal tag score. The source item itself is excluded.
func (s *FallbackService) BySharedTag(ctx context.Context, ref embedding.EntityRef, limit int) []search.Result {
	item, err := s.catalog.Get(ctx, ref)
	if err != nil {
		log.FromContext(ctx).Warn("tag fallback failed", "entity", ref.String(), "error", err)
		return []search.Result{}
	}

	tags := item.Tags()
	if len(tags) == 0 {
		return []search.Result{}
	}

	items, err := s.catalog.FindBySharedTag(ctx, ref, tags, limit)
	if err != nil {
		log.FromContext(ctx).Warn("tag fallback failed", "entity", ref.String(), "error", err)
		return []search.Result{}
	}
	return s.toResults(items, s.search.TagScore())
}

func (s *FallbackService) toResults(items []gallery.Item, score float64) []search.Result {
	results := make([]search.Result, len(items))
	for i, item := range items {
		results[i] = search.NewFallbackResult(item.Ref(), score, item.Title(), item.Thumbnail(), item.OwnerID())
	}
	return results
}
