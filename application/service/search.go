package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/snapvec/snapvec/domain/embedding"
	"github.com/snapvec/snapvec/domain/gallery"
	"github.com/snapvec/snapvec/domain/repository"
	"github.com/snapvec/snapvec/domain/search"
	"github.com/snapvec/snapvec/internal/config"
	"github.com/snapvec/snapvec/internal/database"
	"github.com/snapvec/snapvec/internal/log"
)

// candidatePageSize bounds how many records each store page load returns
// while scanning the corpus.
const candidatePageSize = 500

// Scope restricts an operation to one owner or album. Zero values leave a
// dimension unrestricted.
type Scope struct {
	OwnerID int64
	AlbumID int64
}

// IsZero reports whether the scope restricts nothing.
func (s Scope) IsZero() bool { return s.OwnerID == 0 && s.AlbumID == 0 }

// Matches reports whether the item falls inside the scope.
func (s Scope) Matches(item gallery.Item) bool {
	if s.OwnerID != 0 && item.OwnerID() != s.OwnerID {
		return false
	}
	if s.AlbumID != 0 && item.AlbumID() != s.AlbumID {
		return false
	}
	return true
}

// Options translates the scope into catalog query options.
func (s Scope) Options() []gallery.Option {
	var opts []gallery.Option
	if s.OwnerID != 0 {
		opts = append(opts, gallery.WithOwner(s.OwnerID))
	}
	if s.AlbumID != 0 {
		opts = append(opts, gallery.WithAlbum(s.AlbumID))
	}
	return opts
}

// SearchOutcome is the resolved result of a search call, echoing the
// effective limit and threshold after defaults were applied. Source carries
// the item a similar-item lookup started from.
type SearchOutcome struct {
	Results   []search.Result
	Source    *gallery.Item
	Limit     int
	Threshold float64
	Fallback  bool
}

// SearchService answers text and similar-item queries over the embedding
// corpus, degrading to keyword or tag fallback when semantic search cannot
// run.
type SearchService struct {
	store     embedding.Store
	catalog   gallery.Catalog
	generator *GeneratorService
	fallback  *FallbackService
	cfg       config.SearchConfig
}

// NewSearchService creates a SearchService.
func NewSearchService(
	store embedding.Store,
	catalog gallery.Catalog,
	generator *GeneratorService,
	fallback *FallbackService,
	cfg config.SearchConfig,
) *SearchService {
	return &SearchService{
		store:     store,
		catalog:   catalog,
		generator: generator,
		fallback:  fallback,
		cfg:       cfg,
	}
}

// Search ranks the corpus against the embedded query text, restricted to the
// given scope. A nil threshold and a non-positive limit take the configured
// defaults; the limit is capped at the configured maximum. When the provider
// or the store fails the call degrades to keyword fallback instead of
// erroring; a successful pass that matches nothing returns empty results.
func (s *SearchService) Search(ctx context.Context, query string, limit int, threshold *float64, scope Scope) (SearchOutcome, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchOutcome{}, NewValidationError("query", ErrEmptyQuery)
	}

	limit = clampLimit(limit, s.cfg.DefaultLimit(), s.cfg.MaxLimit())
	t := s.cfg.DefaultThreshold()
	if threshold != nil {
		t = *threshold
	}
	outcome := SearchOutcome{Limit: limit, Threshold: t}

	queryVector, err := s.generator.GenerateForText(ctx, query)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			return SearchOutcome{}, err
		}
		log.FromContext(ctx).Warn("query embedding failed, using keyword fallback", "error", err)
		outcome.Results = s.fallback.ByKeyword(ctx, query, limit, scope)
		outcome.Fallback = true
		return outcome, nil
	}

	results, err := s.rankCorpus(ctx, queryVector, embedding.EntityRef{}, limit, t, scope)
	if err != nil {
		var dimErr *search.DimensionError
		if errors.As(err, &dimErr) {
			return SearchOutcome{}, err
		}
		log.FromContext(ctx).Warn("semantic search failed, using keyword fallback", "error", err)
		outcome.Results = s.fallback.ByKeyword(ctx, query, limit, scope)
		outcome.Fallback = true
		return outcome, nil
	}

	outcome.Results = results
	return outcome, nil
}

// FindSimilar ranks the corpus against the source entity's embedding,
// generating it first when none is stored yet. The source itself is excluded
// from the results. When the embedding can neither be loaded nor generated
// the call degrades to shared-tag fallback; a successful pass that matches
// nothing returns empty results.
func (s *SearchService) FindSimilar(ctx context.Context, ref embedding.EntityRef, limit int, threshold *float64) (SearchOutcome, error) {
	limit = clampLimit(limit, s.cfg.SimilarLimit(), s.cfg.SimilarMaxLimit())
	t := s.cfg.SimilarThreshold()
	if threshold != nil {
		t = *threshold
	}
	outcome := SearchOutcome{Limit: limit, Threshold: t}

	item, err := s.catalog.Get(ctx, ref)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return SearchOutcome{}, NewEntityNotFoundError(ref)
		}
		return SearchOutcome{}, fmt.Errorf("load entity %s: %w", ref, err)
	}
	outcome.Source = &item

	source, err := s.sourceVector(ctx, ref)
	if err != nil {
		log.FromContext(ctx).Warn("source embedding unavailable, using tag fallback",
			"entity", ref.String(), "error", err)
		outcome.Results = s.fallback.BySharedTag(ctx, ref, limit)
		outcome.Fallback = true
		return outcome, nil
	}

	results, err := s.rankCorpus(ctx, source, ref, limit, t, Scope{})
	if err != nil {
		var dimErr *search.DimensionError
		if errors.As(err, &dimErr) {
			return SearchOutcome{}, err
		}
		log.FromContext(ctx).Warn("similarity search failed, using tag fallback",
			"entity", ref.String(), "error", err)
		outcome.Results = s.fallback.BySharedTag(ctx, ref, limit)
		outcome.Fallback = true
		return outcome, nil
	}

	outcome.Results = results
	return outcome, nil
}

// sourceVector resolves the entity's stored embedding, generating one on the
// fly when the entity was never embedded.
func (s *SearchService) sourceVector(ctx context.Context, ref embedding.EntityRef) ([]float64, error) {
	source, err := s.store.Get(ctx, ref, s.generator.Provider().Model())
	if err == nil {
		return source.Vector(), nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("load embedding for %s: %w", ref, err)
	}

	record, _, err := s.generator.GenerateForEntity(ctx, ref, false)
	if err != nil {
		return nil, fmt.Errorf("generate embedding for %s: %w", ref, err)
	}
	return record.Vector(), nil
}

// rankCorpus scores every stored record under the active model against the
// query vector and hydrates the survivors from the catalog. Records whose
// entity vanished or falls outside the scope are skipped, so the unscoped
// ranking over-fetches and a scoped one keeps the full match list.
func (s *SearchService) rankCorpus(ctx context.Context, queryVector []float64, exclude embedding.EntityRef, limit int, threshold float64, scope Scope) ([]search.Result, error) {
	candidates, err := s.loadCandidates(ctx, exclude)
	if err != nil {
		return nil, err
	}

	topK := limit * 2
	if !scope.IsZero() {
		topK = len(candidates)
	}

	matches, err := search.Rank(queryVector, candidates, topK, threshold)
	if err != nil {
		return nil, fmt.Errorf("rank candidates: %w", err)
	}

	results := make([]search.Result, 0, limit)
	for _, match := range matches {
		if len(results) == limit {
			break
		}
		ref, err := embedding.ParseEntityRef(match.Key())
		if err != nil {
			return nil, err
		}
		item, err := s.catalog.Get(ctx, ref)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("hydrate %s: %w", ref, err)
		}
		if !scope.Matches(item) {
			continue
		}
		results = append(results, search.NewResult(ref, match.Score(), item.Title(), item.Thumbnail(), item.OwnerID()))
	}
	return results, nil
}

func (s *SearchService) loadCandidates(ctx context.Context, exclude embedding.EntityRef) ([]search.Candidate, error) {
	model := s.generator.Provider().Model()
	var candidates []search.Candidate

	for offset := 0; ; offset += candidatePageSize {
		records, err := s.store.Find(ctx,
			embedding.WithModel(model),
			repository.WithOrderAsc("id"),
			repository.WithLimit(candidatePageSize),
			repository.WithOffset(offset),
		)
		if err != nil {
			return nil, fmt.Errorf("load candidates: %w", err)
		}
		for _, record := range records {
			if record.Ref() == exclude {
				continue
			}
			candidates = append(candidates, search.NewCandidate(record.Ref().String(), record.Vector()))
		}
		if len(records) < candidatePageSize {
			break
		}
	}

	return candidates, nil
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
