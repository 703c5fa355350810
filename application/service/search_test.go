package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapvec/snapvec/domain/embedding"
	"github.com/snapvec/snapvec/domain/gallery"
	"github.com/snapvec/snapvec/domain/search"
	"github.com/snapvec/snapvec/infrastructure/provider"
	"github.com/snapvec/snapvec/internal/config"
)

func newTestSearch(t *testing.T, p provider.Provider) (*SearchService, *GeneratorService, *fakeStore, *fakeCatalog) {
	t.Helper()
	store := newFakeStore()
	catalog := newFakeCatalog()
	cfg := config.NewSearchConfig()
	generator := NewGeneratorService(store, catalog, p)
	fallback := NewFallbackService(catalog, cfg)
	searchSvc := NewSearchService(store, catalog, generator, fallback, cfg)
	return searchSvc, generator, store, catalog
}

func syntheticTestProvider() provider.Provider {
	return provider.NewSyntheticProvider("synthetic-embedding-v1", 512)
}

func floatPtr(f float64) *float64 { return &f }

func ownedItem(id, ownerID, albumID int64, title string) gallery.Item {
	return gallery.NewItem(id, embedding.KindImage, title, "description of "+title, "thumb.jpg", ownerID, albumID, nil)
}

func TestSearch_EmptyQuery(t *testing.T) {
	searchSvc, _, _, _ := newTestSearch(t, syntheticTestProvider())

	_, err := searchSvc.Search(context.Background(), "  ", 0, nil, Scope{})

	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestSearch_FindsExactMatch(t *testing.T) {
	searchSvc, generator, _, catalog := newTestSearch(t, syntheticTestProvider())
	ctx := context.Background()

	sunset := testItem(1, embedding.KindImage, "sunset")
	catalog.add(sunset)
	catalog.add(testItem(2, embedding.KindImage, "forest"))

	for _, id := range []int64{1, 2} {
		_, _, err := generator.GenerateForEntity(ctx, embedding.NewEntityRef(embedding.KindImage, id), false)
		require.NoError(t, err)
	}

	// Querying with the exact text embedded for the item scores 1.0.
	outcome, err := searchSvc.Search(ctx, DescribeItem(sunset), 10, floatPtr(0.99), Scope{})
	require.NoError(t, err)

	assert.False(t, outcome.Fallback)
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, "image/1", outcome.Results[0].Ref().String())
	assert.InDelta(t, 1.0, outcome.Results[0].Score(), 1e-9)
	assert.Equal(t, "sunset", outcome.Results[0].Title())
	assert.False(t, outcome.Results[0].IsFallback())
}

func TestSearch_DefaultsApplied(t *testing.T) {
	searchSvc, _, _, _ := newTestSearch(t, syntheticTestProvider())

	outcome, err := searchSvc.Search(context.Background(), "anything", 0, nil, Scope{})
	require.NoError(t, err)

	assert.Equal(t, config.DefaultSearchLimit, outcome.Limit)
	assert.Equal(t, config.DefaultSearchThreshold, outcome.Threshold)
}

func TestSearch_LimitCapped(t *testing.T) {
	searchSvc, _, _, _ := newTestSearch(t, syntheticTestProvider())

	outcome, err := searchSvc.Search(context.Background(), "anything", 9999, nil, Scope{})
	require.NoError(t, err)

	assert.Equal(t, config.DefaultSearchMaxLimit, outcome.Limit)
}

func TestSearch_ScopedToOwner(t *testing.T) {
	searchSvc, generator, _, catalog := newTestSearch(t, syntheticTestProvider())
	ctx := context.Background()

	// Identical text embeds to identical vectors, so both score 1.0 and
	// only the scope separates them.
	catalog.add(ownedItem(1, 7, 0, "sunset"))
	catalog.add(ownedItem(2, 9, 0, "sunset"))

	for _, id := range []int64{1, 2} {
		_, _, err := generator.GenerateForEntity(ctx, embedding.NewEntityRef(embedding.KindImage, id), false)
		require.NoError(t, err)
	}

	outcome, err := searchSvc.Search(ctx, DescribeItem(ownedItem(1, 7, 0, "sunset")), 10, floatPtr(0.99), Scope{OwnerID: 9})
	require.NoError(t, err)

	assert.False(t, outcome.Fallback)
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, "image/2", outcome.Results[0].Ref().String())
	assert.EqualValues(t, 9, outcome.Results[0].OwnerID())
}

func TestSearch_ScopedToAlbum(t *testing.T) {
	searchSvc, generator, _, catalog := newTestSearch(t, syntheticTestProvider())
	ctx := context.Background()

	catalog.add(ownedItem(1, 7, 3, "sunset"))
	catalog.add(ownedItem(2, 7, 4, "sunset"))

	for _, id := range []int64{1, 2} {
		_, _, err := generator.GenerateForEntity(ctx, embedding.NewEntityRef(embedding.KindImage, id), false)
		require.NoError(t, err)
	}

	outcome, err := searchSvc.Search(ctx, DescribeItem(ownedItem(1, 7, 3, "sunset")), 10, floatPtr(0.99), Scope{AlbumID: 3})
	require.NoError(t, err)

	require.Len(t, outcome.Results, 1)
	assert.Equal(t, "image/1", outcome.Results[0].Ref().String())
}

func TestSearch_KeywordFallbackOnProviderFailure(t *testing.T) {
	searchSvc, _, _, catalog := newTestSearch(t, &failingProvider{model: "m"})
	catalog.add(testItem(1, embedding.KindImage, "sunset at the beach"))
	catalog.add(testItem(2, embedding.KindImage, "forest trail"))

	outcome, err := searchSvc.Search(context.Background(), "sunset", 10, nil, Scope{})
	require.NoError(t, err, "provider failure degrades, never errors")

	assert.True(t, outcome.Fallback)
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, "image/1", outcome.Results[0].Ref().String())
	assert.Equal(t, config.DefaultKeywordScore, outcome.Results[0].Score())
	assert.True(t, outcome.Results[0].IsFallback())
}

func TestSearch_KeywordFallbackOnStoreFailure(t *testing.T) {
	searchSvc, _, store, catalog := newTestSearch(t, syntheticTestProvider())
	catalog.add(testItem(1, embedding.KindImage, "sunset at the beach"))
	store.findErr = errors.New("store unavailable")

	outcome, err := searchSvc.Search(context.Background(), "sunset", 10, nil, Scope{})
	require.NoError(t, err, "store failure degrades, never errors")

	assert.True(t, outcome.Fallback)
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, "image/1", outcome.Results[0].Ref().String())
	assert.Equal(t, config.DefaultKeywordScore, outcome.Results[0].Score())
}

func TestSearch_NoMatchesIsEmpty(t *testing.T) {
	searchSvc, generator, _, catalog := newTestSearch(t, syntheticTestProvider())
	ctx := context.Background()

	catalog.add(testItem(1, embedding.KindImage, "sunset"))
	_, _, err := generator.GenerateForEntity(ctx, embedding.NewEntityRef(embedding.KindImage, 1), false)
	require.NoError(t, err)

	// The query text differs from the embedded text, so nothing clears
	// threshold 1.0. A search that ran and matched nothing stays empty.
	outcome, err := searchSvc.Search(ctx, "sunset", 10, floatPtr(1.0), Scope{})
	require.NoError(t, err)

	assert.False(t, outcome.Fallback)
	assert.Empty(t, outcome.Results)
}

func TestSearch_DimensionMismatchSurfaces(t *testing.T) {
	searchSvc, _, store, catalog := newTestSearch(t, syntheticTestProvider())
	ctx := context.Background()

	catalog.add(testItem(1, embedding.KindImage, "sunset"))
	record := embedding.NewRecord(embedding.NewEntityRef(embedding.KindImage, 1),
		make([]float64, 8), "synthetic-embedding-v1", "synthetic")
	_, err := store.Save(ctx, record)
	require.NoError(t, err)

	_, err = searchSvc.Search(ctx, "sunset", 10, nil, Scope{})

	var dimErr *search.DimensionError
	assert.ErrorAs(t, err, &dimErr)
}

func TestSearch_SkipsVanishedEntities(t *testing.T) {
	searchSvc, generator, _, catalog := newTestSearch(t, syntheticTestProvider())
	ctx := context.Background()

	ghost := testItem(1, embedding.KindImage, "ghost")
	catalog.add(ghost)
	_, _, err := generator.GenerateForEntity(ctx, embedding.NewEntityRef(embedding.KindImage, 1), false)
	require.NoError(t, err)

	// Entity removed after embedding; its record must not surface.
	catalog.remove(ghost.Ref())

	outcome, err := searchSvc.Search(ctx, DescribeItem(ghost), 10, floatPtr(0.99), Scope{})
	require.NoError(t, err)

	for _, res := range outcome.Results {
		assert.NotEqual(t, "image/1", res.Ref().String())
	}
}

func TestFindSimilar_ExcludesSource(t *testing.T) {
	searchSvc, generator, _, catalog := newTestSearch(t, syntheticTestProvider())
	ctx := context.Background()

	// Identical text produces identical vectors, so 2 is a perfect match
	// for 1 while 1 itself must be excluded.
	catalog.add(testItem(1, embedding.KindImage, "sunset"))
	catalog.add(testItem(2, embedding.KindImage, "sunset"))
	catalog.add(testItem(3, embedding.KindImage, "forest"))

	for _, id := range []int64{1, 2, 3} {
		_, _, err := generator.GenerateForEntity(ctx, embedding.NewEntityRef(embedding.KindImage, id), false)
		require.NoError(t, err)
	}

	outcome, err := searchSvc.FindSimilar(ctx, embedding.NewEntityRef(embedding.KindImage, 1), 10, floatPtr(0.99))
	require.NoError(t, err)

	assert.False(t, outcome.Fallback)
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, "image/2", outcome.Results[0].Ref().String())
	assert.InDelta(t, 1.0, outcome.Results[0].Score(), 1e-9)
}

func TestFindSimilar_CarriesSourceSummary(t *testing.T) {
	searchSvc, _, _, catalog := newTestSearch(t, syntheticTestProvider())
	catalog.add(testItem(1, embedding.KindImage, "sunset"))

	outcome, err := searchSvc.FindSimilar(context.Background(), embedding.NewEntityRef(embedding.KindImage, 1), 10, nil)
	require.NoError(t, err)

	require.NotNil(t, outcome.Source)
	assert.Equal(t, "image/1", outcome.Source.Ref().String())
	assert.Equal(t, "sunset", outcome.Source.Title())
}

func TestFindSimilar_EntityMissing(t *testing.T) {
	searchSvc, _, _, _ := newTestSearch(t, syntheticTestProvider())

	_, err := searchSvc.FindSimilar(context.Background(), embedding.NewEntityRef(embedding.KindImage, 99), 10, nil)

	var notFound *EntityNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestFindSimilar_GeneratesMissingSourceEmbedding(t *testing.T) {
	searchSvc, generator, store, catalog := newTestSearch(t, syntheticTestProvider())
	ctx := context.Background()

	catalog.add(testItem(1, embedding.KindImage, "sunset"))
	catalog.add(testItem(2, embedding.KindImage, "sunset"))

	// Only the neighbour is embedded; the source embedding is created on
	// the fly.
	_, _, err := generator.GenerateForEntity(ctx, embedding.NewEntityRef(embedding.KindImage, 2), false)
	require.NoError(t, err)

	outcome, err := searchSvc.FindSimilar(ctx, embedding.NewEntityRef(embedding.KindImage, 1), 10, floatPtr(0.99))
	require.NoError(t, err)

	assert.False(t, outcome.Fallback)
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, "image/2", outcome.Results[0].Ref().String())

	_, err = store.Get(ctx, embedding.NewEntityRef(embedding.KindImage, 1), "synthetic-embedding-v1")
	assert.NoError(t, err, "generated source embedding is persisted")
}

func TestFindSimilar_TagFallbackWhenGenerationFails(t *testing.T) {
	searchSvc, _, _, catalog := newTestSearch(t, &failingProvider{model: "m"})

	catalog.add(testItem(1, embedding.KindImage, "sunset", "beach", "sky"))
	catalog.add(testItem(2, embedding.KindImage, "waves", "beach"))
	catalog.add(testItem(3, embedding.KindImage, "forest", "trees"))

	outcome, err := searchSvc.FindSimilar(context.Background(), embedding.NewEntityRef(embedding.KindImage, 1), 10, nil)
	require.NoError(t, err)

	assert.True(t, outcome.Fallback)
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, "image/2", outcome.Results[0].Ref().String())
	assert.Equal(t, config.DefaultTagScore, outcome.Results[0].Score())
	assert.True(t, outcome.Results[0].IsFallback())
}

func TestFindSimilar_NoMatchesIsEmpty(t *testing.T) {
	searchSvc, generator, _, catalog := newTestSearch(t, syntheticTestProvider())
	ctx := context.Background()

	catalog.add(testItem(1, embedding.KindImage, "sunset", "beach"))
	catalog.add(testItem(2, embedding.KindImage, "waves", "beach"))

	for _, id := range []int64{1, 2} {
		_, _, err := generator.GenerateForEntity(ctx, embedding.NewEntityRef(embedding.KindImage, id), false)
		require.NoError(t, err)
	}

	// Threshold 1.0 excludes the genuinely different item. The shared tag
	// does not resurrect it: ranking ran, so empty is the answer.
	outcome, err := searchSvc.FindSimilar(ctx, embedding.NewEntityRef(embedding.KindImage, 1), 10, floatPtr(1.0))
	require.NoError(t, err)

	assert.False(t, outcome.Fallback)
	assert.Empty(t, outcome.Results)
}

func TestFindSimilar_DefaultsApplied(t *testing.T) {
	searchSvc, _, _, catalog := newTestSearch(t, syntheticTestProvider())
	catalog.add(testItem(1, embedding.KindImage, "sunset"))

	outcome, err := searchSvc.FindSimilar(context.Background(), embedding.NewEntityRef(embedding.KindImage, 1), 0, nil)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultSimilarLimit, outcome.Limit)
	assert.Equal(t, config.DefaultSimilarThreshold, outcome.Threshold)
}
