package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapvec/snapvec"
	"github.com/snapvec/snapvec/application/service"
	"github.com/snapvec/snapvec/domain/embedding"
	"github.com/snapvec/snapvec/domain/gallery"
	"github.com/snapvec/snapvec/infrastructure/api/v1/dto"
	"github.com/snapvec/snapvec/infrastructure/persistence"
	"github.com/snapvec/snapvec/internal/factory"
)

const testAPIKey = "test-api-key"

// newTestHandler builds a full API handler backed by a sqlite client with a
// synthetic provider, seeded with a few gallery items.
func newTestHandler(t *testing.T) (http.Handler, *snapvec.Client) {
	t.Helper()

	client, err := snapvec.New(
		snapvec.WithSQLite(filepath.Join(t.TempDir(), "test.db")),
		snapvec.WithDataDir(t.TempDir()),
		snapvec.WithSyntheticProvider("synthetic-embedding-v1", 64),
		snapvec.WithLogger(slog.New(slog.DiscardHandler)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := client.Catalog.(*persistence.GalleryStore)
	items := []gallery.Item{
		gallery.NewItem(1, embedding.KindImage, "sunset beach", "golden hour by the sea", "thumb1.jpg", 7, 0, []string{"beach", "sunset"}),
		gallery.NewItem(2, embedding.KindImage, "mountain lake", "still water at dawn", "thumb2.jpg", 7, 0, []string{"mountain"}),
		gallery.NewItem(3, embedding.KindAlbum, "summer trip", "holiday collection", "thumb3.jpg", 9, 0, []string{"beach"}),
	}
	for _, item := range items {
		_, err := store.SaveItem(context.Background(), item)
		require.NoError(t, err)
	}

	server := factory.NewAPIServer(client, []string{testAPIKey})
	return server.Handler(), client
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any, apiKey string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-KEY", apiKey)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestSearch_Validation(t *testing.T) {
	handler, _ := newTestHandler(t)

	t.Run("empty query", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodPost, "/api/v1/search", dto.SearchRequest{Query: "   "}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("query too long", func(t *testing.T) {
		long := strings.Repeat("a", 501)
		w := doJSON(t, handler, http.MethodPost, "/api/v1/search", dto.SearchRequest{Query: long}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("threshold out of range", func(t *testing.T) {
		threshold := 1.5
		w := doJSON(t, handler, http.MethodPost, "/api/v1/search",
			dto.SearchRequest{Query: "sunset", Threshold: &threshold}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("negative limit", func(t *testing.T) {
		limit := -5
		w := doJSON(t, handler, http.MethodPost, "/api/v1/search",
			dto.SearchRequest{Query: "sunset", Limit: &limit}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("negative owner", func(t *testing.T) {
		owner := int64(-1)
		w := doJSON(t, handler, http.MethodPost, "/api/v1/search",
			dto.SearchRequest{Query: "sunset", OwnerID: &owner}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader("{not json"))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSearch_SemanticMatch(t *testing.T) {
	handler, client := newTestHandler(t)
	ctx := context.Background()

	ref := embedding.NewEntityRef(embedding.KindImage, 1)
	_, _, err := client.Generator.GenerateForEntity(ctx, ref, false)
	require.NoError(t, err)

	item, err := client.Catalog.Get(ctx, ref)
	require.NoError(t, err)

	// The synthetic provider is deterministic, so querying with the item's
	// own description text yields an identical vector and a perfect score.
	w := doJSON(t, handler, http.MethodPost, "/api/v1/search",
		dto.SearchRequest{Query: service.DescribeItem(item)}, "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[dto.SearchResponse](t, w)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "image", resp.Results[0].Kind)
	assert.Equal(t, int64(1), resp.Results[0].ID)
	assert.InDelta(t, 1.0, resp.Results[0].Score, 1e-9)
	assert.Equal(t, "sunset beach", resp.Results[0].Title)
	assert.False(t, resp.Fallback)
	assert.Equal(t, 20, resp.Limit)
	assert.InDelta(t, 0.7, resp.Threshold, 1e-9)
}

func TestSearch_NoMatchesReturnsEmpty(t *testing.T) {
	handler, _ := newTestHandler(t)

	// No embeddings exist, so the semantic pass runs against an empty
	// corpus. That is a valid empty outcome, not a fallback.
	w := doJSON(t, handler, http.MethodPost, "/api/v1/search",
		dto.SearchRequest{Query: "sunset"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[dto.SearchResponse](t, w)
	assert.Equal(t, 0, resp.Count)
	assert.Empty(t, resp.Results)
	assert.False(t, resp.Fallback)
}

func TestSearch_ScopedToOwner(t *testing.T) {
	handler, client := newTestHandler(t)
	ctx := context.Background()

	// Item 4 mirrors item 1's text under another owner, so both embed to
	// the same vector and only the scope separates them.
	store := client.Catalog.(*persistence.GalleryStore)
	_, err := store.SaveItem(ctx, gallery.NewItem(4, embedding.KindImage,
		"sunset beach", "golden hour by the sea", "thumb4.jpg", 9, 0, []string{"beach", "sunset"}))
	require.NoError(t, err)

	for _, id := range []int64{1, 4} {
		_, _, err := client.Generator.GenerateForEntity(ctx, embedding.NewEntityRef(embedding.KindImage, id), false)
		require.NoError(t, err)
	}

	item, err := client.Catalog.Get(ctx, embedding.NewEntityRef(embedding.KindImage, 1))
	require.NoError(t, err)

	owner := int64(9)
	w := doJSON(t, handler, http.MethodPost, "/api/v1/search",
		dto.SearchRequest{Query: service.DescribeItem(item), OwnerID: &owner}, "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[dto.SearchResponse](t, w)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, int64(4), resp.Results[0].ID)
	assert.Equal(t, int64(9), resp.Results[0].OwnerID)
}

func TestSimilar(t *testing.T) {
	handler, client := newTestHandler(t)
	ctx := context.Background()

	// Give items 1 and 2 identical text so their vectors match exactly.
	store := client.Catalog.(*persistence.GalleryStore)
	_, err := store.SaveItem(ctx, gallery.NewItem(2, embedding.KindImage,
		"sunset beach", "golden hour by the sea", "thumb2.jpg", 7, 0, []string{"beach", "sunset"}))
	require.NoError(t, err)

	for _, id := range []int64{1, 2} {
		_, _, err := client.Generator.GenerateForEntity(ctx, embedding.NewEntityRef(embedding.KindImage, id), true)
		require.NoError(t, err)
	}

	t.Run("excludes the source entity", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodGet, "/api/v1/similar/image/1", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody[dto.SearchResponse](t, w)
		require.Equal(t, 1, resp.Count)
		assert.Equal(t, int64(2), resp.Results[0].ID)
	})

	t.Run("carries the source summary", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodGet, "/api/v1/similar/image/1", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody[dto.SearchResponse](t, w)
		require.NotNil(t, resp.Source)
		assert.Equal(t, "image", resp.Source.Kind)
		assert.Equal(t, int64(1), resp.Source.ID)
		assert.Equal(t, "sunset beach", resp.Source.Title)
		assert.Equal(t, int64(7), resp.Source.OwnerID)
	})

	t.Run("non-positive limit", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodGet, "/api/v1/similar/image/1?limit=0", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown kind", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodGet, "/api/v1/similar/video/1", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing entity", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodGet, "/api/v1/similar/image/999", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid threshold", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodGet, "/api/v1/similar/image/1?threshold=2", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGenerate_WriteProtection(t *testing.T) {
	handler, _ := newTestHandler(t)

	t.Run("rejected without key", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodPost, "/api/v1/embeddings/generate/image/1", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("created with key", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodPost, "/api/v1/embeddings/generate/image/1", nil, testAPIKey)
		require.Equal(t, http.StatusCreated, w.Code)

		resp := decodeBody[dto.GenerateResponse](t, w)
		assert.True(t, resp.Generated)
		assert.Equal(t, 64, resp.Dimensions)
		assert.Equal(t, "synthetic", resp.Provider)
	})

	t.Run("existing embedding is kept", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodPost, "/api/v1/embeddings/generate/image/1", nil, testAPIKey)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody[dto.GenerateResponse](t, w)
		assert.False(t, resp.Generated)
	})

	t.Run("missing entity", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodPost, "/api/v1/embeddings/generate/image/999", nil, testAPIKey)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBatch(t *testing.T) {
	handler, _ := newTestHandler(t)

	body := dto.BatchRequest{Entities: []dto.BatchEntity{
		{Kind: "image", ID: 1},
		{Kind: "image", ID: 2},
		{Kind: "album", ID: 3},
	}}

	t.Run("rejected without key", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodPost, "/api/v1/embeddings/batch", body, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("generates all entities", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodPost, "/api/v1/embeddings/batch", body, testAPIKey)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody[dto.BatchResponse](t, w)
		assert.Equal(t, 3, resp.Requested)
		assert.Equal(t, 3, resp.Generated)
		assert.Equal(t, 0, resp.Failed)
		assert.Len(t, resp.Outcomes, 3)
	})

	t.Run("unknown kind rejected", func(t *testing.T) {
		bad := dto.BatchRequest{Entities: []dto.BatchEntity{{Kind: "video", ID: 1}}}
		w := doJSON(t, handler, http.MethodPost, "/api/v1/embeddings/batch", bad, testAPIKey)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing entities fail individually", func(t *testing.T) {
		mixed := dto.BatchRequest{Entities: []dto.BatchEntity{
			{Kind: "image", ID: 2},
			{Kind: "image", ID: 999},
		}}
		w := doJSON(t, handler, http.MethodPost, "/api/v1/embeddings/batch", mixed, testAPIKey)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody[dto.BatchResponse](t, w)
		assert.Equal(t, 1, resp.Skipped)
		assert.Equal(t, 1, resp.Failed)
	})
}

func TestDelete(t *testing.T) {
	handler, client := newTestHandler(t)
	ctx := context.Background()

	ref := embedding.NewEntityRef(embedding.KindImage, 1)
	_, _, err := client.Generator.GenerateForEntity(ctx, ref, false)
	require.NoError(t, err)

	w := doJSON(t, handler, http.MethodDelete, "/api/v1/embeddings/image/1", nil, testAPIKey)
	assert.Equal(t, http.StatusNoContent, w.Code)

	has, err := client.Store().HasEmbeddings(ctx, []embedding.EntityRef{ref}, "")
	require.NoError(t, err)
	assert.False(t, has[ref])
}

func TestEmbeddingStatus(t *testing.T) {
	handler, client := newTestHandler(t)
	ctx := context.Background()

	_, _, err := client.Generator.GenerateForEntity(ctx, embedding.NewEntityRef(embedding.KindImage, 1), false)
	require.NoError(t, err)

	t.Run("full catalog", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodGet, "/api/v1/embeddings/status", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody[dto.StatusResponse](t, w)
		assert.Equal(t, int64(1), resp.Total)
		require.Len(t, resp.Coverage, 2)
		for _, c := range resp.Coverage {
			if c.Kind == "image" {
				assert.Equal(t, int64(2), c.Items)
				assert.Equal(t, int64(1), c.Embedded)
			}
		}

		require.Len(t, resp.Details, 3)
		byID := make(map[int64]dto.EntityDetailData)
		for _, d := range resp.Details {
			if d.Kind == "image" {
				byID[d.ID] = d
			}
		}
		assert.True(t, byID[1].Embedded)
		assert.Equal(t, "sunset beach", byID[1].Title)
		assert.False(t, byID[2].Embedded)
	})

	t.Run("scoped to owner", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodGet, "/api/v1/embeddings/status?owner_id=9", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody[dto.StatusResponse](t, w)
		require.Len(t, resp.Details, 1)
		assert.Equal(t, "album", resp.Details[0].Kind)
		assert.Equal(t, int64(3), resp.Details[0].ID)
	})

	t.Run("named entities", func(t *testing.T) {
		body := dto.StatusRequest{Entities: []dto.BatchEntity{
			{Kind: "image", ID: 1},
			{Kind: "image", ID: 999},
		}}
		w := doJSON(t, handler, http.MethodGet, "/api/v1/embeddings/status", body, "")
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody[dto.StatusResponse](t, w)
		require.Len(t, resp.Details, 1)
		assert.Equal(t, int64(1), resp.Details[0].ID)
		assert.True(t, resp.Details[0].Embedded)
	})

	t.Run("invalid owner scope", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodGet, "/api/v1/embeddings/status?owner_id=zero", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestStatsAndHealth(t *testing.T) {
	handler, client := newTestHandler(t)
	ctx := context.Background()

	_, _, err := client.Generator.GenerateForEntity(ctx, embedding.NewEntityRef(embedding.KindImage, 1), false)
	require.NoError(t, err)

	t.Run("stats", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodGet, "/api/v1/stats", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody[dto.StatsResponse](t, w)
		assert.Equal(t, int64(1), resp.Total)
		assert.Contains(t, resp.Providers, "synthetic")
		assert.Equal(t, int64(1), resp.RecentCount)
	})

	t.Run("health", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodGet, "/api/v1/health", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody[dto.HealthResponse](t, w)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "synthetic", resp.Provider)
	})
}
