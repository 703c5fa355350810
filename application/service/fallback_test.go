package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/snapvec/snapvec/domain/embedding"
	"github.com/snapvec/snapvec/internal/config"
)

func TestFallback_KeywordErrorDegradesToEmpty(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.keywordErr = errors.New("database gone")
	fallback := NewFallbackService(catalog, config.NewSearchConfig())

	results := fallback.ByKeyword(context.Background(), "sunset", 10, Scope{})
	assert.Empty(t, results)
}

func TestFallback_KeywordHonorsScope(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.add(ownedItem(1, 7, 0, "sunset"))
	catalog.add(ownedItem(2, 9, 0, "sunset"))
	fallback := NewFallbackService(catalog, config.NewSearchConfig())

	results := fallback.ByKeyword(context.Background(), "sunset", 10, Scope{OwnerID: 9})
	if assert.Len(t, results, 1) {
		assert.Equal(t, "image/2", results[0].Ref().String())
	}
}

func TestFallback_TagLookupWithoutTags(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.add(testItem(1, embedding.KindImage, "untagged"))
	fallback := NewFallbackService(catalog, config.NewSearchConfig())

	results := fallback.BySharedTag(context.Background(), embedding.NewEntityRef(embedding.KindImage, 1), 10)
	assert.Empty(t, results)
}

func TestFallback_TagLookupMissingEntity(t *testing.T) {
	fallback := NewFallbackService(newFakeCatalog(), config.NewSearchConfig())

	results := fallback.BySharedTag(context.Background(), embedding.NewEntityRef(embedding.KindImage, 9), 10)
	assert.Empty(t, results)
}

func TestFallback_ConfiguredScores(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.add(testItem(1, embedding.KindImage, "sunset", "beach"))
	catalog.add(testItem(2, embedding.KindImage, "dunes", "beach"))
	cfg := config.NewSearchConfigWithOptions(config.WithFallbackScores(0.25, 0.75))
	fallback := NewFallbackService(catalog, cfg)

	keyword := fallback.ByKeyword(context.Background(), "sunset", 10, Scope{})
	if assert.Len(t, keyword, 1) {
		assert.Equal(t, 0.25, keyword[0].Score())
	}

	tags := fallback.BySharedTag(context.Background(), embedding.NewEntityRef(embedding.KindImage, 1), 10)
	if assert.Len(t, tags, 1) {
		assert.Equal(t, 0.75, tags[0].Score())
	}
}
