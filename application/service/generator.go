package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/snapvec/snapvec/domain/embedding"
	"github.com/snapvec/snapvec/domain/gallery"
	"github.com/snapvec/snapvec/infrastructure/provider"
	"github.com/snapvec/snapvec/internal/database"
	"github.com/snapvec/snapvec/internal/log"
)

// GeneratorService creates and maintains embedding records for media
// entities.
type GeneratorService struct {
	store    embedding.Store
	catalog  gallery.Catalog
	provider provider.Provider

	// onChange fires after the stored corpus changes, so cached aggregates
	// can be invalidated.
	onChange func()
}

// NewGeneratorService creates a GeneratorService.
func NewGeneratorService(store embedding.Store, catalog gallery.Catalog, p provider.Provider) *GeneratorService {
	return &GeneratorService{
		store:    store,
		catalog:  catalog,
		provider: p,
		onChange: func() {},
	}
}

// OnChange registers a hook fired after the stored corpus changes.
func (s *GeneratorService) OnChange(fn func()) {
	if fn != nil {
		s.onChange = fn
	}
}

// Provider returns the embedding provider in use.
func (s *GeneratorService) Provider() provider.Provider { return s.provider }

// GenerateForText embeds free text without persisting anything.
func (s *GeneratorService) GenerateForText(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewValidationError("text", ErrEmptyQuery)
	}

	resp, err := s.provider.Embed(ctx, provider.EmbeddingRequest{Inputs: []string{text}})
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	if len(resp.Vectors) != 1 {
		return nil, fmt.Errorf("embed text: expected 1 vector, got %d", len(resp.Vectors))
	}
	return resp.Vectors[0], nil
}

// GenerateForEntity creates an embedding record for the entity. When a record
// already exists under the provider's model and force is false, the existing
// record is returned untouched. With force true the existing record is
// replaced in place.
func (s *GeneratorService) GenerateForEntity(ctx context.Context, ref embedding.EntityRef, force bool) (embedding.Record, bool, error) {
	if !force {
		existing, err := s.store.Get(ctx, ref, s.provider.Model())
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, database.ErrNotFound) {
			return embedding.Record{}, false, NewGenerationError(ref, err)
		}
	}

	item, err := s.catalog.Get(ctx, ref)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return embedding.Record{}, false, NewEntityNotFoundError(ref)
		}
		return embedding.Record{}, false, NewGenerationError(ref, err)
	}

	text := DescribeItem(item)
	resp, err := s.provider.Embed(ctx, provider.EmbeddingRequest{Inputs: []string{text}})
	if err != nil {
		return embedding.Record{}, false, NewGenerationError(ref, err)
	}
	if len(resp.Vectors) != 1 {
		return embedding.Record{}, false, NewGenerationError(ref,
			fmt.Errorf("expected 1 vector, got %d", len(resp.Vectors)))
	}

	vector := resp.Vectors[0]
	if want := s.provider.Dimensions(); want > 0 && len(vector) != want {
		return embedding.Record{}, false, NewGenerationError(ref,
			fmt.Errorf("provider returned %d dimensions, want %d", len(vector), want))
	}

	record := embedding.NewRecord(ref, vector, s.provider.Model(), s.provider.Name()).
		WithMetadata(map[string]string{
			"source_title": item.Title(),
		})

	saved, err := s.store.Save(ctx, record)
	if err != nil {
		return embedding.Record{}, false, NewGenerationError(ref, err)
	}

	log.FromContext(ctx).Debug("embedding generated",
		"entity", ref.String(),
		"model", saved.Model(),
		"dimensions", saved.Dimensions(),
		"forced", force,
	)

	s.onChange()
	return saved, true, nil
}

// DeleteForEntity removes all embedding records for the entity. When the
// entity has no records the call is a no-op and cached aggregates stay warm.
func (s *GeneratorService) DeleteForEntity(ctx context.Context, ref embedding.EntityRef) error {
	exists, err := s.store.Exists(ctx, embedding.WithRef(ref))
	if err != nil {
		return fmt.Errorf("check embeddings for %s: %w", ref, err)
	}
	if !exists {
		return nil
	}

	if err := s.store.Delete(ctx, ref); err != nil {
		return fmt.Errorf("delete embeddings for %s: %w", ref, err)
	}
	s.onChange()
	return nil
}

// DescribeItem composes the text embedded for a catalog item from its title,
// description, and tags.
func DescribeItem(item gallery.Item) string {
	var parts []string
	if item.Title() != "" {
		parts = append(parts, item.Title())
	}
	if item.Description() != "" {
		parts = append(parts, item.Description())
	}
	if tags := item.Tags(); len(tags) > 0 {
		parts = append(parts, "Tags: "+strings.Join(tags, ", "))
	}
	return strings.Join(parts, ". ")
}
