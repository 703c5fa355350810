package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/snapvec/snapvec/domain/embedding"
	"github.com/snapvec/snapvec/domain/gallery"
	"github.com/snapvec/snapvec/domain/repository"
	"github.com/snapvec/snapvec/internal/database"
)

// GalleryStore is the GORM-backed gallery.Catalog implementation.
type GalleryStore struct {
	db database.Database
}

var _ gallery.Catalog = (*GalleryStore)(nil)

// NewGalleryStore creates a new GalleryStore.
func NewGalleryStore(db database.Database) *GalleryStore {
	return &GalleryStore{db: db}
}

// Get returns the item for the given reference, or database.ErrNotFound when
// the entity no longer exists.
func (s *GalleryStore) Get(ctx context.Context, ref embedding.EntityRef) (gallery.Item, error) {
	items, err := s.Find(ctx,
		repository.WithCondition("kind", string(ref.Kind())),
		repository.WithID(ref.ID()),
		repository.WithLimit(1),
	)
	if err != nil {
		return gallery.Item{}, err
	}
	if len(items) == 0 {
		return gallery.Item{}, fmt.Errorf("%w: item %s", database.ErrNotFound, ref)
	}
	return items[0], nil
}

// Find returns items matching the given options, tags preloaded.
func (s *GalleryStore) Find(ctx context.Context, options ...repository.Option) ([]gallery.Item, error) {
	var models []ItemModel
	db := database.ApplyOptions(s.db.Session(ctx).Model(&ItemModel{}), options...)
	if err := db.Preload("Tags").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}

	mapper := ItemMapper{}
	items := make([]gallery.Item, len(models))
	for i, m := range models {
		items[i] = mapper.ToDomain(m)
	}
	return items, nil
}

// Count returns the number of items matching the given options.
func (s *GalleryStore) Count(ctx context.Context, options ...repository.Option) (int64, error) {
	var count int64
	db := database.ApplyConditions(s.db.Session(ctx).Model(&ItemModel{}), options...)
	if err := db.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}

// FindByKeyword returns items whose title or description contains the keyword
// (case-insensitive), newest first.
func (s *GalleryStore) FindByKeyword(ctx context.Context, keyword string, limit int, options ...repository.Option) ([]gallery.Item, error) {
	pattern := "%" + strings.ToLower(keyword) + "%"
	all := append([]repository.Option{
		repository.WithWhere("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern),
		repository.WithOrderDesc("created_at"),
		repository.WithLimit(limit),
	}, options...)
	return s.Find(ctx, all...)
}

// FindBySharedTag returns items sharing at least one of the given tags,
// excluding the given entity, newest first.
func (s *GalleryStore) FindBySharedTag(ctx context.Context, exclude embedding.EntityRef, tags []string, limit int) ([]gallery.Item, error) {
	if len(tags) == 0 {
		return []gallery.Item{}, nil
	}

	var models []ItemModel
	err := s.db.Session(ctx).
		Model(&ItemModel{}).
		Distinct("items.*").
		Joins("JOIN item_tags ON item_tags.item_model_id = items.id").
		Joins("JOIN tags ON tags.id = item_tags.tag_model_id").
		Where("tags.name IN ?", tags).
		Where("NOT (items.kind = ? AND items.id = ?)", string(exclude.Kind()), exclude.ID()).
		Order("items.created_at DESC").
		Limit(limit).
		Preload("Tags").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("find items by shared tag: %w", err)
	}

	mapper := ItemMapper{}
	items := make([]gallery.Item, len(models))
	for i, m := range models {
		items[i] = mapper.ToDomain(m)
	}
	return items, nil
}

// SaveItem upserts a catalog item with its tags. Intended for seeding and
// tests; the catalog is otherwise read-only to this subsystem.
func (s *GalleryStore) SaveItem(ctx context.Context, item gallery.Item) (gallery.Item, error) {
	model := ItemMapper{}.ToModel(item)

	tags := model.Tags
	model.Tags = nil
	if err := s.db.Session(ctx).Save(&model).Error; err != nil {
		return gallery.Item{}, fmt.Errorf("save item: %w", err)
	}

	for i := range tags {
		if err := s.db.Session(ctx).Where("name = ?", tags[i].Name).FirstOrCreate(&tags[i]).Error; err != nil {
			return gallery.Item{}, fmt.Errorf("save tag %q: %w", tags[i].Name, err)
		}
	}
	if err := s.db.Session(ctx).Model(&model).Association("Tags").Replace(tags); err != nil {
		return gallery.Item{}, fmt.Errorf("attach tags: %w", err)
	}

	return s.Get(ctx, embedding.NewEntityRef(embedding.Kind(model.Kind), model.ID))
}
