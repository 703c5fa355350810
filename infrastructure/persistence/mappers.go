package persistence

import (
	"github.com/snapvec/snapvec/domain/embedding"
	"github.com/snapvec/snapvec/domain/gallery"
)

// EmbeddingMapper maps between embedding.Record and EmbeddingModel.
type EmbeddingMapper struct{}

// ToDomain converts a database model to a domain record.
func (EmbeddingMapper) ToDomain(model EmbeddingModel) embedding.Record {
	return embedding.NewStoredRecord(
		model.ID,
		embedding.NewEntityRef(embedding.Kind(model.EntityKind), model.EntityID),
		model.Vector,
		model.Model,
		model.Provider,
		model.Metadata,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

// ToModel converts a domain record to a database model.
func (EmbeddingMapper) ToModel(record embedding.Record) EmbeddingModel {
	return EmbeddingModel{
		ID:         record.ID(),
		EntityKind: string(record.Ref().Kind()),
		EntityID:   record.Ref().ID(),
		Vector:     record.Vector(),
		Dimensions: record.Dimensions(),
		Model:      record.Model(),
		Provider:   record.Provider(),
		Metadata:   record.Metadata(),
		CreatedAt:  record.CreatedAt(),
		UpdatedAt:  record.UpdatedAt(),
	}
}

// ItemMapper maps between gallery.Item and ItemModel.
type ItemMapper struct{}

// ToDomain converts a database model to a domain item.
func (ItemMapper) ToDomain(model ItemModel) gallery.Item {
	tags := make([]string, len(model.Tags))
	for i, t := range model.Tags {
		tags[i] = t.Name
	}
	return gallery.NewItem(
		model.ID,
		embedding.Kind(model.Kind),
		model.Title,
		model.Description,
		model.Thumbnail,
		model.OwnerID,
		model.AlbumID,
		tags,
	)
}

// ToModel converts a domain item to a database model.
func (ItemMapper) ToModel(item gallery.Item) ItemModel {
	tags := make([]TagModel, len(item.Tags()))
	for i, name := range item.Tags() {
		tags[i] = TagModel{Name: name}
	}
	return ItemModel{
		ID:          item.ID(),
		Kind:        string(item.Kind()),
		Title:       item.Title(),
		Description: item.Description(),
		Thumbnail:   item.Thumbnail(),
		OwnerID:     item.OwnerID(),
		AlbumID:     item.AlbumID(),
		Tags:        tags,
	}
}
