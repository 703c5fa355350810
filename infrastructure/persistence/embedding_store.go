package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/snapvec/snapvec/domain/embedding"
	"github.com/snapvec/snapvec/internal/database"
)

// EmbeddingStore is the GORM-backed embedding.Store implementation.
type EmbeddingStore struct {
	database.Repository[embedding.Record, EmbeddingModel]
	db database.Database
}

var _ embedding.Store = (*EmbeddingStore)(nil)

// NewEmbeddingStore creates a new EmbeddingStore.
func NewEmbeddingStore(db database.Database) *EmbeddingStore {
	return &EmbeddingStore{
		Repository: database.NewRepository[embedding.Record, EmbeddingModel](db, EmbeddingMapper{}, "embedding"),
		db:         db,
	}
}

// Get returns the record for (ref, model), or database.ErrNotFound.
func (s *EmbeddingStore) Get(ctx context.Context, ref embedding.EntityRef, model string) (embedding.Record, error) {
	return s.FindOne(ctx, embedding.WithRef(ref), embedding.WithModel(model))
}

// Save upserts the record on its (entity_kind, entity_id, model) key.
// Concurrent saves for the same key serialize at the database with
// last-write-wins.
func (s *EmbeddingStore) Save(ctx context.Context, record embedding.Record) (embedding.Record, error) {
	model := EmbeddingMapper{}.ToModel(record)
	now := time.Now().UTC()
	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
	}
	model.UpdatedAt = now

	result := s.db.Session(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "entity_kind"},
			{Name: "entity_id"},
			{Name: "model"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"vector", "dimensions", "provider", "metadata", "updated_at",
		}),
	}).Create(&model)
	if result.Error != nil {
		return embedding.Record{}, fmt.Errorf("save embedding %s: %w", record.Ref(), result.Error)
	}

	// The upsert path does not refresh ID or created_at on conflict.
	return s.Get(ctx, record.Ref(), record.Model())
}

// Delete removes records for the entity. With no models given, all models
// for the entity are removed.
func (s *EmbeddingStore) Delete(ctx context.Context, ref embedding.EntityRef, models ...string) error {
	options := []embedding.Option{embedding.WithRef(ref)}
	if len(models) > 0 {
		options = append(options, embedding.WithModelIn(models))
	}
	return s.DeleteBy(ctx, options...)
}

// HasEmbeddings reports which of the given refs have a record under the
// model. Refs absent from the result map have no embedding.
func (s *EmbeddingStore) HasEmbeddings(ctx context.Context, refs []embedding.EntityRef, model string) (map[embedding.EntityRef]bool, error) {
	result := make(map[embedding.EntityRef]bool, len(refs))
	if len(refs) == 0 {
		return result, nil
	}

	idsByKind := make(map[string][]int64)
	for _, ref := range refs {
		idsByKind[string(ref.Kind())] = append(idsByKind[string(ref.Kind())], ref.ID())
	}

	for kind, ids := range idsByKind {
		var rows []EmbeddingModel
		err := s.db.Session(ctx).
			Select("entity_kind", "entity_id").
			Where("entity_kind = ? AND entity_id IN ? AND model = ?", kind, ids, model).
			Find(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("check embeddings for kind %s: %w", kind, err)
		}
		for _, row := range rows {
			result[embedding.NewEntityRef(embedding.Kind(row.EntityKind), row.EntityID)] = true
		}
	}

	return result, nil
}

// DistinctModels returns the model identifiers in use.
func (s *EmbeddingStore) DistinctModels(ctx context.Context) ([]string, error) {
	return s.distinctColumn(ctx, "model")
}

// DistinctProviders returns the provider identifiers in use.
func (s *EmbeddingStore) DistinctProviders(ctx context.Context) ([]string, error) {
	return s.distinctColumn(ctx, "provider")
}

func (s *EmbeddingStore) distinctColumn(ctx context.Context, column string) ([]string, error) {
	var values []string
	err := s.db.Session(ctx).
		Model(&EmbeddingModel{}).
		Distinct(column).
		Order(column).
		Pluck(column, &values).Error
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", column, err)
	}
	return values, nil
}

// AverageDimensions returns the mean vector dimensionality, 0 when the
// store is empty.
func (s *EmbeddingStore) AverageDimensions(ctx context.Context) (float64, error) {
	var avg *float64
	err := s.db.Session(ctx).
		Model(&EmbeddingModel{}).
		Select("AVG(dimensions)").
		Scan(&avg).Error
	if err != nil {
		return 0, fmt.Errorf("average dimensions: %w", err)
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

// CountSince returns the number of records created at or after t.
func (s *EmbeddingStore) CountSince(ctx context.Context, t time.Time) (int64, error) {
	var count int64
	err := s.db.Session(ctx).
		Model(&EmbeddingModel{}).
		Where("created_at >= ?", t).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count since %s: %w", t, err)
	}
	return count, nil
}

// LatestCreatedAt returns the most recent record creation time, or the zero
// time when the store is empty.
func (s *EmbeddingStore) LatestCreatedAt(ctx context.Context) (time.Time, error) {
	var latest *time.Time
	err := s.db.Session(ctx).
		Model(&EmbeddingModel{}).
		Select("MAX(created_at)").
		Scan(&latest).Error
	if err != nil {
		return time.Time{}, fmt.Errorf("latest created at: %w", err)
	}
	if latest == nil {
		return time.Time{}, nil
	}
	return *latest, nil
}
