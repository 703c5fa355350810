package embedding

import (
	"context"
	"time"
)

// Store persists embedding records. Save is an atomic upsert keyed on
// (entity_kind, entity_id, model): concurrent saves for the same key must
// serialize with last-write-wins, never interleave partial writes.
type Store interface {
	// Get returns the record for (ref, model), or database.ErrNotFound.
	Get(ctx context.Context, ref EntityRef, model string) (Record, error)

	// Save upserts the record on its (ref, model) key and returns the stored
	// record with ID and timestamps populated.
	Save(ctx context.Context, record Record) (Record, error)

	// Delete removes records for the entity. With no models given, all
	// models for the entity are removed.
	Delete(ctx context.Context, ref EntityRef, models ...string) error

	// Find returns records matching the given options. Callers scanning the
	// whole corpus page with repository.WithLimit/WithOffset.
	Find(ctx context.Context, options ...Option) ([]Record, error)

	// Count returns the number of records matching the given options.
	Count(ctx context.Context, options ...Option) (int64, error)

	// Exists reports whether any record matches the given options.
	Exists(ctx context.Context, options ...Option) (bool, error)

	// HasEmbeddings reports which of the given refs have a record under the
	// model. Refs absent from the result map have no embedding.
	HasEmbeddings(ctx context.Context, refs []EntityRef, model string) (map[EntityRef]bool, error)

	// DistinctModels returns the model identifiers in use.
	DistinctModels(ctx context.Context) ([]string, error)

	// DistinctProviders returns the provider identifiers in use.
	DistinctProviders(ctx context.Context) ([]string, error)

	// AverageDimensions returns the mean vector dimensionality, 0 when the
	// store is empty.
	AverageDimensions(ctx context.Context) (float64, error)

	// CountSince returns the number of records created at or after t.
	CountSince(ctx context.Context, t time.Time) (int64, error)

	// LatestCreatedAt returns the most recent record creation time, or the
	// zero time when the store is empty.
	LatestCreatedAt(ctx context.Context) (time.Time, error)
}
