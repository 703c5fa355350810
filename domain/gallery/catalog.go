package gallery

import (
	"context"

	"github.com/snapvec/snapvec/domain/embedding"
	"github.com/snapvec/snapvec/domain/repository"
)

// Catalog is the read-only view of the media store. Implementations live in
// infrastructure; this subsystem only reads display metadata, existence, and
// tags through it.
type Catalog interface {
	// Get returns the item for the given reference, or database.ErrNotFound
	// when the entity no longer exists.
	Get(ctx context.Context, ref embedding.EntityRef) (Item, error)

	// Find returns items matching the given options.
	Find(ctx context.Context, options ...repository.Option) ([]Item, error)

	// Count returns the number of items matching the given options.
	Count(ctx context.Context, options ...repository.Option) (int64, error)

	// FindByKeyword returns items whose title or description contains the
	// keyword (case-insensitive), newest first.
	FindByKeyword(ctx context.Context, keyword string, limit int, options ...repository.Option) ([]Item, error)

	// FindBySharedTag returns items sharing at least one of the given tags,
	// excluding the given entity, newest first.
	FindBySharedTag(ctx context.Context, exclude embedding.EntityRef, tags []string, limit int) ([]Item, error)
}

// Option is an alias for the shared store query option type.
type Option = repository.Option

// WithOwner filters by the "owner_id" column.
func WithOwner(ownerID int64) repository.Option {
	return repository.WithCondition("owner_id", ownerID)
}

// WithAlbum filters by the "album_id" column.
func WithAlbum(albumID int64) repository.Option {
	return repository.WithCondition("album_id", albumID)
}

// WithKind filters by the "kind" column.
func WithKind(kind embedding.Kind) repository.Option {
	return repository.WithCondition("kind", string(kind))
}
