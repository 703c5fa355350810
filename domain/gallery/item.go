// Package gallery defines the read-only contract to the media catalog. The
// embedding subsystem consumes item metadata for hydration and fallback
// matching; it never owns or mutates catalog entities.
package gallery

import (
	"github.com/snapvec/snapvec/domain/embedding"
)

// Item is the minimal display metadata for a media entity.
type Item struct {
	id          int64
	kind        embedding.Kind
	title       string
	description string
	thumbnail   string
	ownerID     int64
	albumID     int64
	tags        []string
}

// NewItem creates an Item.
func NewItem(id int64, kind embedding.Kind, title, description, thumbnail string, ownerID, albumID int64, tags []string) Item {
	t := make([]string, len(tags))
	copy(t, tags)
	return Item{
		id:          id,
		kind:        kind,
		title:       title,
		description: description,
		thumbnail:   thumbnail,
		ownerID:     ownerID,
		albumID:     albumID,
		tags:        t,
	}
}

// ID returns the item identifier.
func (i Item) ID() int64 { return i.id }

// Kind returns the entity kind.
func (i Item) Kind() embedding.Kind { return i.kind }

// Ref returns the item's entity reference.
func (i Item) Ref() embedding.EntityRef {
	return embedding.NewEntityRef(i.kind, i.id)
}

// Title returns the item title.
func (i Item) Title() string { return i.title }

// Description returns the item description.
func (i Item) Description() string { return i.description }

// Thumbnail returns the thumbnail reference.
func (i Item) Thumbnail() string { return i.thumbnail }

// OwnerID returns the owning user ID.
func (i Item) OwnerID() int64 { return i.ownerID }

// AlbumID returns the containing album ID (0 when none).
func (i Item) AlbumID() int64 { return i.albumID }

// Tags returns the item tags (copy).
func (i Item) Tags() []string {
	t := make([]string, len(i.tags))
	copy(t, i.tags)
	return t
}
