package embedding

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the type of entity an embedding describes.
type Kind string

// Kind values.
const (
	KindImage Kind = "image"
	KindAlbum Kind = "album"
)

// EntityRef is a weak reference to the media entity an embedding describes.
// The embedding subsystem never creates or deletes the referenced entity.
type EntityRef struct {
	kind Kind
	id   int64
}

// NewEntityRef creates an EntityRef.
func NewEntityRef(kind Kind, id int64) EntityRef {
	return EntityRef{kind: kind, id: id}
}

// Kind returns the entity kind.
func (r EntityRef) Kind() Kind { return r.kind }

// ID returns the entity identifier.
func (r EntityRef) ID() int64 { return r.id }

// IsZero reports whether the reference is empty.
func (r EntityRef) IsZero() bool {
	return r.kind == "" && r.id == 0
}

// String returns the "kind/id" form used in logs and result keys.
func (r EntityRef) String() string {
	return fmt.Sprintf("%s/%d", r.kind, r.id)
}

// ParseEntityRef parses the "kind/id" form produced by String.
func ParseEntityRef(s string) (EntityRef, error) {
	kind, idStr, ok := strings.Cut(s, "/")
	if !ok || kind == "" {
		return EntityRef{}, fmt.Errorf("parse entity ref %q: want kind/id", s)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return EntityRef{}, fmt.Errorf("parse entity ref %q: %w", s, err)
	}
	return EntityRef{kind: Kind(kind), id: id}, nil
}
