package search

import "github.com/snapvec/snapvec/domain/embedding"

// Result is one ranked search hit, hydrated with the minimal display fields
// callers need for presentation. IsFallback marks results produced by a
// non-semantic heuristic so presentation layers can label them.
type Result struct {
	ref        embedding.EntityRef
	score      float64
	title      string
	thumbnail  string
	ownerID    int64
	isFallback bool
}

// NewResult creates a semantic search Result.
func NewResult(ref embedding.EntityRef, score float64, title, thumbnail string, ownerID int64) Result {
	return Result{
		ref:       ref,
		score:     score,
		title:     title,
		thumbnail: thumbnail,
		ownerID:   ownerID,
	}
}

// NewFallbackResult creates a Result flagged as produced by a fallback
// heuristic with a nominal score.
func NewFallbackResult(ref embedding.EntityRef, score float64, title, thumbnail string, ownerID int64) Result {
	r := NewResult(ref, score, title, thumbnail, ownerID)
	r.isFallback = true
	return r
}

// Ref returns the entity reference.
func (r Result) Ref() embedding.EntityRef { return r.ref }

// Score returns the similarity score, or the nominal fallback score.
func (r Result) Score() float64 { return r.score }

// Title returns the entity title.
func (r Result) Title() string { return r.title }

// Thumbnail returns the thumbnail reference.
func (r Result) Thumbnail() string { return r.thumbnail }

// OwnerID returns the owning user ID.
func (r Result) OwnerID() int64 { return r.ownerID }

// IsFallback reports whether the result came from a non-semantic heuristic.
func (r Result) IsFallback() bool { return r.isFallback }
