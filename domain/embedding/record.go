// Package embedding defines embedding records and the store contract that
// persists them. A record holds one fixed-length vector describing one media
// entity under one model; the store guarantees at most one record exists per
// (entity, model) pair.
package embedding

import "time"

// Record is a persisted embedding vector for a media entity.
type Record struct {
	id         int64
	ref        EntityRef
	vector     []float64
	dimensions int
	model      string
	provider   string
	metadata   map[string]string
	createdAt  time.Time
	updatedAt  time.Time
}

// NewRecord creates an unsaved Record. The store assigns the ID and
// timestamps on save.
func NewRecord(ref EntityRef, vector []float64, model, provider string) Record {
	vec := make([]float64, len(vector))
	copy(vec, vector)
	return Record{
		ref:        ref,
		vector:     vec,
		dimensions: len(vec),
		model:      model,
		provider:   provider,
	}
}

// NewStoredRecord reconstructs a Record from persisted fields.
func NewStoredRecord(
	id int64,
	ref EntityRef,
	vector []float64,
	model, provider string,
	metadata map[string]string,
	createdAt, updatedAt time.Time,
) Record {
	vec := make([]float64, len(vector))
	copy(vec, vector)
	return Record{
		id:         id,
		ref:        ref,
		vector:     vec,
		dimensions: len(vec),
		model:      model,
		provider:   provider,
		metadata:   copyMetadata(metadata),
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// ID returns the record identifier (0 until saved).
func (r Record) ID() int64 { return r.id }

// Ref returns the entity reference.
func (r Record) Ref() EntityRef { return r.ref }

// Vector returns the embedding vector (copy).
func (r Record) Vector() []float64 {
	vec := make([]float64, len(r.vector))
	copy(vec, r.vector)
	return vec
}

// Dimensions returns the vector length.
func (r Record) Dimensions() int { return r.dimensions }

// Model returns the generating model identifier.
func (r Record) Model() string { return r.model }

// Provider returns the generating backend identifier.
func (r Record) Provider() string { return r.provider }

// Metadata returns the informational key/value map (copy). Metadata is never
// used in scoring.
func (r Record) Metadata() map[string]string {
	return copyMetadata(r.metadata)
}

// CreatedAt returns the creation timestamp.
func (r Record) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last regeneration timestamp.
func (r Record) UpdatedAt() time.Time { return r.updatedAt }

// WithMetadata returns a copy of the record with the given metadata attached.
func (r Record) WithMetadata(metadata map[string]string) Record {
	r.metadata = copyMetadata(metadata)
	return r
}

// IsSynthetic reports whether the record was produced by the synthetic
// test/demo provider rather than a real model backend.
func (r Record) IsSynthetic() bool {
	return r.provider == ProviderSynthetic
}

// ProviderSynthetic labels records generated by the deterministic synthetic
// provider.
const ProviderSynthetic = "synthetic"

func copyMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	result := make(map[string]string, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}
