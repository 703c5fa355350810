package provider

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"fmt"

	"github.com/snapvec/snapvec/domain/embedding"
)

// SyntheticProvider produces deterministic pseudo-embeddings derived from
// a hash of the input text. Identical inputs always yield identical
// vectors, so tests and API-key-free deployments behave reproducibly.
type SyntheticProvider struct {
	model      string
	dimensions int
}

var _ Provider = (*SyntheticProvider)(nil)

// NewSyntheticProvider creates a provider generating deterministic
// hash-derived vectors of the given dimensionality.
func NewSyntheticProvider(model string, dimensions int) *SyntheticProvider {
	return &SyntheticProvider{
		model:      model,
		dimensions: dimensions,
	}
}

// Name identifies the provider.
func (p *SyntheticProvider) Name() string { return embedding.ProviderSynthetic }

// Model returns the embedding model identifier.
func (p *SyntheticProvider) Model() string { return p.model }

// Dimensions returns the vector dimensionality.
func (p *SyntheticProvider) Dimensions() int { return p.dimensions }

// Embed derives one vector per input from repeated hashing of the input
// text. Each component falls in [-0.5, 0.5).
func (p *SyntheticProvider) Embed(ctx context.Context, req EmbeddingRequest) (*EmbeddingResponse, error) {
	if len(req.Inputs) == 0 {
		return nil, NewError(p.Name(), "embed", fmt.Errorf("no inputs provided"))
	}

	vectors := make([][]float64, len(req.Inputs))
	for i, input := range req.Inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = p.deriveVector(input)
	}

	return &EmbeddingResponse{
		Vectors: vectors,
		Model:   p.model,
	}, nil
}

// deriveVector expands the input into dimensions components by hashing
// the text with an incrementing counter. Each digest yields four
// uint32-derived components.
func (p *SyntheticProvider) deriveVector(input string) []float64 {
	vec := make([]float64, 0, p.dimensions)
	for counter := 0; len(vec) < p.dimensions; counter++ {
		sum := md5.Sum([]byte(fmt.Sprintf("%s:%d", input, counter)))
		for off := 0; off < len(sum) && len(vec) < p.dimensions; off += 4 {
			n := binary.BigEndian.Uint32(sum[off : off+4])
			vec = append(vec, float64(n)/float64(1<<32)-0.5)
		}
	}
	return vec
}

// Ping always succeeds, the provider has no external dependency.
func (p *SyntheticProvider) Ping(ctx context.Context) error { return ctx.Err() }

// Close releases resources.
func (p *SyntheticProvider) Close() error { return nil }
