// Package provider contains embedding providers used to turn text into
// vectors.
package provider

import (
	"context"
	"fmt"
)

// EmbeddingRequest is a request to embed one or more input texts.
type EmbeddingRequest struct {
	Inputs []string
	Model  string
}

// Usage reports token accounting for a provider call, when available.
type Usage struct {
	PromptTokens int
	TotalTokens  int
}

// EmbeddingResponse carries one vector per request input, in order.
type EmbeddingResponse struct {
	Vectors [][]float64
	Model   string
	Usage   Usage
}

// Embedder turns text into embedding vectors.
type Embedder interface {
	// Embed returns one vector per input, in the same order.
	Embed(ctx context.Context, req EmbeddingRequest) (*EmbeddingResponse, error)
}

// Provider is an embedding backend with identity and lifecycle.
type Provider interface {
	Embedder

	// Name identifies the provider, e.g. "openai" or "synthetic".
	Name() string
	// Model returns the model identifier used for embedding calls.
	Model() string
	// Dimensions returns the vector dimensionality the provider produces.
	Dimensions() int
	// Ping verifies the provider is reachable and usable.
	Ping(ctx context.Context) error
	// Close releases any resources held by the provider.
	Close() error
}

// Error wraps a provider failure with the provider name and the
// operation that failed.
type Error struct {
	ProviderName string
	Operation    string
	Err          error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.ProviderName, e.Operation, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a provider error.
func NewError(provider, operation string, err error) *Error {
	return &Error{ProviderName: provider, Operation: operation, Err: err}
}
