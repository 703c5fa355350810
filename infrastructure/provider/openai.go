package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/snapvec/snapvec/internal/config"
)

// OpenAIProvider produces embeddings via an OpenAI-compatible endpoint.
type OpenAIProvider struct {
	client        *openai.Client
	model         string
	dimensions    int
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a provider backed by an OpenAI-compatible API.
func NewOpenAIProvider(endpoint config.Endpoint) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(endpoint.APIKey())
	if endpoint.BaseURL() != "" {
		clientConfig.BaseURL = endpoint.BaseURL()
	}

	return &OpenAIProvider{
		client:        openai.NewClientWithConfig(clientConfig),
		model:         endpoint.Model(),
		dimensions:    endpoint.Dimensions(),
		maxRetries:    endpoint.MaxRetries(),
		initialDelay:  endpoint.InitialDelay(),
		backoffFactor: endpoint.BackoffFactor(),
	}
}

// Name identifies the provider.
func (p *OpenAIProvider) Name() string { return "openai" }

// Model returns the embedding model identifier.
func (p *OpenAIProvider) Model() string { return p.model }

// Dimensions returns the declared vector dimensionality.
func (p *OpenAIProvider) Dimensions() int { return p.dimensions }

// Embed returns one vector per input, retrying transient failures with
// exponential backoff.
func (p *OpenAIProvider) Embed(ctx context.Context, req EmbeddingRequest) (*EmbeddingResponse, error) {
	if len(req.Inputs) == 0 {
		return nil, NewError(p.Name(), "embed", errors.New("no inputs provided"))
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	var resp openai.EmbeddingResponse
	err := p.withRetry(ctx, func() error {
		var callErr error
		resp, callErr = p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: req.Inputs,
			Model: openai.EmbeddingModel(model),
		})
		return callErr
	})
	if err != nil {
		return nil, NewError(p.Name(), "embed", err)
	}

	if len(resp.Data) != len(req.Inputs) {
		return nil, NewError(p.Name(), "embed",
			fmt.Errorf("expected %d vectors, got %d", len(req.Inputs), len(resp.Data)))
	}

	vectors := make([][]float64, len(resp.Data))
	for _, d := range resp.Data {
		vec := make([]float64, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float64(v)
		}
		vectors[d.Index] = vec
	}

	return &EmbeddingResponse{
		Vectors: vectors,
		Model:   model,
		Usage: Usage{
			PromptTokens: resp.Usage.PromptTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}, nil
}

// Ping verifies the endpoint accepts embedding requests.
func (p *OpenAIProvider) Ping(ctx context.Context) error {
	_, err := p.Embed(ctx, EmbeddingRequest{Inputs: []string{"ping"}})
	return err
}

// Close releases resources.
func (p *OpenAIProvider) Close() error { return nil }

func (p *OpenAIProvider) withRetry(ctx context.Context, fn func() error) error {
	delay := p.initialDelay
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * p.backoffFactor)
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("retries exhausted after %d attempts: %w", p.maxRetries+1, lastErr)
}

func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
