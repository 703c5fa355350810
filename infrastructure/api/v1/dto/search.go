// Package dto defines the request and response shapes of the v1 API.
package dto

import "time"

// MaxQueryLength caps the accepted search query length.
const MaxQueryLength = 500

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Query     string   `json:"query"`
	Limit     *int     `json:"limit,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
	OwnerID   *int64   `json:"owner_id,omitempty"`
	AlbumID   *int64   `json:"album_id,omitempty"`
}

// ResultData is one ranked hit in a search or similar response.
type ResultData struct {
	Kind      string  `json:"kind"`
	ID        int64   `json:"id"`
	Score     float64 `json:"score"`
	Title     string  `json:"title"`
	Thumbnail string  `json:"thumbnail,omitempty"`
	OwnerID   int64   `json:"owner_id"`
	Fallback  bool    `json:"fallback"`
}

// SourceData summarizes the entity a similar-item lookup started from.
type SourceData struct {
	Kind      string `json:"kind"`
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail,omitempty"`
	OwnerID   int64  `json:"owner_id"`
}

// SearchResponse is the body of a search or similar response. Query is
// empty and Source is set for similar-item lookups.
type SearchResponse struct {
	Query     string       `json:"query,omitempty"`
	Source    *SourceData  `json:"source,omitempty"`
	Threshold float64      `json:"threshold"`
	Limit     int          `json:"limit"`
	Fallback  bool         `json:"fallback"`
	Count     int          `json:"count"`
	Results   []ResultData `json:"results"`
}

// GenerateResponse is the body of POST /api/v1/embeddings/generate/{kind}/{id}.
type GenerateResponse struct {
	Kind       string    `json:"kind"`
	ID         int64     `json:"id"`
	Model      string    `json:"model"`
	Provider   string    `json:"provider"`
	Dimensions int       `json:"dimensions"`
	Generated  bool      `json:"generated"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BatchEntity names one entity in a batch request.
type BatchEntity struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
}

// BatchRequest is the body of POST /api/v1/embeddings/batch.
type BatchRequest struct {
	Entities []BatchEntity `json:"entities"`
	Force    bool          `json:"force,omitempty"`
}

// BatchOutcomeData is the result for one entity in a batch response.
type BatchOutcomeData struct {
	Kind   string `json:"kind"`
	ID     int64  `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// BatchResponse is the body of a batch generation response.
type BatchResponse struct {
	Requested int                `json:"requested"`
	Generated int                `json:"generated"`
	Skipped   int                `json:"skipped"`
	Failed    int                `json:"failed"`
	Outcomes  []BatchOutcomeData `json:"outcomes"`
}
