package dto

import "time"

// CoverageData reports embedding coverage for one entity kind.
type CoverageData struct {
	Kind     string  `json:"kind"`
	Items    int64   `json:"items"`
	Embedded int64   `json:"embedded"`
	Percent  float64 `json:"percent"`
}

// StatusRequest is the optional body of GET /api/v1/embeddings/status,
// naming the entities to inspect.
type StatusRequest struct {
	Entities []BatchEntity `json:"entities"`
}

// EntityDetailData reports embedding presence for one entity.
type EntityDetailData struct {
	Kind     string `json:"kind"`
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Embedded bool   `json:"embedded"`
}

// StatusResponse is the body of GET /api/v1/embeddings/status.
type StatusResponse struct {
	Model    string             `json:"model"`
	Total    int64              `json:"total"`
	Coverage []CoverageData     `json:"coverage"`
	Details  []EntityDetailData `json:"details"`
}

// StatsResponse is the body of GET /api/v1/stats.
type StatsResponse struct {
	Total             int64      `json:"total"`
	Models            []string   `json:"models"`
	Providers         []string   `json:"providers"`
	AverageDimensions float64    `json:"average_dimensions"`
	RecentCount       int64      `json:"recent_embeddings"`
	LatestCreatedAt   *time.Time `json:"latest_created_at,omitempty"`
	ComputedAt        time.Time  `json:"computed_at"`
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status          string     `json:"status"`
	Provider        string     `json:"provider"`
	Model           string     `json:"model"`
	Dimensions      int        `json:"dimensions"`
	Embeddings      int64      `json:"embeddings"`
	LatestCreatedAt *time.Time `json:"latest_created_at,omitempty"`
}
