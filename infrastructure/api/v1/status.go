package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/snapvec/snapvec"
	"github.com/snapvec/snapvec/infrastructure/api/middleware"
	"github.com/snapvec/snapvec/infrastructure/api/v1/dto"
)

// StatusRouter handles stats and health API endpoints.
type StatusRouter struct {
	client *snapvec.Client
	logger *slog.Logger
}

// NewStatusRouter creates a new StatusRouter.
func NewStatusRouter(client *snapvec.Client) *StatusRouter {
	return &StatusRouter{
		client: client,
		logger: client.Logger(),
	}
}

// StatsRoutes returns the chi router for the stats endpoint.
func (r *StatusRouter) StatsRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.Stats)

	return router
}

// HealthRoutes returns the chi router for the health endpoint.
func (r *StatusRouter) HealthRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.Health)

	return router
}

// Stats handles GET /api/v1/stats.
func (r *StatusRouter) Stats(w http.ResponseWriter, req *http.Request) {
	stats, err := r.client.Status.Stats(req.Context())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.StatsResponse{
		Total:             stats.Total,
		Models:            stats.Models,
		Providers:         stats.Providers,
		AverageDimensions: stats.AverageDimensions,
		RecentCount:       stats.RecentCount,
		LatestCreatedAt:   optionalTime(stats.LatestCreatedAt),
		ComputedAt:        stats.ComputedAt,
	})
}

// Health handles GET /api/v1/health.
func (r *StatusRouter) Health(w http.ResponseWriter, req *http.Request) {
	health := r.client.Status.CheckHealth(req.Context())

	status := "ok"
	httpStatus := http.StatusOK
	if !health.ProviderOK {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	middleware.WriteJSON(w, httpStatus, dto.HealthResponse{
		Status:          status,
		Provider:        health.Provider,
		Model:           health.Model,
		Dimensions:      health.Dimensions,
		Embeddings:      health.Total,
		LatestCreatedAt: optionalTime(health.LatestCreatedAt),
	})
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
