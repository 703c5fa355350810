// Package v1 contains the HTTP routers for the v1 API.
package v1

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/snapvec/snapvec"
	"github.com/snapvec/snapvec/application/service"
	"github.com/snapvec/snapvec/domain/embedding"
	"github.com/snapvec/snapvec/infrastructure/api"
	"github.com/snapvec/snapvec/infrastructure/api/middleware"
	"github.com/snapvec/snapvec/infrastructure/api/v1/dto"
)

// SearchRouter handles search API endpoints.
type SearchRouter struct {
	client *snapvec.Client
	logger *slog.Logger
}

// NewSearchRouter creates a new SearchRouter.
func NewSearchRouter(client *snapvec.Client) *SearchRouter {
	return &SearchRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for search endpoints.
func (r *SearchRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Search)

	return router
}

// SimilarRoutes returns the chi router for similar-item endpoints.
func (r *SearchRouter) SimilarRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/{kind}/{id}", r.Similar)

	return router
}

// Search handles POST /api/v1/search.
func (r *SearchRouter) Search(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body dto.SearchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, api.NewBadRequestError("invalid request body"), r.logger)
		return
	}

	if err := validateSearchRequest(body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	limit := 0
	if body.Limit != nil {
		limit = *body.Limit
	}

	scope := service.Scope{}
	if body.OwnerID != nil {
		scope.OwnerID = *body.OwnerID
	}
	if body.AlbumID != nil {
		scope.AlbumID = *body.AlbumID
	}

	outcome, err := r.client.Search.Search(ctx, body.Query, limit, body.Threshold, scope)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	response := buildSearchResponse(strings.TrimSpace(body.Query), outcome)
	middleware.WriteJSON(w, http.StatusOK, response)
}

// Similar handles GET /api/v1/similar/{kind}/{id}.
func (r *SearchRouter) Similar(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	ref, err := parseRefParams(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	limit := 0
	if raw := req.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			middleware.WriteError(w, req, api.NewBadRequestError("limit must be a positive integer"), r.logger)
			return
		}
	}

	var threshold *float64
	if raw := req.URL.Query().Get("threshold"); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil || t < 0 || t > 1 {
			middleware.WriteError(w, req, api.NewBadRequestError("threshold must be between 0 and 1"), r.logger)
			return
		}
		threshold = &t
	}

	outcome, err := r.client.Search.FindSimilar(ctx, ref, limit, threshold)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	response := buildSearchResponse("", outcome)
	middleware.WriteJSON(w, http.StatusOK, response)
}

func validateSearchRequest(body dto.SearchRequest) error {
	if strings.TrimSpace(body.Query) == "" {
		return api.NewBadRequestError("query must not be empty")
	}
	if len(body.Query) > dto.MaxQueryLength {
		return api.NewBadRequestError(fmt.Sprintf("query exceeds %d characters", dto.MaxQueryLength))
	}
	if body.Limit != nil && *body.Limit <= 0 {
		return api.NewBadRequestError("limit must be a positive integer")
	}
	if body.Threshold != nil && (*body.Threshold < 0 || *body.Threshold > 1) {
		return api.NewBadRequestError("threshold must be between 0 and 1")
	}
	if body.OwnerID != nil && *body.OwnerID <= 0 {
		return api.NewBadRequestError("owner_id must be a positive integer")
	}
	if body.AlbumID != nil && *body.AlbumID <= 0 {
		return api.NewBadRequestError("album_id must be a positive integer")
	}
	return nil
}

func buildSearchResponse(query string, outcome service.SearchOutcome) dto.SearchResponse {
	results := make([]dto.ResultData, len(outcome.Results))
	for i, res := range outcome.Results {
		results[i] = dto.ResultData{
			Kind:      string(res.Ref().Kind()),
			ID:        res.Ref().ID(),
			Score:     res.Score(),
			Title:     res.Title(),
			Thumbnail: res.Thumbnail(),
			OwnerID:   res.OwnerID(),
			Fallback:  res.IsFallback(),
		}
	}

	var source *dto.SourceData
	if outcome.Source != nil {
		source = &dto.SourceData{
			Kind:      string(outcome.Source.Kind()),
			ID:        outcome.Source.ID(),
			Title:     outcome.Source.Title(),
			Thumbnail: outcome.Source.Thumbnail(),
			OwnerID:   outcome.Source.OwnerID(),
		}
	}

	return dto.SearchResponse{
		Query:     query,
		Source:    source,
		Threshold: outcome.Threshold,
		Limit:     outcome.Limit,
		Fallback:  outcome.Fallback,
		Count:     len(results),
		Results:   results,
	}
}

// parseRefParams extracts and validates the {kind}/{id} URL parameters.
func parseRefParams(req *http.Request) (embedding.EntityRef, error) {
	kind := embedding.Kind(chi.URLParam(req, "kind"))
	switch kind {
	case embedding.KindImage, embedding.KindAlbum:
	default:
		return embedding.EntityRef{}, api.NewBadRequestError(
			fmt.Sprintf("unknown kind %q", string(kind)))
	}

	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil || id <= 0 {
		return embedding.EntityRef{}, api.NewBadRequestError("id must be a positive integer")
	}

	return embedding.NewEntityRef(kind, id), nil
}
