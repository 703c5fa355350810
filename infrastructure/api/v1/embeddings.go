package v1

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/snapvec/snapvec"
	"github.com/snapvec/snapvec/application/service"
	"github.com/snapvec/snapvec/domain/embedding"
	"github.com/snapvec/snapvec/infrastructure/api"
	"github.com/snapvec/snapvec/infrastructure/api/middleware"
	"github.com/snapvec/snapvec/infrastructure/api/v1/dto"
)

// maxBatchSize caps how many entities one batch request may name.
const maxBatchSize = 1000

// EmbeddingsRouter handles embedding generation API endpoints.
type EmbeddingsRouter struct {
	client *snapvec.Client
	logger *slog.Logger
}

// NewEmbeddingsRouter creates a new EmbeddingsRouter.
func NewEmbeddingsRouter(client *snapvec.Client) *EmbeddingsRouter {
	return &EmbeddingsRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for embedding endpoints.
func (r *EmbeddingsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/generate/{kind}/{id}", r.Generate)
	router.Post("/batch", r.Batch)
	router.Delete("/{kind}/{id}", r.Delete)
	router.Get("/status", r.Status)

	return router
}

// Generate handles POST /api/v1/embeddings/generate/{kind}/{id}.
func (r *EmbeddingsRouter) Generate(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	ref, err := parseRefParams(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	force := req.URL.Query().Get("force") == "true"

	record, generated, err := r.client.Generator.GenerateForEntity(ctx, ref, force)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	status := http.StatusOK
	if generated {
		status = http.StatusCreated
	}
	middleware.WriteJSON(w, status, dto.GenerateResponse{
		Kind:       string(record.Ref().Kind()),
		ID:         record.Ref().ID(),
		Model:      record.Model(),
		Provider:   record.Provider(),
		Dimensions: record.Dimensions(),
		Generated:  generated,
		UpdatedAt:  record.UpdatedAt(),
	})
}

// Batch handles POST /api/v1/embeddings/batch.
func (r *EmbeddingsRouter) Batch(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body dto.BatchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, api.NewBadRequestError("invalid request body"), r.logger)
		return
	}
	if len(body.Entities) > maxBatchSize {
		middleware.WriteError(w, req, api.NewBadRequestError("batch too large"), r.logger)
		return
	}

	refs := make([]embedding.EntityRef, 0, len(body.Entities))
	for _, e := range body.Entities {
		kind := embedding.Kind(e.Kind)
		if kind != embedding.KindImage && kind != embedding.KindAlbum {
			middleware.WriteError(w, req, api.NewBadRequestError("unknown kind "+e.Kind), r.logger)
			return
		}
		refs = append(refs, embedding.NewEntityRef(kind, e.ID))
	}

	report, err := r.client.Batch.Generate(ctx, refs, body.Force)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, buildBatchResponse(len(refs), report))
}

// Delete handles DELETE /api/v1/embeddings/{kind}/{id}.
func (r *EmbeddingsRouter) Delete(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	ref, err := parseRefParams(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	if err := r.client.Generator.DeleteForEntity(ctx, ref); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Status handles GET /api/v1/embeddings/status. The scope comes from the
// owner_id and album_id query parameters; an optional JSON body names the
// exact entities to inspect.
func (r *EmbeddingsRouter) Status(w http.ResponseWriter, req *http.Request) {
	scope, err := parseScopeParams(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	refs, err := parseStatusBody(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	status, err := r.client.Status.Status(req.Context(), refs, scope)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	coverage := make([]dto.CoverageData, len(status.Coverage))
	for i, c := range status.Coverage {
		coverage[i] = dto.CoverageData{
			Kind:     string(c.Kind),
			Items:    c.Items,
			Embedded: c.Embedded,
			Percent:  c.Percent,
		}
	}

	details := make([]dto.EntityDetailData, len(status.Details))
	for i, d := range status.Details {
		details[i] = dto.EntityDetailData{
			Kind:     string(d.Ref.Kind()),
			ID:       d.Ref.ID(),
			Title:    d.Title,
			Embedded: d.Embedded,
		}
	}

	middleware.WriteJSON(w, http.StatusOK, dto.StatusResponse{
		Model:    status.Model,
		Total:    status.Total,
		Coverage: coverage,
		Details:  details,
	})
}

// parseScopeParams reads the optional owner_id and album_id query
// parameters.
func parseScopeParams(req *http.Request) (service.Scope, error) {
	var scope service.Scope
	if raw := req.URL.Query().Get("owner_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return service.Scope{}, api.NewBadRequestError("owner_id must be a positive integer")
		}
		scope.OwnerID = id
	}
	if raw := req.URL.Query().Get("album_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return service.Scope{}, api.NewBadRequestError("album_id must be a positive integer")
		}
		scope.AlbumID = id
	}
	return scope, nil
}

// parseStatusBody decodes the optional entity list from a status request
// body. An empty body means the whole catalog.
func parseStatusBody(req *http.Request) ([]embedding.EntityRef, error) {
	raw, err := io.ReadAll(io.LimitReader(req.Body, 1<<20))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var body dto.StatusRequest
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, api.NewBadRequestError("invalid request body")
	}

	refs := make([]embedding.EntityRef, 0, len(body.Entities))
	for _, e := range body.Entities {
		kind := embedding.Kind(e.Kind)
		if kind != embedding.KindImage && kind != embedding.KindAlbum {
			return nil, api.NewBadRequestError("unknown kind " + e.Kind)
		}
		refs = append(refs, embedding.NewEntityRef(kind, e.ID))
	}
	return refs, nil
}

func buildBatchResponse(requested int, report service.BatchReport) dto.BatchResponse {
	outcomes := make([]dto.BatchOutcomeData, len(report.Outcomes))
	for i, o := range report.Outcomes {
		outcomes[i] = dto.BatchOutcomeData{
			Kind:   string(o.Ref.Kind()),
			ID:     o.Ref.ID(),
			Status: string(o.Status),
			Error:  o.Error,
		}
	}

	return dto.BatchResponse{
		Requested: requested,
		Generated: report.Generated,
		Skipped:   report.Skipped,
		Failed:    report.Failed,
		Outcomes:  outcomes,
	}
}
