package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aleysapc/docsearch"
	"github.com/aleysapc/docsearch/application/service"
	"github.com/aleysapc/docsearch/infrastructure/api/jsonapi"
	"github.com/aleysapc/docsearch/infrastructure/api/middleware"
	"github.com/aleysapc/docsearch/infrastructure/api/v1/dto"
)

// CorrespondenceRouter handles correspondence API endpoints.
type CorrespondenceRouter struct {
	client     *docsearch.Client
	serializer *jsonapi.Serializer
	logger     *slog.Logger
}

// NewCorrespondenceRouter creates a new CorrespondenceRouter.
func NewCorrespondenceRouter(client *docsearch.Client) *CorrespondenceRouter {
	return &CorrespondenceRouter{
		client:     client,
		serializer: jsonapi.NewSerializer(),
		logger:     client.Logger(),
	}
}

// Routes returns the chi router for correspondence endpoints.
func (r *CorrespondenceRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Create)
	router.Get("/{id}", r.Get)
	router.Post("/{id}/reindex", r.Reindex)

	return router
}

// Create handles POST /api/v1/correspondence.
//
//	@Summary		Create a correspondence record
//	@Tags			correspondence
//	@Accept			json
//	@Produce		json
//	@Param			body	body		dto.CorrespondenceRequest	true	"Correspondence"
//	@Success		201		{object}	jsonapi.Document
//	@Failure		400		{object}	jsonapi.Document
//	@Security		APIKeyAuth
//	@Router			/correspondence [post]
func (r *CorrespondenceRouter) Create(w http.ResponseWriter, req *http.Request) {
	var body dto.CorrespondenceRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, middleware.BadRequest("invalid request body", err), r.logger)
		return
	}
	created, err := r.client.Correspondence.Add(req.Context(), &service.CorrespondenceAddParams{
		Reference:   body.Reference,
		Subject:     body.Subject,
		Description: body.Description,
	})
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, jsonapi.NewSingleResponse(r.serializer.CorrespondenceResource(created)))
}

// Get handles GET /api/v1/correspondence/{id}.
//
//	@Summary		Get a correspondence record with its documents
//	@Tags			correspondence
//	@Produce		json
//	@Param			id	path		int	true	"Correspondence ID"
//	@Success		200	{object}	jsonapi.Document
//	@Failure		404	{object}	jsonapi.Document
//	@Router			/correspondence/{id} [get]
func (r *CorrespondenceRouter) Get(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	c, err := r.client.Correspondence.Get(req.Context(), id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.CorrespondenceResource(c)))
}

// Reindex handles POST /api/v1/correspondence/{id}/reindex.
//
//	@Summary		Re-embed the documents of a correspondence record
//	@Tags			correspondence
//	@Param			id	path	int	true	"Correspondence ID"
//	@Success		204
//	@Failure		404	{object}	jsonapi.Document
//	@Security		APIKeyAuth
//	@Router			/correspondence/{id}/reindex [post]
func (r *CorrespondenceRouter) Reindex(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	if err := r.client.Correspondence.Reindex(req.Context(), id); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
