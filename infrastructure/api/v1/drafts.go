package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aleysapc/docsearch"
	"github.com/aleysapc/docsearch/domain/document"
	"github.com/aleysapc/docsearch/infrastructure/api/jsonapi"
	"github.com/aleysapc/docsearch/infrastructure/api/middleware"
	"github.com/aleysapc/docsearch/infrastructure/api/v1/dto"
)

// DraftsRouter handles draft API endpoints.
type DraftsRouter struct {
	client     *docsearch.Client
	serializer *jsonapi.Serializer
	logger     *slog.Logger
}

// NewDraftsRouter creates a new DraftsRouter.
func NewDraftsRouter(client *docsearch.Client) *DraftsRouter {
	return &DraftsRouter{
		client:     client,
		serializer: jsonapi.NewSerializer(),
		logger:     client.Logger(),
	}
}

// Routes returns the chi router for draft endpoints.
func (r *DraftsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Create)
	router.Get("/{id}", r.Get)
	router.Put("/{id}", r.Update)

	return router
}

func decodeDraft(req *http.Request) (document.DraftFields, error) {
	var body dto.DraftRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return document.DraftFields{}, middleware.BadRequest("invalid request body", err)
	}
	return document.DraftFields{
		Reference:   body.Reference,
		Intro:       body.Intro,
		Body:        body.Body,
		Conclusion:  body.Conclusion,
		HTMLContent: body.HTMLContent,
	}, nil
}

// Create handles POST /api/v1/drafts.
//
//	@Summary		Create a draft
//	@Description	Stores the draft and indexes its text
//	@Tags			drafts
//	@Accept			json
//	@Produce		json
//	@Param			body	body		dto.DraftRequest	true	"Draft"
//	@Success		201		{object}	jsonapi.Document
//	@Failure		400		{object}	jsonapi.Document
//	@Security		APIKeyAuth
//	@Router			/drafts [post]
func (r *DraftsRouter) Create(w http.ResponseWriter, req *http.Request) {
	fields, err := decodeDraft(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	created, err := r.client.Drafts.Add(req.Context(), fields)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, jsonapi.NewSingleResponse(r.serializer.DraftResource(created)))
}

// Get handles GET /api/v1/drafts/{id}.
//
//	@Summary		Get a draft
//	@Tags			drafts
//	@Produce		json
//	@Param			id	path		int	true	"Draft ID"
//	@Success		200	{object}	jsonapi.Document
//	@Failure		404	{object}	jsonapi.Document
//	@Router			/drafts/{id} [get]
func (r *DraftsRouter) Get(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	d, err := r.client.Drafts.Get(req.Context(), id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.DraftResource(d)))
}

// Update handles PUT /api/v1/drafts/{id}.
//
//	@Summary		Replace a draft
//	@Tags			drafts
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"Draft ID"
//	@Param			body	body		dto.DraftRequest	true	"Draft"
//	@Success		200		{object}	jsonapi.Document
//	@Failure		404		{object}	jsonapi.Document
//	@Security		APIKeyAuth
//	@Router			/drafts/{id} [put]
func (r *DraftsRouter) Update(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	fields, err := decodeDraft(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	updated, err := r.client.Drafts.Update(req.Context(), id, fields)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.DraftResource(updated)))
}
