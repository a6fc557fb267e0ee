package v1

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aleysapc/docsearch"
	"github.com/aleysapc/docsearch/domain/document"
	"github.com/aleysapc/docsearch/domain/search"
	"github.com/aleysapc/docsearch/infrastructure/api/jsonapi"
	"github.com/aleysapc/docsearch/infrastructure/api/middleware"
	"github.com/aleysapc/docsearch/infrastructure/api/v1/dto"
)

// SearchRouter handles search API endpoints.
type SearchRouter struct {
	client *docsearch.Client
	logger *slog.Logger
}

// NewSearchRouter creates a new SearchRouter.
func NewSearchRouter(client *docsearch.Client) *SearchRouter {
	return &SearchRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for search endpoints.
func (r *SearchRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/documents", r.Documents)
	router.Get("/correspondence", r.Correspondence)
	router.Get("/drafts", r.Drafts)

	return router
}

// Documents handles GET /api/v1/search/documents.
//
//	@Summary		Search documents
//	@Description	Ranks indexed documents by semantic similarity to the query
//	@Tags			search
//	@Produce		json
//	@Param			q			query		string	true	"Search text"
//	@Param			threshold	query		number	false	"Minimum similarity, 0 to 1"
//	@Param			limit		query		int		false	"Maximum number of results"
//	@Success		200			{object}	dto.SearchResponse
//	@Failure		400			{object}	jsonapi.Document
//	@Router			/search/documents [get]
func (r *SearchRouter) Documents(w http.ResponseWriter, req *http.Request) {
	query, opts, err := parseSearch(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	matches, err := r.client.Search.Documents(req.Context(), query, opts...)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	results := make([]dto.SearchResult, len(matches))
	for i, m := range matches {
		results[i] = dto.SearchResult{
			ID:         m.Entity.ID(),
			Type:       jsonapi.TypeDocument,
			Name:       m.Entity.Name(),
			Preview:    m.Entity.Preview(jsonapi.PreviewLength),
			Similarity: round4(m.Score),
		}
	}
	middleware.WriteJSON(w, http.StatusOK, dto.SearchResponse{Query: query, Results: results})
}

// Correspondence handles GET /api/v1/search/correspondence.
//
//	@Summary		Search correspondence
//	@Description	Ranks correspondence by its best matching attached document
//	@Tags			search
//	@Produce		json
//	@Param			q			query		string	true	"Search text"
//	@Param			threshold	query		number	false	"Minimum similarity, 0 to 1"
//	@Param			limit		query		int		false	"Maximum number of results"
//	@Success		200			{object}	dto.SearchResponse
//	@Failure		400			{object}	jsonapi.Document
//	@Router			/search/correspondence [get]
func (r *SearchRouter) Correspondence(w http.ResponseWriter, req *http.Request) {
	query, opts, err := parseSearch(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	matches, err := r.client.Search.Correspondence(req.Context(), query, opts...)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	results := make([]dto.SearchResult, len(matches))
	for i, m := range matches {
		results[i] = dto.SearchResult{
			ID:         m.Entity.ID(),
			Type:       jsonapi.TypeCorrespondence,
			Name:       m.Entity.Reference(),
			Preview:    document.Preview(m.Entity.Subject(), jsonapi.PreviewLength),
			Similarity: round4(m.Score),
		}
	}
	middleware.WriteJSON(w, http.StatusOK, dto.SearchResponse{Query: query, Results: results})
}

// Drafts handles GET /api/v1/search/drafts.
//
//	@Summary		Search drafts
//	@Tags			search
//	@Produce		json
//	@Param			q			query		string	true	"Search text"
//	@Param			threshold	query		number	false	"Minimum similarity, 0 to 1"
//	@Param			limit		query		int		false	"Maximum number of results"
//	@Success		200			{object}	dto.SearchResponse
//	@Failure		400			{object}	jsonapi.Document
//	@Router			/search/drafts [get]
func (r *SearchRouter) Drafts(w http.ResponseWriter, req *http.Request) {
	query, opts, err := parseSearch(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	matches, err := r.client.Search.Drafts(req.Context(), query, opts...)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	results := make([]dto.SearchResult, len(matches))
	for i, m := range matches {
		results[i] = dto.SearchResult{
			ID:         m.Entity.ID(),
			Type:       jsonapi.TypeDraft,
			Name:       m.Entity.Reference(),
			Preview:    document.Preview(m.Entity.SourceText(), jsonapi.PreviewLength),
			Similarity: round4(m.Score),
		}
	}
	middleware.WriteJSON(w, http.StatusOK, dto.SearchResponse{Query: query, Results: results})
}

// parseSearch reads q, threshold and limit. Omitted parameters fall back to
// the client's configured defaults.
func parseSearch(req *http.Request) (string, []search.Option, error) {
	q := req.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		return "", nil, middleware.BadRequest("query parameter q is required", nil)
	}

	var opts []search.Option
	if raw := q.Get("threshold"); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil || t < 0 || t > 1 || math.IsNaN(t) {
			return "", nil, middleware.BadRequest("threshold must be a number between 0 and 1", err)
		}
		opts = append(opts, search.WithThreshold(t))
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return "", nil, middleware.BadRequest("limit must be a non-negative integer", err)
		}
		opts = append(opts, search.WithLimit(n))
	}
	return query, opts, nil
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
