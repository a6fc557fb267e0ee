package v1

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aleysapc/docsearch"
	"github.com/aleysapc/docsearch/infrastructure/api/middleware"
)

// JobsRouter reports the state of indexing jobs.
type JobsRouter struct {
	client *docsearch.Client
	logger *slog.Logger
}

// NewJobsRouter creates a new JobsRouter.
func NewJobsRouter(client *docsearch.Client) *JobsRouter {
	return &JobsRouter{client: client, logger: client.Logger()}
}

// Routes returns the chi router for job endpoints.
func (r *JobsRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/{id}", r.Get)
	return router
}

// Get handles GET /api/v1/jobs/{id}. Unknown ids report pending.
//
//	@Summary		Get job status
//	@Tags			jobs
//	@Produce		json
//	@Param			id	path		string	true	"Task ID"
//	@Success		200	{object}	object
//	@Router			/jobs/{id} [get]
func (r *JobsRouter) Get(w http.ResponseWriter, req *http.Request) {
	job, err := r.client.Jobs.Status(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}
