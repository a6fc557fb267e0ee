// Package v1 implements the /api/v1 HTTP routes.
package v1

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aleysapc/docsearch"
	"github.com/aleysapc/docsearch/application/service"
	"github.com/aleysapc/docsearch/domain/repository"
	"github.com/aleysapc/docsearch/domain/task"
	"github.com/aleysapc/docsearch/infrastructure/api/jsonapi"
	"github.com/aleysapc/docsearch/infrastructure/api/middleware"
	"github.com/aleysapc/docsearch/infrastructure/api/v1/dto"
	"github.com/aleysapc/docsearch/infrastructure/extraction"
)

// MaxUploadSize bounds the request body of a document upload.
const MaxUploadSize = 64 << 20

// DocumentsRouter handles document API endpoints.
type DocumentsRouter struct {
	client     *docsearch.Client
	serializer *jsonapi.Serializer
	logger     *slog.Logger
}

// NewDocumentsRouter creates a new DocumentsRouter.
func NewDocumentsRouter(client *docsearch.Client) *DocumentsRouter {
	return &DocumentsRouter{
		client:     client,
		serializer: jsonapi.NewSerializer(),
		logger:     client.Logger(),
	}
}

// Routes returns the chi router for document endpoints.
func (r *DocumentsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Post("/", r.Upload)
	router.Get("/{id}", r.Get)
	router.Get("/{id}/jobs", r.Jobs)
	router.Post("/{id}/reprocess", r.Reprocess)

	return router
}

// List handles GET /api/v1/documents.
//
//	@Summary		List documents
//	@Tags			documents
//	@Produce		json
//	@Param			correspondence_id	query		int	false	"Only documents attached to this correspondence"
//	@Param			page				query		int	false	"Page number"
//	@Param			page_size			query		int	false	"Page size (max 100)"
//	@Success		200					{object}	jsonapi.Document
//	@Router			/documents [get]
func (r *DocumentsRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	params := ParsePagination(req)

	var filters []repository.Option
	if raw := req.URL.Query().Get("correspondence_id"); raw != "" {
		cid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || cid <= 0 {
			middleware.WriteError(w, req, middleware.BadRequest("correspondence_id must be a positive integer", err), r.logger)
			return
		}
		filters = append(filters, repository.WithCorrespondenceID(cid))
	}

	total, err := r.client.Documents.Count(ctx, filters...)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	opts := append(append([]repository.Option{}, filters...), params.Options()...)
	opts = append(opts, repository.WithOrderDesc("id"))
	docs, err := r.client.Documents.Find(ctx, opts...)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	resp := jsonapi.NewListResponse(r.serializer.DocumentResources(docs))
	resp.Meta = PaginationMeta(params, total)
	resp.Links = PaginationLinks(req, params, total)
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// Upload handles POST /api/v1/documents.
//
//	@Summary		Upload a document
//	@Description	Stores the file and queues it for extraction and indexing
//	@Tags			documents
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file				formData	file	true	"PDF, image or text file"
//	@Param			name				formData	string	false	"Display name, defaults to the file name"
//	@Param			correspondence_id	formData	int		false	"Correspondence to attach to"
//	@Param			content				formData	string	false	"Text to index instead of the file's extracted text"
//	@Success		202					{object}	dto.JobAccepted
//	@Failure		400					{object}	jsonapi.Document
//	@Failure		401					{object}	jsonapi.Document
//	@Failure		404					{object}	jsonapi.Document
//	@Security		APIKeyAuth
//	@Router			/documents [post]
func (r *DocumentsRouter) Upload(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	req.Body = http.MaxBytesReader(w, req.Body, MaxUploadSize)

	file, header, err := req.FormFile("file")
	if err != nil {
		middleware.WriteError(w, req, middleware.BadRequest("multipart field \"file\" is required", err), r.logger)
		return
	}
	defer func() { _ = file.Close() }()

	if !extraction.Supported(header.Filename) {
		middleware.WriteError(w, req, middleware.BadRequest(
			fmt.Sprintf("unsupported file type %q", filepath.Ext(header.Filename)), extraction.ErrUnsupportedFormat), r.logger)
		return
	}

	var correspondenceID int64
	if raw := req.FormValue("correspondence_id"); raw != "" {
		correspondenceID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || correspondenceID <= 0 {
			middleware.WriteError(w, req, middleware.BadRequest("correspondence_id must be a positive integer", err), r.logger)
			return
		}
	}

	name := strings.TrimSpace(req.FormValue("name"))
	if name == "" {
		name = filepath.Base(header.Filename)
	}

	path, err := r.store(file, header.Filename)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	doc, handle, err := r.client.Documents.Add(ctx, &service.DocumentAddParams{
		Name:             name,
		FilePath:         path,
		CorrespondenceID: correspondenceID,
		Content:          req.FormValue("content"),
	})
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			r.logger.Warn("failed to remove orphaned upload", slog.String("path", path), slog.Any("error", rmErr))
		}
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, dto.JobAccepted{
		TaskID:     handle.TaskID,
		Status:     string(handle.Status),
		DocumentID: doc.ID(),
	})
}

// store copies the upload into the upload directory under a unique name.
func (r *DocumentsRouter) store(src io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(r.client.UploadDir(), uuid.NewString()+ext)

	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", middleware.NewAPIError(http.StatusRequestEntityTooLarge, "file too large", err)
		}
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close upload: %w", err)
	}
	return path, nil
}

// Get handles GET /api/v1/documents/{id}.
//
//	@Summary		Get a document
//	@Tags			documents
//	@Produce		json
//	@Param			id	path		int	true	"Document ID"
//	@Success		200	{object}	jsonapi.Document
//	@Failure		404	{object}	jsonapi.Document
//	@Router			/documents/{id} [get]
func (r *DocumentsRouter) Get(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	doc, err := r.client.Documents.Get(req.Context(), id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.DocumentResource(doc)))
}

// Jobs handles GET /api/v1/documents/{id}/jobs.
//
//	@Summary		List indexing jobs of a document
//	@Tags			documents
//	@Produce		json
//	@Param			id	path	int	true	"Document ID"
//	@Success		200	{array}	object
//	@Router			/documents/{id}/jobs [get]
func (r *DocumentsRouter) Jobs(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	jobs, err := r.client.Documents.Jobs(req.Context(), id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	if jobs == nil {
		jobs = []task.Job{}
	}
	middleware.WriteJSON(w, http.StatusOK, jobs)
}

// Reprocess handles POST /api/v1/documents/{id}/reprocess.
//
//	@Summary		Re-run the indexing pipeline
//	@Tags			documents
//	@Produce		json
//	@Param			id	path		int	true	"Document ID"
//	@Success		202	{object}	dto.JobAccepted
//	@Failure		404	{object}	jsonapi.Document
//	@Security		APIKeyAuth
//	@Router			/documents/{id}/reprocess [post]
func (r *DocumentsRouter) Reprocess(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	handle, err := r.client.Documents.Reprocess(req.Context(), id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusAccepted, dto.JobAccepted{
		TaskID:     handle.TaskID,
		Status:     string(handle.Status),
		DocumentID: id,
	})
}

func pathID(req *http.Request) (int64, error) {
	raw := chi.URLParam(req, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, middleware.BadRequest(fmt.Sprintf("invalid id %q", raw), err)
	}
	return id, nil
}
