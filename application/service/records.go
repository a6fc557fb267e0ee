package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aleysapc/docsearch/domain/document"
	"github.com/aleysapc/docsearch/domain/repository"
	"github.com/aleysapc/docsearch/domain/task"
	"github.com/aleysapc/docsearch/internal/database"
)

// DocumentAddParams configures registering an uploaded file.
type DocumentAddParams struct {
	Name             string
	FilePath         string
	CorrespondenceID int64
	// Content, when set, is indexed instead of the text extracted from the
	// file.
	Content string
}

// CorrespondenceAddParams configures creating a correspondence record.
type CorrespondenceAddParams struct {
	Reference   string
	Subject     string
	Description string
}

// Documents registers uploaded files and runs them through the indexing
// pipeline.
type Documents struct {
	db             database.Database
	store          document.DocumentStore
	correspondence document.CorrespondenceStore
	jobs           *Jobs
	logger         *slog.Logger
}

// NewDocuments creates a Documents service.
func NewDocuments(db database.Database, store document.DocumentStore, correspondence document.CorrespondenceStore, jobs *Jobs, logger *slog.Logger) *Documents {
	if logger == nil {
		logger = slog.Default()
	}
	return &Documents{db: db, store: store, correspondence: correspondence, jobs: jobs, logger: logger}
}

// Add stores the document and submits an indexing job in one transaction.
// The job reaches the queue only after the document is committed.
func (s *Documents) Add(ctx context.Context, params *DocumentAddParams) (document.Document, JobHandle, error) {
	if strings.TrimSpace(params.Name) == "" || strings.TrimSpace(params.FilePath) == "" {
		return document.Document{}, JobHandle{}, fmt.Errorf("%w: document name and file are required", ErrInvalidInput)
	}

	type added struct {
		doc    document.Document
		handle JobHandle
	}
	out, err := database.WithTransactionResult(ctx, s.db, func(ctx context.Context) (added, error) {
		doc := document.NewDocument(params.Name, params.FilePath)
		if content := strings.TrimSpace(params.Content); content != "" {
			doc = doc.WithContent(content)
		}
		if params.CorrespondenceID > 0 {
			if _, err := s.correspondence.Get(ctx, params.CorrespondenceID); err != nil {
				return added{}, fmt.Errorf("attach to correspondence: %w", err)
			}
			doc = doc.WithCorrespondence(params.CorrespondenceID)
		}
		created, err := s.store.Create(ctx, doc)
		if err != nil {
			return added{}, fmt.Errorf("create document: %w", err)
		}
		handle, err := s.jobs.SubmitIndexingJob(ctx, created.ID(), created.FilePath())
		if err != nil {
			return added{}, err
		}
		return added{doc: created, handle: handle}, nil
	})
	if err != nil {
		return document.Document{}, JobHandle{}, err
	}

	s.logger.Info("document added",
		slog.Int64("document_id", out.doc.ID()),
		slog.String("name", out.doc.Name()),
		slog.String("job_id", out.handle.TaskID),
	)
	return out.doc, out.handle, nil
}

// Get returns the document with the given id.
func (s *Documents) Get(ctx context.Context, id int64) (document.Document, error) {
	return s.store.Get(ctx, id)
}

// Find returns documents matching options.
func (s *Documents) Find(ctx context.Context, options ...repository.Option) ([]document.Document, error) {
	return s.store.Find(ctx, options...)
}

// Count returns the number of documents matching options.
func (s *Documents) Count(ctx context.Context, options ...repository.Option) (int64, error) {
	return s.store.Count(ctx, options...)
}

// Reprocess submits a new indexing job for an existing document.
func (s *Documents) Reprocess(ctx context.Context, id int64) (JobHandle, error) {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return JobHandle{}, fmt.Errorf("get document: %w", err)
	}
	return s.jobs.SubmitIndexingJob(ctx, doc.ID(), doc.FilePath())
}

// Jobs returns the indexing jobs run for a document, newest first.
func (s *Documents) Jobs(ctx context.Context, id int64) ([]task.Job, error) {
	return s.jobs.ForDocument(ctx, id)
}

// Correspondence manages correspondence records. Their searchable text is
// that of their attached documents.
type Correspondence struct {
	store   document.CorrespondenceStore
	indexer *Indexer
	logger  *slog.Logger
}

// NewCorrespondence creates a Correspondence service.
func NewCorrespondence(store document.CorrespondenceStore, indexer *Indexer, logger *slog.Logger) *Correspondence {
	if logger == nil {
		logger = slog.Default()
	}
	return &Correspondence{store: store, indexer: indexer, logger: logger}
}

// Add creates a correspondence record.
func (s *Correspondence) Add(ctx context.Context, params *CorrespondenceAddParams) (document.Correspondence, error) {
	if strings.TrimSpace(params.Reference) == "" {
		return document.Correspondence{}, fmt.Errorf("%w: reference is required", ErrInvalidInput)
	}
	created, err := s.store.Create(ctx, document.NewCorrespondence(params.Reference, params.Subject, params.Description))
	if err != nil {
		return document.Correspondence{}, fmt.Errorf("create correspondence: %w", err)
	}
	s.logger.Info("correspondence added", slog.Int64("correspondence_id", created.ID()))
	return created, nil
}

// Get returns the correspondence with its documents.
func (s *Correspondence) Get(ctx context.Context, id int64) (document.Correspondence, error) {
	return s.store.Get(ctx, id)
}

// Reindex refreshes the embeddings of every attached document.
func (s *Correspondence) Reindex(ctx context.Context, id int64) error {
	return s.indexer.Index(ctx, document.Ref{Kind: document.KindCorrespondence, ID: id})
}

// Drafts manages drafts. Every write is indexed synchronously once it has
// been committed.
type Drafts struct {
	db      database.Database
	store   document.DraftStore
	indexer *Indexer
	logger  *slog.Logger
}

// NewDrafts creates a Drafts service.
func NewDrafts(db database.Database, store document.DraftStore, indexer *Indexer, logger *slog.Logger) *Drafts {
	if logger == nil {
		logger = slog.Default()
	}
	return &Drafts{db: db, store: store, indexer: indexer, logger: logger}
}

// Add creates a draft and indexes it.
func (s *Drafts) Add(ctx context.Context, fields document.DraftFields) (document.Draft, error) {
	created, err := s.store.Create(ctx, document.NewDraft(fields))
	if err != nil {
		return document.Draft{}, fmt.Errorf("create draft: %w", err)
	}
	return s.indexed(ctx, created.ID())
}

// Update replaces the draft's fields and re-indexes it.
func (s *Drafts) Update(ctx context.Context, id int64, fields document.DraftFields) (document.Draft, error) {
	err := database.WithTransaction(ctx, s.db, func(ctx context.Context) error {
		current, err := s.store.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("get draft: %w", err)
		}
		if _, err := s.store.Save(ctx, current.WithFields(fields)); err != nil {
			return fmt.Errorf("save draft: %w", err)
		}
		return nil
	})
	if err != nil {
		return document.Draft{}, err
	}
	return s.indexed(ctx, id)
}

// Get returns the draft with the given id.
func (s *Drafts) Get(ctx context.Context, id int64) (document.Draft, error) {
	return s.store.Get(ctx, id)
}

// indexed refreshes the embedding of a committed draft and reloads it.
func (s *Drafts) indexed(ctx context.Context, id int64) (document.Draft, error) {
	if database.InTransaction(ctx) {
		database.OnCommit(ctx, func(ctx context.Context) {
			if err := s.indexer.Index(ctx, document.Ref{Kind: document.KindDraft, ID: id}); err != nil {
				s.logger.Error("draft indexing failed", slog.Int64("draft_id", id), slog.Any("error", err))
			}
		})
		return s.store.Get(ctx, id)
	}
	if err := s.indexer.Index(ctx, document.Ref{Kind: document.KindDraft, ID: id}); err != nil {
		return document.Draft{}, fmt.Errorf("index draft: %w", err)
	}
	return s.store.Get(ctx, id)
}
