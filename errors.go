package docsearch

import (
	"errors"

	"github.com/aleysapc/docsearch/application/service"
	"github.com/aleysapc/docsearch/internal/database"
)

var (
	// ErrClientClosed is returned by operations on a closed client.
	ErrClientClosed = service.ErrClientClosed

	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = database.ErrNotFound

	// ErrInvalidInput is returned for requests that fail validation.
	ErrInvalidInput = service.ErrInvalidInput

	// ErrNoDatabase is returned when neither a database URL nor a data
	// directory is configured.
	ErrNoDatabase = errors.New("docsearch: no database configured")
)
