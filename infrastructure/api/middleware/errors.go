package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aleysapc/docsearch/application/service"
	"github.com/aleysapc/docsearch/domain/document"
	"github.com/aleysapc/docsearch/infrastructure/api/jsonapi"
	"github.com/aleysapc/docsearch/internal/database"
	"github.com/aleysapc/docsearch/internal/log"
)

var (
	// ErrAuthentication matches every AuthenticationError.
	ErrAuthentication = errors.New("authentication failed")

	// ErrServer matches every ServerError.
	ErrServer = errors.New("server error")
)

// APIError carries an explicit HTTP status for a handler failure.
type APIError struct {
	code    int
	message string
	cause   error
}

// NewAPIError creates an APIError.
func NewAPIError(code int, message string, cause error) *APIError {
	return &APIError{code: code, message: message, cause: cause}
}

// BadRequest is a 400 APIError.
func BadRequest(message string, cause error) *APIError {
	return NewAPIError(http.StatusBadRequest, message, cause)
}

func (e *APIError) Code() int       { return e.code }
func (e *APIError) Message() string { return e.message }
func (e *APIError) Unwrap() error   { return e.cause }

func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("api error %d: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("api error %d: %s", e.code, e.message)
}

// AuthenticationError reports a missing or invalid API key.
type AuthenticationError struct {
	reason string
}

// NewAuthenticationError creates an AuthenticationError.
func NewAuthenticationError(reason string) *AuthenticationError {
	return &AuthenticationError{reason: reason}
}

func (e *AuthenticationError) Error() string { return "authentication failed: " + e.reason }
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

// ServerError reports an upstream or internal failure with a status code.
type ServerError struct {
	status  int
	message string
}

// NewServerError creates a ServerError.
func NewServerError(status int, message string) *ServerError {
	return &ServerError{status: status, message: message}
}

func (e *ServerError) StatusCode() int { return e.status }
func (e *ServerError) Message() string { return e.message }
func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.status, e.message)
}
func (e *ServerError) Is(target error) bool { return target == ErrServer }

// WriteError writes err as a JSON:API error document. Unknown errors are
// reported as 500 without their message.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status := http.StatusInternalServerError
	title := "Internal Server Error"
	detail := "internal error"

	var (
		apiErr    *APIError
		serverErr *ServerError
		authErr   *AuthenticationError
	)
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.Code()
		title = http.StatusText(status)
		detail = apiErr.Message()
	case errors.As(err, &authErr):
		status = http.StatusUnauthorized
		title = "Unauthorized"
		detail = authErr.reason
	case errors.As(err, &serverErr):
		status = serverErr.StatusCode()
		title = http.StatusText(status)
		detail = serverErr.Message()
	case errors.Is(err, database.ErrNotFound), errors.Is(err, document.ErrEntityNotFound):
		status = http.StatusNotFound
		title = "Not Found"
		detail = err.Error()
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
		title = "Bad Request"
		detail = err.Error()
	case errors.Is(err, service.ErrClientClosed):
		status = http.StatusServiceUnavailable
		title = "Service Unavailable"
		detail = err.Error()
	}

	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(r.Context(), level, "request error",
		slog.Int("status", status),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)

	e := jsonapi.NewError(strconv.Itoa(status), title, detail)
	e.ID = log.CorrelationID(r.Context())

	w.Header().Set("Content-Type", "application/vnd.api+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonapi.NewErrorResponse(e))
}

// WriteJSON writes data as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
