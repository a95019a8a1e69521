package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/helixml/fileserve/application/service"
	"github.com/helixml/fileserve/domain/file"
	"github.com/helixml/fileserve/domain/transfer"
)

// ErrServer is the base error matched by every ServerError.
var ErrServer = errors.New("server error")

// APIError is an error that carries the HTTP status to respond with.
type APIError struct {
	code    int
	message string
	cause   error
}

// NewAPIError creates a new APIError.
func NewAPIError(code int, message string, cause error) *APIError {
	return &APIError{
		code:    code,
		message: message,
		cause:   cause,
	}
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("api error %d: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("api error %d: %s", e.code, e.message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.cause
}

// Code returns the HTTP status code.
func (e *APIError) Code() int {
	return e.code
}

// Message returns the client-facing message.
func (e *APIError) Message() string {
	return e.message
}

// ServerError represents a failure on our side that should be reported
// with a fixed message instead of the underlying error text.
type ServerError struct {
	statusCode int
	message    string
}

// NewServerError creates a new ServerError.
func NewServerError(statusCode int, message string) *ServerError {
	return &ServerError{
		statusCode: statusCode,
		message:    message,
	}
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.statusCode, e.message)
}

// Unwrap returns ErrServer for errors.Is compatibility.
func (e *ServerError) Unwrap() error {
	return ErrServer
}

// StatusCode returns the HTTP status code.
func (e *ServerError) StatusCode() int {
	return e.statusCode
}

// Message returns the error message.
func (e *ServerError) Message() string {
	return e.message
}

// JSONAPIError represents a JSON:API error object.
type JSONAPIError struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
	ID     string `json:"id,omitempty"`
}

// JSONAPIErrorResponse represents a JSON:API error response wrapper.
type JSONAPIErrorResponse struct {
	Errors []JSONAPIError `json:"errors"`
}

// StatusFor maps err to the HTTP status and title used in the response.
func StatusFor(err error) (int, string) {
	var apiErr *APIError
	var serverErr *ServerError

	switch {
	case errors.As(err, &apiErr):
		return apiErr.Code(), http.StatusText(apiErr.Code())
	case errors.As(err, &serverErr):
		return serverErr.StatusCode(), "Server Error"
	case errors.Is(err, file.ErrNotFound), errors.Is(err, transfer.ErrNotFound), errors.Is(err, service.ErrLedgerDisabled):
		return http.StatusNotFound, "Not Found"
	case errors.Is(err, file.ErrIsDirectory), errors.Is(err, file.ErrNotDirectory):
		return http.StatusBadRequest, "Bad Request"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

// WriteError writes a JSON:API formatted error response. Server-side
// failures are logged at error level; client errors at debug.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	status, title := StatusFor(err)
	detail := err.Error()

	var apiErr *APIError
	var serverErr *ServerError
	switch {
	case errors.As(err, &apiErr):
		detail = apiErr.Message()
	case errors.As(err, &serverErr):
		detail = serverErr.Message()
	}

	correlationID := GetCorrelationID(r.Context())

	level := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(r.Context(), level, "request error",
		slog.Int("status", status),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)

	resp := JSONAPIErrorResponse{
		Errors: []JSONAPIError{
			{
				Status: fmt.Sprintf("%d", status),
				Title:  title,
				Detail: detail,
				ID:     correlationID,
			},
		},
	}

	w.Header().Set("Content-Type", "application/vnd.api+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
