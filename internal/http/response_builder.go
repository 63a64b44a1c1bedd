// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses
// and maps domain and storage errors onto status codes.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"finpulse/internal/core"
	"finpulse/internal/log"
	"finpulse/internal/services"
	"finpulse/internal/storage"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Created sets 201 and the Location of the new resource.
func (b *JSONResponseBuilder) Created(location string) *JSONResponseBuilder {
	return b.Status(http.StatusCreated).Header("Location", location)
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil || b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.body)
	if err != nil {
		slog.Error("Failed to encode response body", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(payload)
	_, _ = w.Write([]byte("\n"))
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// ErrorResponse creates a standard {"error": message} response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(errorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntityError creates a 422 naming the rejected field.
func UnprocessableEntityError(field, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusUnprocessableEntity).
		Body(errorBody{Error: message, Field: field})
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func ConflictError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusConflict, message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func MethodNotAllowedError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusMethodNotAllowed, "method not allowed")
}

// errorResponse classifies err. Rejected input is 422, a missing record 404,
// a duplicate or stale write 409. Anything else is 500 and the caller must
// log it since its message is not shown to the client.
func errorResponse(err error) (resp *JSONResponseBuilder, internal bool) {
	var (
		reqErr *requestError
		valErr *core.ValidationError
	)
	switch {
	case errors.As(err, &reqErr):
		return BadRequestError(reqErr.msg), false
	case errors.As(err, &valErr):
		return UnprocessableEntityError(valErr.Field, valErr.Err.Error()), false
	case errors.Is(err, storage.ErrNotFound):
		return NotFoundError("not found"), false
	case errors.Is(err, storage.ErrConflict):
		return ConflictError("conflict"), false
	case errors.Is(err, core.ErrInvalidTransition):
		return ConflictError(core.ErrInvalidTransition.Error()), false
	case errors.Is(err, services.ErrAdviceUnavailable):
		return ErrorResponse(http.StatusServiceUnavailable, services.ErrAdviceUnavailable.Error()), false
	default:
		return InternalServerError("internal error"), true
	}
}

// writeError answers r with the status err maps to and logs server faults
// with the request's logger.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp, internal := errorResponse(err)
	if internal {
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, log.ComponentHTTP, op,
				log.NewFields().WithUser(userID(r)))
	}
	resp.Write(w)
}
