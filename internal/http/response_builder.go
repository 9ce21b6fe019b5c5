// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for JSON responses so every
// handler writes the same envelope and headers.

package http

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	fields     map[string]any
	body       any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Field adds a top-level key to an object body. Ignored once Body is set.
func (b *JSONResponseBuilder) Field(name string, value any) *JSONResponseBuilder {
	if b.fields == nil {
		b.fields = make(map[string]any)
	}
	b.fields[name] = value
	return b
}

// Body sets the whole response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) error {
	body := b.body
	if body == nil && b.fields != nil {
		body = b.fields
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	_, err = w.Write(append(payload, '\n'))
	return err
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(ErrorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnauthorizedError creates a 401 response with a bearer challenge.
func UnauthorizedError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, "Unauthorized").
		Header("WWW-Authenticate", `Bearer realm="pocketwatcher"`)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "Something went wrong")
}
