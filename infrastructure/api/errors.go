// Package api provides the HTTP server hosting the REST and MCP surfaces.
package api

import "net/http"

// APIError is an error with an associated HTTP status code.
type APIError struct {
	code    int
	message string
}

// NewAPIError creates an APIError.
func NewAPIError(code int, message string) *APIError {
	return &APIError{code: code, message: message}
}

// NewBadRequestError creates a 400 APIError.
func NewBadRequestError(message string) *APIError {
	return NewAPIError(http.StatusBadRequest, message)
}

// Code returns the HTTP status code.
func (e *APIError) Code() int { return e.code }

// Message returns the error message.
func (e *APIError) Message() string { return e.message }

// Error implements the error interface.
func (e *APIError) Error() string { return e.message }

// AuthenticationError indicates a missing or invalid API key.
type AuthenticationError struct {
	message string
}

// NewAuthenticationError creates an AuthenticationError.
func NewAuthenticationError(message string) *AuthenticationError {
	return &AuthenticationError{message: message}
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string { return e.message }
