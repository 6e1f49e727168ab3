package models

import (
	"errors"
	"fmt"

	"content-rag/internal/vector"
)

// Error kinds shared by the ingestion and query pipelines.
var (
	// ErrExternalService indicates a generation or embedding call failed at the transport/service level.
	ErrExternalService = errors.New("external service error")

	// ErrMalformedResponse indicates the service replied but the content failed its structural contract.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrEmbedding indicates no embedding could be produced for a text.
	ErrEmbedding = errors.New("embedding failed")

	// ErrDimensionMismatch indicates two vectors of different length were compared.
	ErrDimensionMismatch = vector.ErrDimensionMismatch

	// ErrStorage indicates a persistence operation failed.
	ErrStorage = errors.New("storage error")

	// ErrNotFound indicates a requested document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or empty input.
	ErrInvalidInput = errors.New("invalid input")
)

// MissingFieldError names a required key absent from a generated response.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing field %q", ErrMalformedResponse, e.Field)
}

// Unwrap lets errors.Is(err, ErrMalformedResponse) match.
func (e *MissingFieldError) Unwrap() error {
	return ErrMalformedResponse
}
