package models

import "errors"

var (
	ErrUnsupportedFormat    = errors.New("unsupported file format")
	ErrDecode               = errors.New("failed to decode document")
	ErrEmptyIndex           = errors.New("document produced no content")
	ErrEmbeddingUnavailable = errors.New("embedding model unavailable")
	ErrGenerationFailed     = errors.New("answer generation failed")
	ErrMissingDocument      = errors.New("no document uploaded")
	ErrMissingQuery         = errors.New("no question given")
)
