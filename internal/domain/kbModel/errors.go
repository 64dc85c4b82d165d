package kbModel

import "errors"

// Input validation. Rejected before any collaborator is called.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrEmptyText         = errors.New("document contains no text")
	ErrNoChunks          = errors.New("could not extract text from file")
	ErrUnsupportedFormat = errors.New("unsupported file type, allowed: .txt, .md, .markdown, .pdf, .docx, .odt, .rtf")
	ErrNotUTF8           = errors.New("file must be UTF-8 encoded text")
)

// Collaborator failures. The request is aborted and any partial ingestion rolled back.
var (
	ErrEmbeddingFailed = errors.New("embedding failed")
	ErrSynthesisFailed = errors.New("answer synthesis failed")
	ErrStorageFailed   = errors.New("storage failed")
)

// ErrDimensionMismatch means an embedding does not have the configured length.
// It is a configuration fault, never skipped per record.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

var ErrDocumentNotFound = errors.New("document not found")

// IsValidation reports whether err should be shown to the caller as a bad request.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyText) ||
		errors.Is(err, ErrNoChunks) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrNotUTF8)
}
