package core

import (
	"errors"
	"fmt"
)

var (
	ErrChatNotFound            = errors.New("chat not found")
	ErrDocumentNotFound        = errors.New("document not found")
	ErrPaymentNotFound         = errors.New("payment order not found")
	ErrPaymentAlreadyProcessed = errors.New("payment order already processed")
	ErrInvalidSignature        = errors.New("invalid payment signature")
)

// ValidationError reports bad caller input. It is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IngestionError wraps a failure to turn a document into stored vectors.
type IngestionError struct {
	Source string
	Err    error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingest %q: %v", e.Source, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// RetrievalError wraps an embedding, search or generation failure while
// answering a question.
type RetrievalError struct {
	Stage string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }
