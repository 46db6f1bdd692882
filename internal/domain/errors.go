package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation signals malformed caller input rejected before dispatch.
	ErrValidation = errors.New("validation failed")
	// ErrConfiguration signals invalid index settings. It is a validation error.
	ErrConfiguration = fmt.Errorf("invalid configuration: %w", ErrValidation)
	// ErrSchema signals missing or unsupported field type declarations.
	ErrSchema = errors.New("invalid schema")
	// ErrInvalidDefinition signals a model definition that cannot be resolved.
	ErrInvalidDefinition = fmt.Errorf("invalid definition: %w", ErrSchema)
	// ErrEngine signals a failure returned by the search engine.
	ErrEngine = errors.New("engine error")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrIndexNotFound signals a missing index.
	ErrIndexNotFound = errors.New("index not found")
)

// Operation names attached to engine failures.
const (
	OpCreateMapping  = "create mapping"
	OpIndexExists    = "check index"
	OpDeleteIndex    = "delete index"
	OpIndexDocument  = "index document"
	OpUpdateDocument = "update document"
	OpGetDocument    = "get document"
	OpDeleteDocument = "delete document"
	OpBulk           = "load bulk"
	OpSearch         = "search"
)

// EngineError wraps a search engine failure with the operation that caused it.
type EngineError struct {
	Op      string
	Target  string // index name or document ID
	Status  int    // engine status code, 0 when no response was received
	Type    string // engine error type, e.g. index_not_found_exception
	Message string
	Err     error
}

func (e *EngineError) Error() string {
	subject := e.Op
	if e.Target != "" {
		subject = fmt.Sprintf("%s %q", e.Op, e.Target)
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s: engine status %d: %s", subject, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", subject, e.Message)
}

func (e *EngineError) Unwrap() error { return e.Err }

// TypeIndexNotFound is the engine error type for a missing index.
const TypeIndexNotFound = "index_not_found_exception"

// Is reports ErrEngine for every engine failure and the not-found sentinels for 404s.
// A 404 on a document operation means the document is missing unless the
// engine says the index is.
func (e *EngineError) Is(target error) bool {
	switch target {
	case ErrEngine:
		return true
	case ErrDocumentNotFound:
		return e.Status == http.StatusNotFound && isDocumentOp(e.Op) && e.Type != TypeIndexNotFound
	case ErrIndexNotFound:
		return e.Status == http.StatusNotFound && (!isDocumentOp(e.Op) || e.Type == TypeIndexNotFound)
	}
	return false
}

func isDocumentOp(op string) bool {
	switch op {
	case OpGetDocument, OpUpdateDocument, OpDeleteDocument:
		return true
	}
	return false
}

// BulkFailure describes one rejected bulk item.
type BulkFailure struct {
	Position int    `json:"position"`
	ID       string `json:"id,omitempty"`
	Status   int    `json:"status"`
	Reason   string `json:"reason"`
}

// BulkError reports per-item failures of a bulk request that otherwise succeeded.
type BulkError struct {
	Index    string
	Total    int
	Failures []BulkFailure
}

func (e *BulkError) Error() string {
	msg := fmt.Sprintf("%s %q: %d of %d items failed", OpBulk, e.Index, len(e.Failures), e.Total)
	if len(e.Failures) > 0 {
		f := e.Failures[0]
		msg += fmt.Sprintf(" (first: item %d, status %d: %s)", f.Position, f.Status, f.Reason)
	}
	return msg
}

// Is reports ErrEngine: per-item failures come from the engine.
func (e *BulkError) Is(target error) bool { return target == ErrEngine }
