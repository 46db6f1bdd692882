package esmodel

import "github.com/kailas-cloud/esmodel/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation        = domain.ErrValidation
	ErrConfiguration     = domain.ErrConfiguration
	ErrSchema            = domain.ErrSchema
	ErrInvalidDefinition = domain.ErrInvalidDefinition
	ErrEngine            = domain.ErrEngine
	ErrDocumentNotFound  = domain.ErrDocumentNotFound
	ErrIndexNotFound     = domain.ErrIndexNotFound
)

// EngineError is a failure reported by the engine. Use errors.As() to inspect it.
type EngineError = domain.EngineError

// BulkError lists the items a strict bulk load rejected.
type BulkError = domain.BulkError

// BulkFailure describes one rejected bulk item.
type BulkFailure = domain.BulkFailure
