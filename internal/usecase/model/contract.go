package model

import "github.com/kailas-cloud/esmodel/internal/engine"

// Engine is the part of the engine contract a model uses.
type Engine interface {
	engine.IndexManager
	engine.Searcher
	engine.DocumentStore
	engine.Bulker
}
