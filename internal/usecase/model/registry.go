package model

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kailas-cloud/esmodel/internal/domain/schema"
)

// Registry resolves model services by index name.
type Registry struct {
	mu         sync.RWMutex
	engine     Engine
	strictBulk bool
	models     map[string]*Service
}

// NewRegistry creates an empty registry over eng.
func NewRegistry(eng Engine, strictBulk bool) *Registry {
	return &Registry{engine: eng, strictBulk: strictBulk, models: make(map[string]*Service)}
}

// Register adds a model; a later registration for the same index replaces it.
func (r *Registry) Register(s schema.Schema) *Service {
	svc := New(r.engine, s).WithStrictBulk(r.strictBulk)
	r.mu.Lock()
	r.models[s.Index()] = svc
	r.mu.Unlock()
	return svc
}

// For returns the registered model for index, or an empty-schema model.
func (r *Registry) For(index string) (*Service, error) {
	r.mu.RLock()
	svc, ok := r.models[index]
	r.mu.RUnlock()
	if ok {
		return svc, nil
	}
	s, err := schema.New(schema.Definition{Name: index, Index: index})
	if err != nil {
		return nil, fmt.Errorf("resolve model %q: %w", index, err)
	}
	return New(r.engine, s).WithStrictBulk(r.strictBulk), nil
}

// Indexes lists the registered index names, sorted.
func (r *Registry) Indexes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.models))
	for name := range r.models {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
