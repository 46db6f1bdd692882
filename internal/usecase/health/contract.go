package health

import "context"

// EnginePinger checks search engine availability.
type EnginePinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker reports whether an index exists.
type IndexChecker interface {
	IndexExists(ctx context.Context, index string) (bool, error)
}
