package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the engine answers but declared indexes are missing.
	Degraded Status = "degraded"
	// Unhealthy indicates the engine is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckMissing indicates a declared index that does not exist.
	CheckMissing CheckResult = "missing"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	engine  EnginePinger
	indexes IndexChecker
	names   func() []string
}

// New creates a Service. indexes can be nil; names lists the indexes to check.
func New(engine EnginePinger, indexes IndexChecker, names func() []string) *Service {
	return &Service{engine: engine, indexes: indexes, names: names}
}

// Check pings the engine, then checks each declared index.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.engine.Ping(ctx); err != nil {
		checks["engine"] = CheckError
		return Report{Status: Unhealthy, Checks: checks}
	}
	checks["engine"] = CheckOK

	status := Healthy
	if s.indexes != nil && s.names != nil {
		for _, name := range s.names() {
			key := "index:" + name
			ok, err := s.indexes.IndexExists(ctx, name)
			switch {
			case err != nil:
				checks[key] = CheckError
				status = Degraded
			case !ok:
				checks[key] = CheckMissing
				status = Degraded
			default:
				checks[key] = CheckOK
			}
		}
	}

	return Report{Status: status, Checks: checks}
}
