package health

import (
	"context"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the engine serves requests with reduced redundancy.
	Degraded Status = "degraded"
	// Unhealthy indicates the engine is unreachable or red.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckWarn indicates a check that passes with reduced guarantees.
	CheckWarn CheckResult = "warn"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status  Status
	Checks  map[string]CheckResult
	Cluster string // engine cluster status, empty if unreachable
}

// Service coordinates health checks.
type Service struct {
	engine ClusterReporter
}

// New creates a Service.
func New(engine ClusterReporter) *Service {
	return &Service{engine: engine}
}

// Check maps cluster health onto a report: green is ok, yellow is degraded,
// red or unreachable is an error.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	health, err := s.engine.ClusterHealth(ctx)
	switch {
	case err != nil:
		checks["engine"] = CheckError
	case health.Status == "green":
		checks["engine"] = CheckOK
	case health.Status == "yellow":
		checks["engine"] = CheckWarn
	default:
		checks["engine"] = CheckError
	}

	status := Healthy
	for _, v := range checks {
		switch v {
		case CheckError:
			status = Unhealthy
		case CheckWarn:
			if status == Healthy {
				status = Degraded
			}
		}
	}

	return Report{Status: status, Checks: checks, Cluster: health.Status}
}
