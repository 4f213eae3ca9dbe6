package health

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/pariah/internal/db"
)

// --- Mocks ---

type mockReporter struct {
	status string
	err    error
}

func (m *mockReporter) ClusterHealth(_ context.Context) (db.ClusterHealth, error) {
	if m.err != nil {
		return db.ClusterHealth{}, m.err
	}
	return db.ClusterHealth{Status: m.status}, nil
}

// --- Tests ---

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		engine *mockReporter
		status Status
		check  CheckResult
	}{
		{"green", &mockReporter{status: "green"}, Healthy, CheckOK},
		{"yellow", &mockReporter{status: "yellow"}, Degraded, CheckWarn},
		{"red", &mockReporter{status: "red"}, Unhealthy, CheckError},
		{"unreachable", &mockReporter{err: errors.New("connection refused")}, Unhealthy, CheckError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := New(tc.engine).Check(context.Background())
			if r.Status != tc.status {
				t.Errorf("expected %q, got %q", tc.status, r.Status)
			}
			if r.Checks["engine"] != tc.check {
				t.Errorf("expected engine %q, got %q", tc.check, r.Checks["engine"])
			}
		})
	}
}

func TestCheck_ReportsClusterStatus(t *testing.T) {
	r := New(&mockReporter{status: "yellow"}).Check(context.Background())
	if r.Cluster != "yellow" {
		t.Errorf("expected cluster %q, got %q", "yellow", r.Cluster)
	}

	r = New(&mockReporter{err: errors.New("down")}).Check(context.Background())
	if r.Cluster != "" {
		t.Errorf("expected empty cluster status, got %q", r.Cluster)
	}
}
