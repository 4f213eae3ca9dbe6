package health

import (
	"context"

	"github.com/kailas-cloud/pariah/internal/db"
)

// ClusterReporter reports the engine's cluster health.
type ClusterReporter interface {
	ClusterHealth(ctx context.Context) (db.ClusterHealth, error)
}
