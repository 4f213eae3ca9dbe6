package rewrite

import (
	"context"

	"github.com/kailas-cloud/pariah/internal/db"
	"github.com/kailas-cloud/pariah/internal/domain/index"
)

// Store is the subset of engine operations the rewriter drives.
type Store interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, name string, schema index.Schema) error
	DropIndex(ctx context.Context, name string) error
	AliasHolders(ctx context.Context, alias string) ([]string, error)
	UpdateAliases(ctx context.Context, actions []db.AliasAction) error
}

// PopulateFunc fills the physical index. Any error aborts the rewrite.
type PopulateFunc func(ctx context.Context, physical string) error
