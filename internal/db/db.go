package db

import (
	"context"

	"github.com/kailas-cloud/pariah/internal/domain/document"
	"github.com/kailas-cloud/pariah/internal/domain/index"
)

// Store is the search engine facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	TemplateInstaller
	IndexManager
	AliasManager
	BulkWriter
	Searcher
	Close()
}

// ClusterHealth is the engine's own view of cluster health.
type ClusterHealth struct {
	ClusterName   string
	Status        string // green, yellow or red
	NumberOfNodes int
}

// Pinger checks cluster health.
type Pinger interface {
	// Ping fails unless the engine answers and the cluster is not red.
	Ping(ctx context.Context) error
	ClusterHealth(ctx context.Context) (ClusterHealth, error)
}

// TemplateInstaller installs index templates.
type TemplateInstaller interface {
	PutTemplate(ctx context.Context, name string, body map[string]any) error
}

// IndexInfo is one row of the engine's index listing.
type IndexInfo struct {
	Name      string
	Health    string
	Status    string
	DocsCount int
}

// IndexManager provides physical index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, name string, schema index.Schema) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	Refresh(ctx context.Context, indexPath string) error
	CatIndices(ctx context.Context, pattern string) ([]IndexInfo, error)
}

// AliasActionType enumerates the actions of an atomic alias update.
type AliasActionType string

const (
	// AliasAdd points an alias at an index.
	AliasAdd AliasActionType = "add"
	// AliasRemove detaches an alias from an index.
	AliasRemove AliasActionType = "remove"
	// AliasRemoveIndex deletes a concrete index as part of the update.
	AliasRemoveIndex AliasActionType = "remove_index"
)

// AliasAction is a single step of an atomic alias update.
type AliasAction struct {
	Type  AliasActionType
	Index string
	Alias string // empty for AliasRemoveIndex
}

// AliasManager reads and atomically updates aliases.
type AliasManager interface {
	// Aliases returns, for every concrete index matched by indexPath, the
	// names of the aliases it carries.
	Aliases(ctx context.Context, indexPath string) (map[string][]string, error)
	// AliasHolders returns the indices currently carrying alias (none if unknown).
	AliasHolders(ctx context.Context, alias string) ([]string, error)
	// UpdateAliases applies all actions in one indivisible engine operation.
	UpdateAliases(ctx context.Context, actions []AliasAction) error
}

// BulkResult is the summary of a bulk write. Per-item outcomes are not decoded.
type BulkResult struct {
	Took   int
	Errors bool
}

// BulkWriter sends newline-delimited bulk bodies.
type BulkWriter interface {
	Bulk(ctx context.Context, body []byte) (BulkResult, error)
}

// SearchHit is a single document hit.
type SearchHit struct {
	Index  string
	Type   string
	ID     string
	Score  float64
	Source document.Document
}

// SearchResult is the output of a search request.
type SearchResult struct {
	Total int
	Hits  []SearchHit
}

// Searcher runs compiled queries.
type Searcher interface {
	Search(ctx context.Context, path string, body map[string]any) (*SearchResult, error)
	Count(ctx context.Context, path string, body map[string]any) (int, error)
}
