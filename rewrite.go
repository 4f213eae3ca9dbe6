package pariah

import (
	"context"
	"time"

	"github.com/kailas-cloud/pariah/internal/domain/search/query"
	"github.com/kailas-cloud/pariah/internal/usecase/rewrite"
)

// RewriteOption configures RewriteIndex.
type RewriteOption interface {
	applyRewrite(*rewriteConfig)
}

type rewriteOptionFunc func(*rewriteConfig)

func (f rewriteOptionFunc) applyRewrite(c *rewriteConfig) { f(c) }

type rewriteConfig struct {
	indexName    string
	keepProgress bool
	schema       *Schema
}

// WithIndexName resumes a rewrite into an existing physical index instead of
// generating a new one. Index creation is skipped if it already exists, and
// an index that existed before the call is never dropped on failure.
func WithIndexName(name string) RewriteOption {
	return rewriteOptionFunc(func(c *rewriteConfig) {
		c.indexName = name
	})
}

// KeepProgressOnError keeps the partially populated index when populate
// fails, so it can be resumed with WithIndexName.
func KeepProgressOnError() RewriteOption {
	return rewriteOptionFunc(func(c *rewriteConfig) {
		c.keepProgress = true
	})
}

// WithRewriteSchema overrides the dataset's schema for the new index.
func WithRewriteSchema(s Schema) RewriteOption {
	return rewriteOptionFunc(func(c *rewriteConfig) {
		c.schema = &s
	})
}

// PopulateFunc fills a new physical index through a dataset scoped to it.
type PopulateFunc func(ctx context.Context, ds *Dataset) error

// RewriteIndex rebuilds the dataset's single index, used as the alias name,
// behind a fresh physical index, then atomically points the alias at it.
//
// populate receives a dataset targeting only the physical index (its name is
// available via SingleIndex) and carrying the receiver's types and schema.
// If populate returns an error, an index created by this call is dropped, or
// kept under KeepProgressOnError, and that same error is returned; the alias
// is not changed. Concurrent rewrites of one alias are not coordinated: the last
// alias update wins.
func (d *Dataset) RewriteIndex(ctx context.Context, populate PopulateFunc, opts ...RewriteOption) (_ bool, err error) {
	start := time.Now()
	defer func() { d.observe("dataset.rewrite_index", start, err) }()

	if err = d.bound(); err != nil {
		return false, err
	}
	alias, err := d.SingleIndex()
	if err != nil {
		return false, err
	}

	cfg := &rewriteConfig{}
	for _, o := range opts {
		o.applyRewrite(cfg)
	}
	schema, _ := d.opts.Schema.Get()
	if cfg.schema != nil {
		schema = *cfg.schema
	}

	params := rewrite.Params{
		Alias:               alias,
		Schema:              schema,
		IndexName:           cfg.indexName,
		KeepProgressOnError: cfg.keepProgress,
	}
	_, err = d.client.rewriter.Run(ctx, params, func(ctx context.Context, physical string) error {
		return populate(ctx, d.scopedTo(physical, schema))
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// scopedTo returns a dataset over the physical index only, dropping filters,
// sort and paging.
func (d *Dataset) scopedTo(physical string, schema Schema) *Dataset {
	opts := query.Opts{
		Indices: query.Some([]string{physical}),
		Schema:  query.Some(schema),
	}
	if types, ok := d.opts.Types.Get(); ok {
		opts.Types = query.Some(types)
	}
	return &Dataset{client: d.client, opts: query.Opts{}.Replace(opts)}
}
