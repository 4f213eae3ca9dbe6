package pariah

import (
	"context"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pariah/internal/domain/document"
	"github.com/kailas-cloud/pariah/internal/domain/search/query"
)

// Count returns the number of matching documents. Sort, size and from are
// ignored.
func (d *Dataset) Count(ctx context.Context) (_ int, err error) {
	start := time.Now()
	defer func() { d.observe("dataset.count", start, err) }()

	if err = d.bound(); err != nil {
		return 0, err
	}
	req := query.CompileCount(d.opts)
	n, err := d.client.store.Count(ctx, req.Path, req.Body)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// All runs the search and returns the hits' documents in engine order.
func (d *Dataset) All(ctx context.Context) (_ []Document, err error) {
	start := time.Now()
	defer func() { d.observe("dataset.all", start, err) }()

	return d.search(ctx)
}

// Each returns a lazy sequence over the hits. The search runs when the
// sequence is iterated, once per iteration; a failed search yields a single
// error.
func (d *Dataset) Each(ctx context.Context) iter.Seq2[Document, error] {
	return func(yield func(Document, error) bool) {
		start := time.Now()
		docs, err := d.search(ctx)
		d.observe("dataset.each", start, err)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, doc := range docs {
			if !yield(doc, nil) {
				return
			}
		}
	}
}

// Load runs the search and returns a copy of d holding the results.
func (d *Dataset) Load(ctx context.Context) (_ *Dataset, err error) {
	start := time.Now()
	defer func() { d.observe("dataset.load", start, err) }()

	docs, err := d.search(ctx)
	if err != nil {
		return nil, err
	}
	return &Dataset{client: d.client, opts: d.opts.Clone(), results: docs, loaded: true}, nil
}

// bound reports ErrUnboundDataset for datasets not created by a Client.
func (d *Dataset) bound() error {
	if d.client == nil {
		return ErrUnboundDataset
	}
	return nil
}

// observe records op with the dataset's index path.
func (d *Dataset) observe(op string, start time.Time, err error) {
	if d.client == nil {
		return
	}
	d.client.obs.observe(op, start, err, zap.String("path", d.indexPath()))
}

func (d *Dataset) search(ctx context.Context) ([]Document, error) {
	if err := d.bound(); err != nil {
		return nil, err
	}
	req := query.Compile(d.opts)
	res, err := d.client.store.Search(ctx, req.Path, req.Body)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	docs := make([]Document, 0, len(res.Hits))
	for _, h := range res.Hits {
		docs = append(docs, h.Source)
	}
	return docs, nil
}

// BulkIndex writes docs to the single target index in one bulk request.
// The engine assigns document ids.
func (d *Dataset) BulkIndex(ctx context.Context, docs []Document) (err error) {
	start := time.Now()
	defer func() { d.observe("dataset.bulk_index", start, err) }()

	return d.bulk(ctx, docs, document.BulkOptions{})
}

// Upsert writes docs like BulkIndex, taking each document's id from its "id"
// field so that an existing document with that id is replaced.
func (d *Dataset) Upsert(ctx context.Context, docs []Document) (err error) {
	start := time.Now()
	defer func() { d.observe("dataset.upsert", start, err) }()

	return d.bulk(ctx, docs, document.BulkOptions{IDField: document.DefaultIDField})
}

func (d *Dataset) bulk(ctx context.Context, docs []Document, opts document.BulkOptions) error {
	if err := d.bound(); err != nil {
		return err
	}
	idx, err := d.SingleIndex()
	if err != nil {
		return err
	}
	typ, err := d.singleType()
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	body, err := document.EncodeBulk(document.Target{Index: idx, Type: typ}, docs, opts)
	if err != nil {
		return fmt.Errorf("encode bulk: %w", err)
	}
	res, err := d.client.store.Bulk(ctx, body)
	if err != nil {
		return fmt.Errorf("bulk %s: %w", idx, err)
	}
	if res.Errors {
		d.client.obs.zapLogger().Warn("bulk reported item errors",
			zap.String("index", idx),
			zap.Int("docs", len(docs)),
		)
	}
	return nil
}

// Refresh makes prior writes to the target indices visible to search.
func (d *Dataset) Refresh(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { d.observe("dataset.refresh", start, err) }()

	if err = d.bound(); err != nil {
		return err
	}
	if err = d.client.store.Refresh(ctx, d.indexPath()); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	return nil
}

// CreateIndex creates the single target index with the dataset's schema.
func (d *Dataset) CreateIndex(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { d.observe("dataset.create_index", start, err) }()

	if err = d.bound(); err != nil {
		return err
	}
	name, err := d.SingleIndex()
	if err != nil {
		return err
	}
	schema, _ := d.opts.Schema.Get()
	if err = d.client.store.CreateIndex(ctx, name, schema); err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

// DropIndex deletes the single target index.
func (d *Dataset) DropIndex(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { d.observe("dataset.drop_index", start, err) }()

	if err = d.bound(); err != nil {
		return err
	}
	name, err := d.SingleIndex()
	if err != nil {
		return err
	}
	if err = d.client.store.DropIndex(ctx, name); err != nil {
		return fmt.Errorf("drop index %s: %w", name, err)
	}
	return nil
}

// IndexExists reports whether the single target index or alias exists.
func (d *Dataset) IndexExists(ctx context.Context) (_ bool, err error) {
	start := time.Now()
	defer func() { d.observe("dataset.index_exists", start, err) }()

	if err = d.bound(); err != nil {
		return false, err
	}
	name, err := d.SingleIndex()
	if err != nil {
		return false, err
	}
	ok, err := d.client.store.IndexExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("index exists %s: %w", name, err)
	}
	return ok, nil
}
