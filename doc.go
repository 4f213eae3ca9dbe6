// Package pariah is a client for a document search engine built around an
// immutable query builder.
//
// A Dataset describes a query: target indices and types, a filter, sort and
// paging. Every builder method returns a new Dataset and never alters its
// receiver, so datasets can be shared freely between goroutines.
//
//	client, _ := pariah.New(ctx, pariah.WithURL("http://localhost:9200"))
//	posts := client.Index("posts").Term("author", "alice").Size(20)
//	n, _ := posts.Count(ctx)
//	for doc, err := range posts.Sort(pariah.SortDesc("created_at")).Each(ctx) {
//	    ...
//	}
//
// # Zero-downtime reindex
//
// RewriteIndex rebuilds an index behind an alias. A new physical index named
// "<alias>-<timestamp>" is created and populated, then the alias is moved to
// it in one atomic update:
//
//	_, err := client.Index("posts").RewriteIndex(ctx,
//	    func(ctx context.Context, ds *pariah.Dataset) error {
//	        return ds.BulkIndex(ctx, docs)
//	    })
//
// If populate fails the partial index is dropped (or kept with
// KeepProgressOnError, to be resumed later with WithIndexName) and the alias
// is left untouched.
package pariah
