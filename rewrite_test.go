package pariah

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/kailas-cloud/pariah/internal/domain/index"
)

const rewriteAlias = "pariah_index_1"

func insertDocs(docs ...Document) PopulateFunc {
	return func(ctx context.Context, ds *Dataset) error {
		return ds.Upsert(ctx, docs)
	}
}

func failAfter(err error, docs ...Document) PopulateFunc {
	return func(ctx context.Context, ds *Dataset) error {
		if werr := ds.Upsert(ctx, docs); werr != nil {
			return werr
		}
		return err
	}
}

func countVia(t *testing.T, c *Client, name string) int {
	t.Helper()
	ds := c.Index(name)
	if err := ds.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh(%s): %v", name, err)
	}
	n, err := ds.Count(context.Background())
	if err != nil {
		t.Fatalf("Count(%s): %v", name, err)
	}
	return n
}

func physicalIndices(names []string, alias string) []string {
	pattern := index.PhysicalPattern(alias)
	var out []string
	for _, n := range names {
		if pattern.MatchString(n) {
			out = append(out, n)
		}
	}
	return out
}

func TestRewriteIndex_Success(t *testing.T) {
	c, eng := newTestClient(t)
	ctx := context.Background()

	ok, err := c.Index(rewriteAlias).RewriteIndex(ctx, insertDocs(
		Document{"id": "1", "title": "Title 1"},
		Document{"id": "2", "title": "Title 2"},
	))
	if err != nil {
		t.Fatalf("RewriteIndex: %v", err)
	}
	if !ok {
		t.Fatal("RewriteIndex returned false")
	}

	physical := physicalIndices(eng.Indices(), rewriteAlias)
	if len(physical) != 1 {
		t.Fatalf("expected exactly one physical index, got %v", eng.Indices())
	}
	if got := eng.AliasHolders(rewriteAlias); !reflect.DeepEqual(got, physical) {
		t.Errorf("alias holders = %v, want %v", got, physical)
	}
	if n := countVia(t, c, rewriteAlias); n != 2 {
		t.Errorf("Count via alias = %d, want 2", n)
	}
}

func TestRewriteIndex_FailureDropsProgress(t *testing.T) {
	c, eng := newTestClient(t)
	ctx := context.Background()
	boom := errors.New("populate failed")

	_, err := c.Index(rewriteAlias).RewriteIndex(ctx, failAfter(boom,
		Document{"id": "1", "title": "Title 1"},
		Document{"id": "2", "title": "Title 2"},
	))
	if err != boom {
		t.Fatalf("expected the populate error itself, got %v", err)
	}
	if got := eng.Indices(); len(got) != 0 {
		t.Errorf("orphaned indices: %v", got)
	}
	if got := eng.AliasHolders(rewriteAlias); len(got) != 0 {
		t.Errorf("alias changed: %v", got)
	}
}

func TestRewriteIndex_FailureLeavesPriorStateIntact(t *testing.T) {
	c, eng := newTestClient(t)
	ctx := context.Background()
	ds := c.Index(rewriteAlias)

	if _, err := ds.RewriteIndex(ctx, insertDocs(Document{"id": "1"})); err != nil {
		t.Fatalf("initial RewriteIndex: %v", err)
	}
	indicesBefore := eng.Indices()
	holdersBefore := eng.AliasHolders(rewriteAlias)
	countBefore := countVia(t, c, rewriteAlias)

	boom := errors.New("boom")
	if _, err := ds.RewriteIndex(ctx, failAfter(boom, Document{"id": "2"}, Document{"id": "3"})); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if got := eng.Indices(); !reflect.DeepEqual(got, indicesBefore) {
		t.Errorf("indices = %v, want %v", got, indicesBefore)
	}
	if got := eng.AliasHolders(rewriteAlias); !reflect.DeepEqual(got, holdersBefore) {
		t.Errorf("holders = %v, want %v", got, holdersBefore)
	}
	if n := countVia(t, c, rewriteAlias); n != countBefore {
		t.Errorf("Count = %d, want %d", n, countBefore)
	}
}

func TestRewriteIndex_PreserveAndResume(t *testing.T) {
	c, eng := newTestClient(t)
	ctx := context.Background()
	ds := c.Index(rewriteAlias)
	boom := errors.New("interrupted")

	var physical string
	_, err := ds.RewriteIndex(ctx, func(ctx context.Context, scoped *Dataset) error {
		physical, _ = scoped.SingleIndex()
		if err := scoped.Upsert(ctx, []Document{{"id": "1"}, {"id": "2"}}); err != nil {
			return err
		}
		return boom
	}, KeepProgressOnError())
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if !index.PhysicalPattern(rewriteAlias).MatchString(physical) {
		t.Fatalf("unexpected physical name %q", physical)
	}
	if got := eng.Indices(); !reflect.DeepEqual(got, []string{physical}) {
		t.Fatalf("preserved indices = %v", got)
	}
	if got := eng.AliasHolders(rewriteAlias); len(got) != 0 {
		t.Errorf("alias changed on failure: %v", got)
	}
	if n := countVia(t, c, physical); n != 2 {
		t.Errorf("preserved Count = %d, want 2", n)
	}

	mark := len(eng.Requests())
	ok, err := ds.RewriteIndex(ctx, insertDocs(Document{"id": "3"}), WithIndexName(physical))
	if err != nil || !ok {
		t.Fatalf("resume = %v, %v", ok, err)
	}
	for _, r := range eng.Requests()[mark:] {
		if r == "PUT /"+physical {
			t.Error("resume must not re-create the index")
		}
	}

	if got := eng.AliasHolders(rewriteAlias); !reflect.DeepEqual(got, []string{physical}) {
		t.Errorf("alias holders = %v, want [%s]", got, physical)
	}
	if n := countVia(t, c, rewriteAlias); n != 3 {
		t.Errorf("Count via alias = %d, want 3", n)
	}
}

func TestRewriteIndex_ResumeFailureKeepsLiveIndex(t *testing.T) {
	c, eng := newTestClient(t)
	ctx := context.Background()

	if _, err := c.Index(rewriteAlias).RewriteIndex(ctx, insertDocs(
		Document{"id": "1", "title": "Title 1"},
		Document{"id": "2", "title": "Title 2"},
	)); err != nil {
		t.Fatalf("RewriteIndex: %v", err)
	}
	live := physicalIndices(eng.Indices(), rewriteAlias)
	if len(live) != 1 {
		t.Fatalf("expected one physical index, got %v", eng.Indices())
	}

	boom := errors.New("boom")
	ok, err := c.Index(rewriteAlias).RewriteIndex(ctx,
		failAfter(boom, Document{"id": "3", "title": "Title 3"}),
		WithIndexName(live[0]))
	if err != boom {
		t.Fatalf("expected the populate error itself, got %v", err)
	}
	if ok {
		t.Error("RewriteIndex returned true on failure")
	}

	if got := physicalIndices(eng.Indices(), rewriteAlias); !reflect.DeepEqual(got, live) {
		t.Errorf("indices after failed resume = %v, want %v", got, live)
	}
	if got := eng.AliasHolders(rewriteAlias); !reflect.DeepEqual(got, live) {
		t.Errorf("alias holders after failed resume = %v, want %v", got, live)
	}
	// Writes made before the failure stay in the resumed index.
	if n := countVia(t, c, rewriteAlias); n != 3 {
		t.Errorf("Count via alias = %d, want 3", n)
	}
}

func TestRewriteIndex_SwapsFromPreviousIndex(t *testing.T) {
	c, eng := newTestClient(t)
	ctx := context.Background()
	ds := c.Index(rewriteAlias)

	if _, err := ds.RewriteIndex(ctx, insertDocs(Document{"id": "old"})); err != nil {
		t.Fatalf("first RewriteIndex: %v", err)
	}
	first := eng.AliasHolders(rewriteAlias)

	if _, err := ds.RewriteIndex(ctx, insertDocs(Document{"id": "a"}, Document{"id": "b"})); err != nil {
		t.Fatalf("second RewriteIndex: %v", err)
	}
	second := eng.AliasHolders(rewriteAlias)

	if len(second) != 1 || reflect.DeepEqual(first, second) {
		t.Fatalf("alias not moved: first %v, second %v", first, second)
	}
	if n := countVia(t, c, rewriteAlias); n != 2 {
		t.Errorf("Count via alias = %d, want 2", n)
	}

	swaps := 0
	for _, r := range eng.Requests() {
		if r == "POST /_aliases" {
			swaps++
		}
	}
	if swaps != 2 {
		t.Errorf("expected one alias update per rewrite, got %d", swaps)
	}
}

func TestRewriteIndex_ReplacesConcreteIndex(t *testing.T) {
	c, eng := newTestClient(t)
	ctx := context.Background()
	eng.Put(rewriteAlias, "legacy", map[string]any{"title": "legacy"})

	if _, err := c.Index(rewriteAlias).RewriteIndex(ctx, insertDocs(Document{"id": "1"})); err != nil {
		t.Fatalf("RewriteIndex: %v", err)
	}
	for _, n := range eng.Indices() {
		if n == rewriteAlias {
			t.Fatal("concrete index with the alias name still exists")
		}
	}
	if got := eng.AliasHolders(rewriteAlias); len(got) != 1 {
		t.Errorf("alias holders = %v", got)
	}
}

func TestRewriteIndex_SchemaAndScope(t *testing.T) {
	c, eng := newTestClient(t)
	ctx := context.Background()
	schema := Schema{Settings: map[string]any{"number_of_replicas": 0}}

	var scopedQuery Query
	ds := c.Index(rewriteAlias).WithSchema(schema).Term("ignored", true).Size(1)
	_, err := ds.RewriteIndex(ctx, func(_ context.Context, scoped *Dataset) error {
		scopedQuery = scoped.ToQuery()
		return nil
	})
	if err != nil {
		t.Fatalf("RewriteIndex: %v", err)
	}

	if !strings.HasPrefix(scopedQuery.Path, rewriteAlias+"-") {
		t.Errorf("populate dataset path = %q", scopedQuery.Path)
	}
	if len(scopedQuery.Body) != 0 {
		t.Errorf("populate dataset must not inherit filters or paging: %v", scopedQuery.Body)
	}
	if got := eng.Settings(scopedQuery.Path)["number_of_replicas"]; got != float64(0) {
		t.Errorf("schema not applied, settings = %v", eng.Settings(scopedQuery.Path))
	}
}

func TestRewriteIndex_SchemaOverride(t *testing.T) {
	c, eng := newTestClient(t)
	ctx := context.Background()

	var physical string
	_, err := c.Index(rewriteAlias).
		WithSchema(Schema{Settings: map[string]any{"number_of_shards": 5}}).
		RewriteIndex(ctx, func(_ context.Context, scoped *Dataset) error {
			physical, _ = scoped.SingleIndex()
			return nil
		}, WithRewriteSchema(Schema{Settings: map[string]any{"number_of_shards": 1}}))
	if err != nil {
		t.Fatalf("RewriteIndex: %v", err)
	}
	if got := eng.Settings(physical)["number_of_shards"]; got != float64(1) {
		t.Errorf("override not applied, got %v", got)
	}
}

func TestRewriteIndex_PanicCleansUp(t *testing.T) {
	c, eng := newTestClient(t)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_, _ = c.Index(rewriteAlias).RewriteIndex(context.Background(), func(context.Context, *Dataset) error {
			panic("populate bug")
		})
	}()

	if got := eng.Indices(); len(got) != 0 {
		t.Errorf("orphaned indices after panic: %v", got)
	}
}

func TestRewriteIndex_NeedsSingleIndex(t *testing.T) {
	c, _ := newTestClient(t)
	called := false
	_, err := c.Index("a", "b").RewriteIndex(context.Background(), func(context.Context, *Dataset) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrNotSingleIndex) {
		t.Fatalf("expected ErrNotSingleIndex, got %v", err)
	}
	if called {
		t.Error("populate must not run")
	}
}
