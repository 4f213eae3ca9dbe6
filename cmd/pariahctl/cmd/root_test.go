package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/pariah/internal/db/elastic/enginetest"
	"github.com/kailas-cloud/pariah/internal/version"
)

func newEngine(t *testing.T) *enginetest.Engine {
	t.Helper()
	eng := enginetest.New()
	t.Cleanup(eng.Close)
	return eng
}

func seed(eng *enginetest.Engine) {
	eng.Put("posts", "1", map[string]any{"id": "1", "title": "a", "lang": "go", "views": 3.0})
	eng.Put("posts", "2", map[string]any{"id": "2", "title": "b", "lang": "go", "views": 1.0})
	eng.Put("posts", "3", map[string]any{"id": "3", "title": "c", "lang": "rust", "views": 2.0})
}

func run(t *testing.T, eng *enginetest.Engine, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	if eng != nil {
		args = append([]string{"--url", eng.URL}, args...)
	}
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRoot_HasSubcommands(t *testing.T) {
	// Given: the root command
	root := NewRootCmd()

	// Then: every subcommand is registered
	for _, name := range []string{"count", "search", "indices", "aliases", "reindex", "version"} {
		found, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, found.Name())
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, nil, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "pariahctl")
	assert.Contains(t, out, version.Version)
}

func TestCountCmd(t *testing.T) {
	// Given: an engine with three posts
	eng := newEngine(t)
	seed(eng)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"all", []string{"count", "posts"}, "3"},
		{"term", []string{"count", "posts", "--term", "lang:go"}, "2"},
		{"two terms", []string{"count", "posts", "-t", "lang:go", "-t", "views:3"}, "1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// When: counting
			out, err := run(t, eng, tc.args...)

			// Then: the count is printed
			require.NoError(t, err)
			assert.Equal(t, tc.want, strings.TrimSpace(out))
		})
	}
}

func TestCountCmd_BadTerm(t *testing.T) {
	eng := newEngine(t)

	_, err := run(t, eng, "count", "posts", "--term", "nocolon")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--term")
}

func TestCountCmd_MissingIndex(t *testing.T) {
	eng := newEngine(t)

	_, err := run(t, eng, "count", "nope")

	require.Error(t, err)
}

func TestSearchCmd_NDJSON(t *testing.T) {
	// Given: three posts
	eng := newEngine(t)
	seed(eng)

	// When: searching sorted by views, descending
	out, err := run(t, eng, "search", "posts", "--sort", "views:desc", "-n", "2")

	// Then: one JSON document per line, in sort order
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"title":"a"`)
	assert.Contains(t, lines[1], `"title":"c"`)
}

func TestSearchCmd_BadSort(t *testing.T) {
	_, err := run(t, newEngine(t), "search", "posts", "--sort", "views:up")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--sort")
}

func TestIndicesAndAliasesCmd(t *testing.T) {
	// Given: posts rebuilt behind an alias
	eng := newEngine(t)
	seed(eng)
	_, err := run(t, eng, "reindex", "articles", "--from", "posts")
	require.NoError(t, err)
	holders := eng.AliasHolders("articles")
	require.Len(t, holders, 1)

	// When: listing indices
	out, err := run(t, eng, "indices", "articles-*")

	// Then: the physical index is listed with its document count
	require.NoError(t, err)
	assert.Contains(t, out, "INDEX")
	assert.Contains(t, out, holders[0])

	// When: listing aliases of the alias
	out, err = run(t, eng, "aliases", "articles")

	// Then: the physical index holds the alias
	require.NoError(t, err)
	assert.Equal(t, holders[0]+": articles", strings.TrimSpace(out))
}

func TestReindexCmd_CopiesInPages(t *testing.T) {
	// Given: three posts and a batch smaller than the source
	eng := newEngine(t)
	seed(eng)

	// When: reindexing with a filter and upsert ids
	out, err := run(t, eng, "reindex", "golang", "--from", "posts", "--batch", "1", "--upsert", "-t", "lang:go")

	// Then: only matching documents reach the new index, under their own ids
	require.NoError(t, err)
	assert.Contains(t, out, "(2 documents)")
	count, err := run(t, eng, "count", "golang")
	require.NoError(t, err)
	assert.Equal(t, "2", strings.TrimSpace(count))
	ids, err := run(t, eng, "count", "golang", "-t", `id:"2"`)
	require.NoError(t, err)
	assert.Equal(t, "1", strings.TrimSpace(ids))
}

func TestReindexCmd_Schema(t *testing.T) {
	// Given: a schema file
	eng := newEngine(t)
	seed(eng)
	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"settings":{"number_of_shards":1}}`), 0o600))

	// When: reindexing with it
	_, err := run(t, eng, "reindex", "articles", "--from", "posts", "--schema", path)

	// Then: the new index carries the settings
	require.NoError(t, err)
	holders := eng.AliasHolders("articles")
	require.Len(t, holders, 1)
	assert.EqualValues(t, 1, eng.Settings(holders[0])["number_of_shards"])
}

func TestReindexCmd_Validation(t *testing.T) {
	eng := newEngine(t)

	_, err := run(t, eng, "reindex", "articles")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--from")

	_, err = run(t, eng, "reindex", "articles", "--from", "posts", "--batch", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--batch")

	_, err = run(t, eng, "reindex", "articles", "--from", "posts", "--schema", "/does/not/exist.json")
	require.Error(t, err)
}

func TestReindexCmd_MissingSourceLeavesAliasAlone(t *testing.T) {
	// Given: no source index
	eng := newEngine(t)

	// When: reindexing from it
	_, err := run(t, eng, "reindex", "articles", "--from", "nope")

	// Then: the error surfaces and nothing holds the alias
	require.Error(t, err)
	assert.Empty(t, eng.AliasHolders("articles"))
	for _, idx := range eng.Indices() {
		assert.False(t, strings.HasPrefix(idx, "articles-"), "partial index %s left behind", idx)
	}
}
