// Package enginetest provides an in-memory search engine speaking the subset
// of the HTTP API used by the elastic store. Writes become visible to search
// only after a refresh, as on a real cluster.
package enginetest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Engine is a fake engine behind an httptest.Server.
type Engine struct {
	URL string

	srv *httptest.Server

	mu        sync.Mutex
	health    string
	templates map[string]map[string]any
	indices   map[string]*fakeIndex
	seq       int
	autoID    int
	requests  []string
}

type storedDoc struct {
	Type   string
	ID     string
	Source map[string]any
	seq    int
}

type fakeIndex struct {
	Settings map[string]any
	Mappings map[string]any
	aliases  map[string]bool
	visible  map[string]storedDoc
	pending  []storedDoc
}

// New starts an engine. Call Close when done.
func New() *Engine {
	e := &Engine{
		health:    "green",
		templates: make(map[string]map[string]any),
		indices:   make(map[string]*fakeIndex),
	}
	e.srv = httptest.NewServer(e.routes())
	e.URL = e.srv.URL
	return e
}

// Close shuts the server down.
func (e *Engine) Close() { e.srv.Close() }

// SetHealth sets the cluster status reported by _cluster/health.
func (e *Engine) SetHealth(status string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.health = status
}

// Template returns an installed template body, or nil.
func (e *Engine) Template(name string) map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.templates[name]
}

// Indices returns the physical index names, sorted.
func (e *Engine) Indices() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sortedNames()
}

// AliasHolders returns the indices carrying alias, sorted.
func (e *Engine) AliasHolders(alias string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.holders(alias)
}

// Settings returns the settings an index was created with.
func (e *Engine) Settings(index string) map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	if idx, ok := e.indices[index]; ok {
		return idx.Settings
	}
	return nil
}

// Requests returns every request received, as "METHOD /path".
func (e *Engine) Requests() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.requests...)
}

// Put stores a document directly and refreshes, bypassing the bulk API.
func (e *Engine) Put(index, id string, source map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := e.ensure(index)
	e.seq++
	idx.visible[id] = storedDoc{ID: id, Type: "_doc", Source: source, seq: e.seq}
}

func (e *Engine) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(e.record)

	r.Get("/_cluster/health", e.handleHealth)
	r.Put("/_template/{name}", e.handlePutTemplate)
	r.Get("/_cat/indices/{pattern}", e.handleCat)
	r.Get("/_alias/{name}", e.handleAlias)
	r.Post("/_aliases", e.handleUpdateAliases)
	r.Post("/_bulk", e.handleBulk)

	r.Put("/{index}", e.handleCreate)
	r.Delete("/{index}", e.handleDelete)
	r.Head("/{index}", e.handleExists)
	r.Post("/{index}/_refresh", e.handleRefresh)
	r.Get("/{index}/_aliases", e.handleAliases)
	r.Post("/{index}/_search", e.handleSearch)
	r.Post("/{index}/{types}/_search", e.handleSearch)
	r.Post("/{index}/_count", e.handleCount)
	r.Post("/{index}/{types}/_count", e.handleCount)
	return r
}

func (e *Engine) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.mu.Lock()
		e.requests = append(e.requests, r.Method+" "+r.URL.Path)
		e.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (e *Engine) handleHealth(w http.ResponseWriter, _ *http.Request) {
	e.mu.Lock()
	status := e.health
	e.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"cluster_name": "enginetest", "status": status, "number_of_nodes": 1})
}

func (e *Engine) handlePutTemplate(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if !decodeBody(w, r, &body) {
		return
	}
	e.mu.Lock()
	e.templates[param(r, "name")] = body
	e.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true})
}

func (e *Engine) handleCreate(w http.ResponseWriter, r *http.Request) {
	name := param(r, "index")
	var body struct {
		Settings map[string]any `json:"settings"`
		Mappings map[string]any `json:"mappings"`
	}
	if r.ContentLength != 0 && !decodeBody(w, r, &body) {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.indices[name]; ok {
		writeError(w, http.StatusBadRequest, "resource_already_exists_exception", "index ["+name+"] already exists")
		return
	}
	if len(e.holders(name)) > 0 {
		writeError(w, http.StatusBadRequest, "invalid_index_name_exception", "an alias with the same name already exists")
		return
	}
	idx := e.ensure(name)
	idx.Settings = body.Settings
	idx.Mappings = body.Mappings
	writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true, "index": name})
}

func (e *Engine) handleDelete(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()
	names, missing := e.resolve(param(r, "index"), false)
	if missing != "" {
		writeNotFound(w, missing)
		return
	}
	for _, n := range names {
		delete(e.indices, n)
	}
	writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true})
}

func (e *Engine) handleExists(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, missing := e.resolve(param(r, "index"), false); missing != "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (e *Engine) handleRefresh(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()
	names, missing := e.resolve(param(r, "index"), true)
	if missing != "" {
		writeNotFound(w, missing)
		return
	}
	for _, n := range names {
		idx := e.indices[n]
		for _, d := range idx.pending {
			idx.visible[d.ID] = d
		}
		idx.pending = nil
	}
	writeJSON(w, http.StatusOK, map[string]any{"_shards": map[string]any{"total": len(names), "successful": len(names), "failed": 0}})
}

func (e *Engine) handleCat(w http.ResponseWriter, r *http.Request) {
	pattern := param(r, "pattern")
	e.mu.Lock()
	defer e.mu.Unlock()
	rows := []map[string]any{}
	for _, n := range e.sortedNames() {
		if ok, _ := path.Match(pattern, n); !ok && pattern != n {
			continue
		}
		rows = append(rows, map[string]any{
			"health":     e.health,
			"status":     "open",
			"index":      n,
			"docs.count": fmt.Sprint(len(e.indices[n].visible)),
		})
	}
	writeJSON(w, http.StatusOK, rows)
}

func (e *Engine) handleAliases(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()
	names, missing := e.resolve(param(r, "index"), true)
	if missing != "" {
		writeNotFound(w, missing)
		return
	}
	out := make(map[string]any, len(names))
	for _, n := range names {
		aliases := map[string]any{}
		for a := range e.indices[n].aliases {
			aliases[a] = map[string]any{}
		}
		out[n] = map[string]any{"aliases": aliases}
	}
	writeJSON(w, http.StatusOK, out)
}

func (e *Engine) handleAlias(w http.ResponseWriter, r *http.Request) {
	name := param(r, "name")
	e.mu.Lock()
	defer e.mu.Unlock()
	holders := e.holders(name)
	if len(holders) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "alias [" + name + "] missing", "status": 404})
		return
	}
	out := make(map[string]any, len(holders))
	for _, h := range holders {
		out[h] = map[string]any{"aliases": map[string]any{name: map[string]any{}}}
	}
	writeJSON(w, http.StatusOK, out)
}

func (e *Engine) handleUpdateAliases(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Actions []map[string]struct {
			Index string `json:"index"`
			Alias string `json:"alias"`
		} `json:"actions"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Validate everything first so the update applies all or nothing.
	for _, action := range body.Actions {
		for kind, args := range action {
			switch kind {
			case "add", "remove", "remove_index":
			default:
				writeError(w, http.StatusBadRequest, "parsing_exception", "unknown action ["+kind+"]")
				return
			}
			if _, ok := e.indices[args.Index]; !ok {
				writeNotFound(w, args.Index)
				return
			}
			if kind == "remove" && !e.indices[args.Index].aliases[args.Alias] {
				writeError(w, http.StatusNotFound, "aliases_not_found_exception", "aliases ["+args.Alias+"] missing")
				return
			}
		}
	}
	for _, action := range body.Actions {
		for kind, args := range action {
			switch kind {
			case "add":
				e.indices[args.Index].aliases[args.Alias] = true
			case "remove":
				delete(e.indices[args.Index].aliases, args.Alias)
			case "remove_index":
				delete(e.indices, args.Index)
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true})
}

func (e *Engine) handleBulk(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "parse_exception", err.Error())
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	items := []map[string]any{}
	failed := false
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var meta map[string]struct {
			Index string `json:"_index"`
			Type  string `json:"_type"`
			ID    string `json:"_id"`
		}
		if err := json.Unmarshal(line, &meta); err != nil {
			writeError(w, http.StatusBadRequest, "illegal_argument_exception", "malformed action line")
			return
		}
		args, ok := meta["index"]
		if !ok || len(meta) != 1 {
			writeError(w, http.StatusBadRequest, "illegal_argument_exception", "unsupported bulk action")
			return
		}
		if !sc.Scan() {
			writeError(w, http.StatusBadRequest, "illegal_argument_exception", "missing source line")
			return
		}
		var source map[string]any
		if err := json.Unmarshal(sc.Bytes(), &source); err != nil {
			writeError(w, http.StatusBadRequest, "mapper_parsing_exception", "failed to parse source")
			return
		}

		item, ok := e.indexDoc(args.Index, args.Type, args.ID, source)
		if !ok {
			failed = true
		}
		items = append(items, map[string]any{"index": item})
	}
	writeJSON(w, http.StatusOK, map[string]any{"took": 1, "errors": failed, "items": items})
}

// indexDoc queues one write. Caller holds e.mu.
func (e *Engine) indexDoc(target, typ, id string, source map[string]any) (map[string]any, bool) {
	name := target
	if holders := e.holders(target); len(holders) > 0 {
		if len(holders) != 1 {
			return map[string]any{
				"_index": target,
				"status": http.StatusBadRequest,
				"error":  map[string]any{"type": "illegal_argument_exception", "reason": "alias [" + target + "] has more than one index"},
			}, false
		}
		name = holders[0]
	}
	if typ == "" {
		typ = "_doc"
	}
	if id == "" {
		e.autoID++
		id = fmt.Sprintf("auto%06d", e.autoID)
	}

	idx := e.ensure(name)
	result := "created"
	if _, ok := idx.visible[id]; ok {
		result = "updated"
	}
	e.seq++
	idx.pending = append(idx.pending, storedDoc{Type: typ, ID: id, Source: source, seq: e.seq})
	return map[string]any{"_index": name, "_type": typ, "_id": id, "result": result, "status": http.StatusCreated}, true
}

type searchBody struct {
	Query map[string]any `json:"query"`
	Sort  []any          `json:"sort"`
	Size  *int           `json:"size"`
	From  *int           `json:"from"`
}

func (e *Engine) handleSearch(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if r.ContentLength != 0 && !decodeBody(w, r, &body) {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	docs, index, ok := e.match(w, r, body.Query)
	if !ok {
		return
	}
	if err := sortDocs(docs, index, body.Sort); err != nil {
		writeError(w, http.StatusBadRequest, "parsing_exception", err.Error())
		return
	}

	total := len(docs)
	from, size := 0, 10
	if body.From != nil {
		from = *body.From
	}
	if body.Size != nil {
		size = *body.Size
	}
	if from > len(docs) {
		from = len(docs)
	}
	end := from + size
	if end > len(docs) {
		end = len(docs)
	}

	hits := make([]map[string]any, 0, end-from)
	for i, d := range docs[from:end] {
		hits = append(hits, map[string]any{
			"_index":  index[from+i],
			"_type":   d.Type,
			"_id":     d.ID,
			"_score":  0.0,
			"_source": d.Source,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"took":      1,
		"timed_out": false,
		"hits":      map[string]any{"total": total, "max_score": 0.0, "hits": hits},
	})
}

func (e *Engine) handleCount(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if r.ContentLength != 0 && !decodeBody(w, r, &body) {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	docs, _, ok := e.match(w, r, body.Query)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(docs)})
}

// match returns visible documents matching the request path and query,
// in insertion order, with the physical index of each. Caller holds e.mu.
func (e *Engine) match(w http.ResponseWriter, r *http.Request, query map[string]any) ([]storedDoc, []string, bool) {
	names, missing := e.resolve(param(r, "index"), true)
	if missing != "" {
		writeNotFound(w, missing)
		return nil, nil, false
	}
	var types []string
	if t := param(r, "types"); t != "" {
		types = strings.Split(t, ",")
	}

	var pred predicate = func(map[string]any) bool { return true }
	if query != nil {
		var err error
		if pred, err = compileQuery(query); err != nil {
			writeError(w, http.StatusBadRequest, "parsing_exception", err.Error())
			return nil, nil, false
		}
	}

	type located struct {
		doc   storedDoc
		index string
	}
	var found []located
	for _, n := range names {
		for _, d := range e.indices[n].visible {
			if len(types) > 0 && !contains(types, d.Type) {
				continue
			}
			if pred(d.Source) {
				found = append(found, located{d, n})
			}
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].doc.seq < found[j].doc.seq })

	docs := make([]storedDoc, len(found))
	index := make([]string, len(found))
	for i, f := range found {
		docs[i], index[i] = f.doc, f.index
	}
	return docs, index, true
}

type predicate func(source map[string]any) bool

func compileQuery(q map[string]any) (predicate, error) {
	if len(q) != 1 {
		return nil, fmt.Errorf("query must have exactly one clause, got %d", len(q))
	}
	for kind, raw := range q {
		switch kind {
		case "match_all":
			return func(map[string]any) bool { return true }, nil
		case "term":
			args, ok := raw.(map[string]any)
			if !ok || len(args) != 1 {
				return nil, fmt.Errorf("[term] query malformed")
			}
			for field, want := range args {
				if obj, ok := want.(map[string]any); ok {
					want = obj["value"]
				}
				return termPredicate(field, want), nil
			}
		case "bool":
			args, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("[bool] query malformed")
			}
			var preds []predicate
			for clause, v := range args {
				if clause != "filter" && clause != "must" {
					return nil, fmt.Errorf("[bool] clause [%s] not supported", clause)
				}
				list, ok := v.([]any)
				if !ok {
					list = []any{v}
				}
				for _, c := range list {
					m, ok := c.(map[string]any)
					if !ok {
						return nil, fmt.Errorf("[bool] clause malformed")
					}
					p, err := compileQuery(m)
					if err != nil {
						return nil, err
					}
					preds = append(preds, p)
				}
			}
			return func(src map[string]any) bool {
				for _, p := range preds {
					if !p(src) {
						return false
					}
				}
				return true
			}, nil
		default:
			return nil, fmt.Errorf("no [query] registered for [%s]", kind)
		}
	}
	return nil, fmt.Errorf("empty query")
}

func termPredicate(field string, want any) predicate {
	return func(src map[string]any) bool {
		got, ok := lookup(src, field)
		if !ok {
			return false
		}
		if list, ok := got.([]any); ok {
			for _, v := range list {
				if reflect.DeepEqual(v, want) {
					return true
				}
			}
			return false
		}
		return reflect.DeepEqual(got, want)
	}
}

// lookup resolves dotted field names through nested objects.
func lookup(src map[string]any, field string) (any, bool) {
	if v, ok := src[field]; ok {
		return v, true
	}
	head, rest, found := strings.Cut(field, ".")
	if !found {
		return nil, false
	}
	inner, ok := src[head].(map[string]any)
	if !ok {
		return nil, false
	}
	return lookup(inner, rest)
}

func sortDocs(docs []storedDoc, index []string, clauses []any) error {
	type key struct {
		field string
		desc  bool
	}
	var keys []key
	for _, s := range clauses {
		switch v := s.(type) {
		case string:
			keys = append(keys, key{field: v})
		case map[string]any:
			for field, order := range v {
				k := key{field: field}
				switch o := order.(type) {
				case string:
					k.desc = o == "desc"
				case map[string]any:
					k.desc = o["order"] == "desc"
				}
				keys = append(keys, k)
			}
		default:
			return fmt.Errorf("malformed sort")
		}
	}
	if len(keys) == 0 {
		return nil
	}

	perm := make([]int, len(docs))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		da, db := docs[perm[a]], docs[perm[b]]
		for _, k := range keys {
			va, _ := lookup(da.Source, k.field)
			vb, _ := lookup(db.Source, k.field)
			c := compare(va, vb)
			if c == 0 {
				continue
			}
			if k.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	sortedDocs := make([]storedDoc, len(docs))
	sortedIndex := make([]string, len(index))
	for i, p := range perm {
		sortedDocs[i], sortedIndex[i] = docs[p], index[p]
	}
	copy(docs, sortedDocs)
	copy(index, sortedIndex)
	return nil
}

// compare orders missing values last, numbers numerically and everything
// else by its string form.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	fa, aNum := a.(float64)
	fb, bNum := b.(float64)
	if aNum && bNum {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// resolve expands a comma-separated index expression into physical indices.
// Wildcards may match nothing when allowEmpty is set; a concrete name that
// is neither an index nor an alias is reported as missing.
func (e *Engine) resolve(expr string, allowEmpty bool) ([]string, string) {
	seen := make(map[string]bool)
	var out []string
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}

	for _, part := range strings.Split(expr, ",") {
		switch {
		case part == "_all" || part == "*":
			for _, n := range e.sortedNames() {
				add(n)
			}
		case strings.ContainsAny(part, "*?"):
			matched := false
			for _, n := range e.sortedNames() {
				if ok, _ := path.Match(part, n); ok {
					add(n)
					matched = true
				}
			}
			if !matched && !allowEmpty {
				return nil, part
			}
		default:
			if _, ok := e.indices[part]; ok {
				add(part)
				continue
			}
			holders := e.holders(part)
			if len(holders) == 0 {
				return nil, part
			}
			for _, h := range holders {
				add(h)
			}
		}
	}
	return out, ""
}

func (e *Engine) ensure(name string) *fakeIndex {
	idx, ok := e.indices[name]
	if !ok {
		idx = &fakeIndex{aliases: map[string]bool{}, visible: map[string]storedDoc{}}
		e.indices[name] = idx
	}
	return idx
}

func (e *Engine) holders(alias string) []string {
	var out []string
	for n, idx := range e.indices {
		if idx.aliases[alias] {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func (e *Engine) sortedNames() []string {
	names := make([]string, 0, len(e.indices))
	for n := range e.indices {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func param(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "parse_exception", err.Error())
		return false
	}
	return true
}

func writeNotFound(w http.ResponseWriter, name string) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error": map[string]any{
			"type":   "index_not_found_exception",
			"reason": "no such index",
			"index":  name,
		},
		"status": http.StatusNotFound,
	})
}

func writeError(w http.ResponseWriter, status int, typ, reason string) {
	writeJSON(w, status, map[string]any{
		"error":  map[string]any{"type": typ, "reason": reason},
		"status": status,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
