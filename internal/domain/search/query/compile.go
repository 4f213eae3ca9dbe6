package query

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kailas-cloud/pariah/internal/domain/search/filter"
)

// AllIndices is the path segment that targets every index known to the engine.
const AllIndices = "_all"

// Request is a compiled query: the index/type selector and the JSON body.
type Request struct {
	Path string
	Body map[string]any
}

// Compile projects o into a search request. Unset keys are absent from the body.
func Compile(o Opts) Request {
	body := make(map[string]any, 4)
	if q := compileQuery(o); q != nil {
		body["query"] = q
	}
	if sorts, ok := o.Sort.Get(); ok {
		body["sort"] = compileSort(sorts)
	}
	if size, ok := o.Size.Get(); ok {
		body["size"] = size
	}
	if from, ok := o.From.Get(); ok {
		body["from"] = from
	}
	return Request{Path: Path(o), Body: body}
}

// CompileCount projects o into a count request. Sort, size and from do not
// affect a count and are dropped.
func CompileCount(o Opts) Request {
	body := make(map[string]any, 1)
	if q := compileQuery(o); q != nil {
		body["query"] = q
	}
	return Request{Path: Path(o), Body: body}
}

// Path builds "<indices>[/<types>]". Unset or empty indices select AllIndices;
// unset or empty types select every type.
func Path(o Opts) string {
	indices, _ := o.Indices.Get()
	p := AllIndices
	if len(indices) > 0 {
		p = joinEscaped(indices)
	}
	if types, _ := o.Types.Get(); len(types) > 0 {
		p += "/" + joinEscaped(types)
	}
	return p
}

// IndexPath builds the comma-joined index selector without types.
func IndexPath(o Opts) string {
	indices, _ := o.Indices.Get()
	if len(indices) == 0 {
		return AllIndices
	}
	return joinEscaped(indices)
}

// CompileFilter renders a filter as an engine clause. Term becomes a term
// clause; And becomes a bool filter list in child order. Pointer variants
// compile like their values and a nil filter matches everything.
func CompileFilter(f filter.Filter) map[string]any {
	switch v := f.(type) {
	case *filter.Term:
		if v == nil {
			return matchAll()
		}
		return CompileFilter(*v)
	case *filter.And:
		if v == nil {
			return matchAll()
		}
		return CompileFilter(*v)
	case nil:
		return matchAll()
	case filter.Term:
		return map[string]any{"term": map[string]any{v.Field(): v.Value()}}
	case filter.And:
		children := v.Children()
		clauses := make([]any, 0, len(children))
		for _, c := range children {
			clauses = append(clauses, CompileFilter(c))
		}
		return map[string]any{"bool": map[string]any{"filter": clauses}}
	default:
		panic(fmt.Sprintf("query: unknown filter type %T", f))
	}
}

func matchAll() map[string]any {
	return map[string]any{"match_all": map[string]any{}}
}

func compileQuery(o Opts) map[string]any {
	f := o.CurrentFilter()
	if f == nil {
		return nil
	}
	return map[string]any{"bool": map[string]any{"filter": CompileFilter(f)}}
}

func compileSort(sorts []Sort) []any {
	out := make([]any, 0, len(sorts))
	for _, s := range sorts {
		if s.Order == "" {
			out = append(out, s.Field)
			continue
		}
		out = append(out, map[string]any{s.Field: map[string]any{"order": string(s.Order)}})
	}
	return out
}

func joinEscaped(names []string) string {
	escaped := make([]string, len(names))
	for i, n := range names {
		escaped[i] = url.PathEscape(n)
	}
	return strings.Join(escaped, ",")
}
