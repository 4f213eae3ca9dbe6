package pariah

import (
	"slices"
	"sort"

	"github.com/kailas-cloud/pariah/internal/domain/document"
	"github.com/kailas-cloud/pariah/internal/domain/search/filter"
	"github.com/kailas-cloud/pariah/internal/domain/search/query"
)

// Document is a single engine document: its JSON source as a map.
type Document = document.Document

// Filter is a composable query filter: a Term or an And of filters.
type Filter = filter.Filter

// TermFilter matches documents whose field equals a value.
type TermFilter = filter.Term

// AndFilter matches documents accepted by every child filter.
type AndFilter = filter.And

// Condition is a field/value pair for Terms.
type Condition = filter.Condition

// Term builds a TermFilter.
func Term(field string, value any) TermFilter { return filter.NewTerm(field, value) }

// And builds an AndFilter. Nested Ands are flattened.
func And(children ...Filter) AndFilter { return filter.NewAnd(children...) }

// SortField is a single sort clause.
type SortField = query.Sort

// SortOrder is the direction of a sort clause.
type SortOrder = query.SortOrder

// Sort directions.
const (
	Asc  = query.Asc
	Desc = query.Desc
)

// SortBy sorts on field in the engine's default direction.
func SortBy(field string) SortField { return SortField{Field: field} }

// SortAsc sorts on field ascending.
func SortAsc(field string) SortField { return SortField{Field: field, Order: Asc} }

// SortDesc sorts on field descending.
func SortDesc(field string) SortField { return SortField{Field: field, Order: Desc} }

// Query is a compiled dataset: the index/type path and the request body.
type Query = query.Request

// Dataset is an immutable query description bound to a Client. Builder
// methods return a new Dataset with its own copy of the options; the receiver
// is never changed. Loaded results are not carried over by builder methods.
// Datasets come from Client.Dataset or Client.Index; actions on the zero
// value return ErrUnboundDataset.
type Dataset struct {
	client  *Client
	opts    query.Opts
	results []Document
	loaded  bool
}

func (d *Dataset) replace(patch query.Opts) *Dataset {
	return &Dataset{client: d.client, opts: d.opts.Replace(patch)}
}

func (d *Dataset) append(patch query.Opts) *Dataset {
	return &Dataset{client: d.client, opts: d.opts.Append(patch)}
}

// Indices targets exactly the named indices or aliases. No names targets
// every index.
func (d *Dataset) Indices(names ...string) *Dataset {
	return d.replace(query.Opts{Indices: query.Some(names)})
}

// AppendIndices adds names to the targeted indices, keeping order and
// duplicates.
func (d *Dataset) AppendIndices(names ...string) *Dataset {
	return d.append(query.Opts{Indices: query.Some(names)})
}

// Types targets exactly the named document types.
func (d *Dataset) Types(names ...string) *Dataset {
	return d.replace(query.Opts{Types: query.Some(names)})
}

// AppendTypes adds names to the targeted types.
func (d *Dataset) AppendTypes(names ...string) *Dataset {
	return d.append(query.Opts{Types: query.Some(names)})
}

// AppendFilters composes filters with the current filter under a flat And.
func (d *Dataset) AppendFilters(filters ...Filter) *Dataset {
	if len(filters) == 0 {
		return d.replace(query.Opts{})
	}
	next := filter.Append(d.opts.CurrentFilter(), filters...)
	return d.replace(query.Opts{Filter: query.Some(next)})
}

// Term adds an equality filter on field.
func (d *Dataset) Term(field string, value any) *Dataset {
	return d.AppendFilters(filter.NewTerm(field, value))
}

// Terms adds one equality filter per condition, in order.
func (d *Dataset) Terms(conds ...Condition) *Dataset {
	return d.AppendFilters(filter.Terms(conds...)...)
}

// Where adds one equality filter per map entry, ordered by field name.
func (d *Dataset) Where(conds map[string]any) *Dataset {
	fields := make([]string, 0, len(conds))
	for f := range conds {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	pairs := make([]Condition, 0, len(fields))
	for _, f := range fields {
		pairs = append(pairs, Condition{Field: f, Value: conds[f]})
	}
	return d.Terms(pairs...)
}

// Unfiltered drops every filter.
func (d *Dataset) Unfiltered() *Dataset {
	return d.replace(query.Opts{Filter: query.Some[filter.Filter](nil)})
}

// Sort replaces the sort clauses.
func (d *Dataset) Sort(fields ...SortField) *Dataset {
	return d.replace(query.Opts{Sort: query.Some(fields)})
}

// Size sets the maximum number of hits returned. The value is passed to the
// engine as is.
func (d *Dataset) Size(n int) *Dataset {
	return d.replace(query.Opts{Size: query.Some(n)})
}

// From sets the offset of the first hit.
func (d *Dataset) From(n int) *Dataset {
	return d.replace(query.Opts{From: query.Some(n)})
}

// WithSchema sets the settings and mappings used by CreateIndex and
// RewriteIndex.
func (d *Dataset) WithSchema(s Schema) *Dataset {
	return d.replace(query.Opts{Schema: query.Some(s)})
}

// Filter is an alias of Where.
//
// Deprecated: use Where or Term.
func (d *Dataset) Filter(conds map[string]any) *Dataset { return d.Where(conds) }

// FromIndices is an alias of Indices.
//
// Deprecated: use Indices.
func (d *Dataset) FromIndices(names ...string) *Dataset { return d.Indices(names...) }

// Type is an alias of Types.
//
// Deprecated: use Types.
func (d *Dataset) Type(names ...string) *Dataset { return d.Types(names...) }

// CurrentFilter returns the filter in effect, or nil.
func (d *Dataset) CurrentFilter() Filter { return d.opts.CurrentFilter() }

// IndexNames returns the targeted indices; nil means every index.
func (d *Dataset) IndexNames() []string {
	v, _ := d.opts.Indices.Get()
	return slices.Clone(v)
}

// TypeNames returns the targeted types; nil means every type.
func (d *Dataset) TypeNames() []string {
	v, _ := d.opts.Types.Get()
	return slices.Clone(v)
}

// SingleIndex returns the only targeted index.
func (d *Dataset) SingleIndex() (string, error) {
	v, _ := d.opts.Indices.Get()
	if len(v) != 1 {
		return "", ErrNotSingleIndex
	}
	return v[0], nil
}

// Results returns the documents captured by Load, and whether Load ran.
func (d *Dataset) Results() ([]Document, bool) {
	return slices.Clone(d.results), d.loaded
}

// ToQuery compiles the dataset as a search request.
func (d *Dataset) ToQuery() Query { return query.Compile(d.opts) }

// ToCountQuery compiles the dataset as a count request.
func (d *Dataset) ToCountQuery() Query { return query.CompileCount(d.opts) }

func (d *Dataset) indexPath() string { return query.IndexPath(d.opts) }

func (d *Dataset) singleType() (string, error) {
	v, _ := d.opts.Types.Get()
	switch len(v) {
	case 0:
		return "", nil
	case 1:
		return v[0], nil
	default:
		return "", ErrNotSingleType
	}
}
