// Package query holds the immutable option set behind a dataset and compiles it
// into the engine's request shape.
package query

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/pariah/internal/domain/index"
	"github.com/kailas-cloud/pariah/internal/domain/search/filter"
)

// Optional is a value that may be unset. An unset Optional is distinct from a
// set one holding the zero value.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns a set Optional.
func Some[T any](v T) Optional[T] { return Optional[T]{value: v, set: true} }

// Get returns the value and whether it is set.
func (o Optional[T]) Get() (T, bool) { return o.value, o.set }

// IsSet reports whether a value is present.
func (o Optional[T]) IsSet() bool { return o.set }

// SortOrder is the direction of a sort clause.
type SortOrder string

const (
	// Asc sorts ascending.
	Asc SortOrder = "asc"
	// Desc sorts descending.
	Desc SortOrder = "desc"
)

// Sort is a single sort clause. An empty Order lets the engine pick its default.
type Sort struct {
	Field string
	Order SortOrder
}

// Opts is the option set of a dataset. Every method returns a new Opts; the
// receiver is never altered, and no slice is shared between the two.
type Opts struct {
	Indices Optional[[]string]
	Types   Optional[[]string]
	Filter  Optional[filter.Filter] // set with a nil Filter means "explicitly unfiltered"
	Sort    Optional[[]Sort]
	Size    Optional[int]
	From    Optional[int]
	Schema  Optional[index.Schema]
}

// Clone returns a copy of o with its own slices.
func (o Opts) Clone() Opts {
	c := o
	c.Indices = cloneList(o.Indices)
	c.Types = cloneList(o.Types)
	c.Sort = cloneList(o.Sort)
	return c
}

// Replace returns a clone of o where every key set in patch overwrites o's value.
func (o Opts) Replace(patch Opts) Opts {
	c := o.Clone()
	if patch.Indices.set {
		c.Indices = cloneList(patch.Indices)
	}
	if patch.Types.set {
		c.Types = cloneList(patch.Types)
	}
	if patch.Filter.set {
		c.Filter = patch.Filter
	}
	if patch.Sort.set {
		c.Sort = cloneList(patch.Sort)
	}
	if patch.Size.set {
		c.Size = patch.Size
	}
	if patch.From.set {
		c.From = patch.From
	}
	if patch.Schema.set {
		c.Schema = patch.Schema
	}
	return c
}

// Append returns a clone of o where list keys set in patch are concatenated
// onto o's values (an unset value counts as empty). Order and duplicates are
// kept. Scalar keys set in patch overwrite, as in Replace.
func (o Opts) Append(patch Opts) Opts {
	c := o.Replace(Opts{
		Filter: patch.Filter,
		Size:   patch.Size,
		From:   patch.From,
		Schema: patch.Schema,
	})
	if patch.Indices.set {
		c.Indices = concat(o.Indices, patch.Indices)
	}
	if patch.Types.set {
		c.Types = concat(o.Types, patch.Types)
	}
	if patch.Sort.set {
		c.Sort = concat(o.Sort, patch.Sort)
	}
	return c
}

// CurrentFilter returns the filter in effect, or nil.
func (o Opts) CurrentFilter() filter.Filter {
	f, _ := o.Filter.Get()
	return f
}

func cloneList[T any](o Optional[[]T]) Optional[[]T] {
	if !o.set {
		return o
	}
	v := slices.Clone(o.value)
	if v == nil {
		v = []T{}
	}
	return Optional[[]T]{value: v, set: true}
}

func concat[T any](prev, next Optional[[]T]) Optional[[]T] {
	out := make([]T, 0, len(prev.value)+len(next.value))
	out = append(out, prev.value...)
	out = append(out, next.value...)
	return Optional[[]T]{value: out, set: true}
}

// ErrMalformedSort is returned by ParseSort.
var ErrMalformedSort = errors.New("malformed sort")

// ParseSort reads "field", "field:asc" or "field:desc".
func ParseSort(s string) (Sort, error) {
	field, order, _ := strings.Cut(s, ":")
	if field == "" {
		return Sort{}, fmt.Errorf("%w: %q has no field", ErrMalformedSort, s)
	}
	switch SortOrder(order) {
	case "", Asc, Desc:
		return Sort{Field: field, Order: SortOrder(order)}, nil
	}
	return Sort{}, fmt.Errorf("%w: order of %q must be asc or desc", ErrMalformedSort, s)
}
