package chi

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/kailas-cloud/pariah"
	"github.com/kailas-cloud/pariah/internal/domain/search/filter"
	"github.com/kailas-cloud/pariah/internal/domain/search/query"
)

var errInvalidParam = errors.New("invalid query parameter")

// paramError names the offending query parameter.
type paramError struct {
	Param  string
	Reason string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("invalid query parameter %q: %s", e.Param, e.Reason)
}

func (e *paramError) Unwrap() error { return errInvalidParam }

type searchParams struct {
	terms []pariah.Condition
	types []string
	sort  []pariah.SortField
	size  int
	from  int
}

// apply narrows ds by the filter and type parameters. Paging and sort are
// applied by the search handler only.
func (p searchParams) apply(ds *pariah.Dataset) *pariah.Dataset {
	if len(p.types) > 0 {
		ds = ds.Types(p.types...)
	}
	return ds.Terms(p.terms...)
}

// parseSearchParams reads:
//
//	term=field:value   repeatable, combined with And
//	type=name          repeatable
//	size=n             0..paging.MaxSize, default paging.DefaultSize
//	from=n             non-negative
//	sort=field[:asc|:desc]  repeatable, in order
//
// Term values follow filter.ParseCondition.
func parseSearchParams(q url.Values, paging Paging) (searchParams, error) {
	p := searchParams{size: paging.DefaultSize}

	for _, raw := range q["term"] {
		c, err := filter.ParseCondition(raw)
		if err != nil {
			return searchParams{}, &paramError{Param: "term", Reason: "expected field:value"}
		}
		p.terms = append(p.terms, c)
	}

	for _, t := range q["type"] {
		if t == "" {
			return searchParams{}, &paramError{Param: "type", Reason: "empty type name"}
		}
		p.types = append(p.types, t)
	}

	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return searchParams{}, &paramError{Param: "size", Reason: "must be a non-negative integer"}
		}
		if n > paging.MaxSize {
			return searchParams{}, &paramError{
				Param:  "size",
				Reason: fmt.Sprintf("must not exceed %d", paging.MaxSize),
			}
		}
		p.size = n
	}

	if v := q.Get("from"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return searchParams{}, &paramError{Param: "from", Reason: "must be a non-negative integer"}
		}
		p.from = n
	}

	for _, raw := range q["sort"] {
		sf, err := query.ParseSort(raw)
		if err != nil {
			return searchParams{}, &paramError{Param: "sort", Reason: "expected field, field:asc or field:desc"}
		}
		p.sort = append(p.sort, sf)
	}

	return p, nil
}
