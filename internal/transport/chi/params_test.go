package chi

import (
	"errors"
	"net/url"
	"reflect"
	"testing"

	"github.com/kailas-cloud/pariah"
)

func TestParseSearchParams(t *testing.T) {
	paging := Paging{DefaultSize: 10, MaxSize: 50}
	q := url.Values{
		"term": {"lang:go", "views:3", "draft:false", "tag:a:b"},
		"type": {"post"},
		"size": {"25"},
		"from": {"5"},
		"sort": {"views:desc", "title"},
	}

	p, err := parseSearchParams(q, paging)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantTerms := []pariah.Condition{
		{Field: "lang", Value: "go"},
		{Field: "views", Value: 3.0},
		{Field: "draft", Value: false},
		{Field: "tag", Value: "a:b"},
	}
	if !reflect.DeepEqual(p.terms, wantTerms) {
		t.Errorf("terms = %#v", p.terms)
	}
	if !reflect.DeepEqual(p.types, []string{"post"}) {
		t.Errorf("types = %v", p.types)
	}
	if p.size != 25 || p.from != 5 {
		t.Errorf("size/from = %d/%d", p.size, p.from)
	}
	wantSort := []pariah.SortField{pariah.SortDesc("views"), pariah.SortBy("title")}
	if !reflect.DeepEqual(p.sort, wantSort) {
		t.Errorf("sort = %#v", p.sort)
	}
}

func TestParseSearchParams_Defaults(t *testing.T) {
	p, err := parseSearchParams(url.Values{}, Paging{DefaultSize: 7, MaxSize: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.size != 7 || p.from != 0 || p.terms != nil || p.sort != nil {
		t.Errorf("defaults = %+v", p)
	}
}

func TestParseSearchParams_Errors(t *testing.T) {
	tests := []struct {
		q     url.Values
		param string
	}{
		{url.Values{"size": {"x"}}, "size"},
		{url.Values{"size": {"51"}}, "size"},
		{url.Values{"from": {"-2"}}, "from"},
		{url.Values{"term": {"nofield"}}, "term"},
		{url.Values{"type": {""}}, "type"},
		{url.Values{"sort": {":desc"}}, "sort"},
		{url.Values{"sort": {"a:up"}}, "sort"},
	}
	for _, tc := range tests {
		_, err := parseSearchParams(tc.q, Paging{DefaultSize: 10, MaxSize: 50})
		if !errors.Is(err, errInvalidParam) {
			t.Errorf("%v: expected errInvalidParam, got %v", tc.q, err)
			continue
		}
		var pe *paramError
		if !errors.As(err, &pe) || pe.Param != tc.param {
			t.Errorf("%v: param = %v, want %s", tc.q, pe, tc.param)
		}
	}
}
