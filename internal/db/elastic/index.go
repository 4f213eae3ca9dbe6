package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kailas-cloud/pariah/internal/db"
	"github.com/kailas-cloud/pariah/internal/domain/index"
)

// CreateIndex creates a physical index with the given schema.
func (s *Store) CreateIndex(ctx context.Context, name string, schema index.Schema) error {
	var body any
	if !schema.IsEmpty() {
		body = schema.Body()
	}
	if err := s.doJSON(ctx, http.MethodPut, url.PathEscape(name), body, nil); err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// DropIndex deletes a physical index (or every index matching a pattern).
func (s *Store) DropIndex(ctx context.Context, name string) error {
	if err := s.doJSON(ctx, http.MethodDelete, url.PathEscape(name), nil, nil); err != nil {
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	return nil
}

// IndexExists reports whether name resolves to an index or alias.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	_, err := s.do(ctx, Request{Method: http.MethodHead, Path: url.PathEscape(name)})
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexExists, Err: err}
	}
	return true, nil
}

// Refresh makes writes to the selected indices visible to search.
func (s *Store) Refresh(ctx context.Context, indexPath string) error {
	if err := s.doJSON(ctx, http.MethodPost, indexPath+"/_refresh", nil, nil); err != nil {
		return &db.Error{Op: db.OpRefresh, Err: err}
	}
	return nil
}

// CatIndices lists indices matching pattern. No match yields an empty list.
func (s *Store) CatIndices(ctx context.Context, pattern string) ([]db.IndexInfo, error) {
	var rows []struct {
		Index     string `json:"index"`
		Health    string `json:"health"`
		Status    string `json:"status"`
		DocsCount string `json:"docs.count"`
	}
	resp, err := s.do(ctx, Request{
		Method: http.MethodGet,
		Path:   "_cat/indices/" + url.PathEscape(pattern),
		Query:  url.Values{"format": {"json"}},
	})
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return []db.IndexInfo{}, nil
		}
		return nil, &db.Error{Op: db.OpCatIndices, Err: err}
	}
	if err := json.Unmarshal(resp.Body, &rows); err != nil {
		return nil, &db.Error{Op: db.OpCatIndices, Err: fmt.Errorf("decode response: %w", err)}
	}

	out := make([]db.IndexInfo, 0, len(rows))
	for _, r := range rows {
		docs, _ := strconv.Atoi(r.DocsCount)
		out = append(out, db.IndexInfo{
			Name:      r.Index,
			Health:    r.Health,
			Status:    r.Status,
			DocsCount: docs,
		})
	}
	return out, nil
}
