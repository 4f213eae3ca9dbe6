package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kailas-cloud/pariah/internal/db"
	"github.com/kailas-cloud/pariah/internal/domain/document"
)

type searchResponse struct {
	Hits struct {
		Total json.RawMessage `json:"total"`
		Hits  []struct {
			Index  string            `json:"_index"`
			Type   string            `json:"_type"`
			ID     string            `json:"_id"`
			Score  *float64          `json:"_score"`
			Source document.Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs a compiled query body against path.
func (s *Store) Search(ctx context.Context, path string, body map[string]any) (*db.SearchResult, error) {
	var resp searchResponse
	if err := s.doJSON(ctx, http.MethodPost, path+"/_search", payload(body), &resp); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	total, err := parseTotal(resp.Hits.Total)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	out := &db.SearchResult{Total: total, Hits: make([]db.SearchHit, 0, len(resp.Hits.Hits))}
	for _, h := range resp.Hits.Hits {
		hit := db.SearchHit{Index: h.Index, Type: h.Type, ID: h.ID, Source: h.Source}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		if hit.Source == nil {
			hit.Source = document.Document{}
		}
		out.Hits = append(out.Hits, hit)
	}
	return out, nil
}

// payload keeps an empty body off the wire.
func payload(body map[string]any) any {
	if len(body) == 0 {
		return nil
	}
	return body
}

// parseTotal accepts both the numeric total and the {"value": n} object form.
func parseTotal(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}
	if raw[0] == '{' {
		var obj struct {
			Value int `json:"value"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return 0, fmt.Errorf("decode total: %w", err)
		}
		return obj.Value, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("decode total: %w", err)
	}
	return n, nil
}

// Count returns the number of documents matching the query body.
func (s *Store) Count(ctx context.Context, path string, body map[string]any) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := s.doJSON(ctx, http.MethodPost, path+"/_count", payload(body), &resp); err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}
	return resp.Count, nil
}

// Bulk sends a newline-delimited bulk body. Per-item failures only set
// BulkResult.Errors; they are not surfaced as an error.
func (s *Store) Bulk(ctx context.Context, body []byte) (db.BulkResult, error) {
	resp, err := s.do(ctx, Request{
		Method:      http.MethodPost,
		Path:        "_bulk",
		Body:        body,
		ContentType: contentTypeNDJSON,
	})
	if err != nil {
		return db.BulkResult{}, &db.Error{Op: db.OpBulk, Err: err}
	}
	var out struct {
		Took   int  `json:"took"`
		Errors bool `json:"errors"`
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return db.BulkResult{}, &db.Error{Op: db.OpBulk, Err: fmt.Errorf("decode response: %w", err)}
	}
	return db.BulkResult{Took: out.Took, Errors: out.Errors}, nil
}
