// Package elastic implements db.Store over the engine's HTTP API using a
// bounded pool of persistent connections.
package elastic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/kailas-cloud/pariah/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

const defaultDialTimeout = 5 * time.Second

// Config holds connection parameters for the engine.
type Config struct {
	URL      string
	PoolSize int
	// HTTPClient, if set, is shared by all pooled connections.
	HTTPClient  *http.Client
	DialTimeout time.Duration
	// RateLimit caps requests per second across the pool; 0 disables it.
	RateLimit float64
	RateBurst int
}

// Store implements db.Store over HTTP.
type Store struct {
	pool *Pool
}

// NewStore creates a Store. No request is sent until the first operation.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, errors.New("url is required")
	}
	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported url scheme %q", base.Scheme)
	}

	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}

	factory := func() *Conn { return newConn(base, dialTimeout) }
	if cfg.HTTPClient != nil {
		factory = func() *Conn { return sharedConn(base, cfg.HTTPClient) }
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Store{pool: NewPool(cfg.PoolSize, factory, limiter)}, nil
}

// Pool exposes the underlying connection pool.
func (s *Store) Pool() *Pool { return s.pool }

// Close releases idle connections.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks cluster health; a red cluster counts as unhealthy.
func (s *Store) Ping(ctx context.Context) error {
	health, err := s.ClusterHealth(ctx)
	if err != nil {
		return err
	}
	if health.Status == "red" {
		return &db.Error{Op: db.OpHealth, Err: db.ErrUnhealthy}
	}
	return nil
}

// ClusterHealth fetches _cluster/health.
func (s *Store) ClusterHealth(ctx context.Context) (db.ClusterHealth, error) {
	var resp struct {
		ClusterName   string `json:"cluster_name"`
		Status        string `json:"status"`
		NumberOfNodes int    `json:"number_of_nodes"`
	}
	if err := s.doJSON(ctx, http.MethodGet, "_cluster/health", nil, &resp); err != nil {
		return db.ClusterHealth{}, &db.Error{Op: db.OpHealth, Err: err}
	}
	return db.ClusterHealth{
		ClusterName:   resp.ClusterName,
		Status:        resp.Status,
		NumberOfNodes: resp.NumberOfNodes,
	}, nil
}

// PutTemplate installs (or overwrites) an index template.
func (s *Store) PutTemplate(ctx context.Context, name string, body map[string]any) error {
	if err := s.doJSON(ctx, http.MethodPut, "_template/"+url.PathEscape(name), body, nil); err != nil {
		return &db.Error{Op: db.OpPutTemplate, Err: err}
	}
	return nil
}

func (s *Store) do(ctx context.Context, req Request) (*Response, error) {
	var resp *Response
	err := s.pool.With(ctx, func(c *Conn) error {
		var err error
		resp, err = c.Do(ctx, req)
		return err
	})
	return resp, err
}

// doJSON sends body (if non-nil) as JSON and decodes the reply into out (if non-nil).
func (s *Store) doJSON(ctx context.Context, method, path string, body, out any) error {
	req := Request{Method: method, Path: path}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		req.Body = data
	}
	resp, err := s.do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func isStatus(err error, status int) bool {
	var re *db.ResponseError
	return errors.As(err, &re) && re.Status == status
}
