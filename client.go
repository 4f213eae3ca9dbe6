package pariah

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/pariah/internal/db"
	"github.com/kailas-cloud/pariah/internal/db/elastic"
	"github.com/kailas-cloud/pariah/internal/domain/index"
	healthuc "github.com/kailas-cloud/pariah/internal/usecase/health"
	"github.com/kailas-cloud/pariah/internal/usecase/rewrite"
)

const (
	defaultReadinessTimeout = 10 * time.Second

	// TemplateName is the catch-all template installed on connect.
	TemplateName = "template_all"
)

// templateBody disables dynamic mapping for every index, so documents only
// carry fields declared in an index schema.
func templateBody() map[string]any {
	return map[string]any{
		"template":       "*",
		"index_patterns": []string{"*"},
		"order":          0,
		"settings": map[string]any{
			"index.mapper.dynamic": false,
		},
	}
}

// Schema holds index settings and mappings.
type Schema = index.Schema

// IndexInfo is one row of the engine's index listing.
type IndexInfo = db.IndexInfo

// Client is the pariah SDK entry point. It owns the connection pool; datasets
// created from it share that pool.
type Client struct {
	store     db.Store
	rewriter  *rewrite.Service
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client, checks cluster health and installs the catch-all
// template. Any failure there is a *ConnectionError and the client is not
// returned. ctx bounds the connect step only; without a deadline it is
// limited to 10s.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	store, err := elastic.NewStore(elastic.Config{
		URL:         cfg.url,
		PoolSize:    cfg.poolSize,
		HTTPClient:  cfg.httpClient,
		DialTimeout: cfg.dialTimeout,
		RateLimit:   cfg.rateLimit,
		RateBurst:   cfg.rateBurst,
	})
	if err != nil {
		return nil, fmt.Errorf("pariah: create store: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}

	if err := connect(ctx, store, cfg); err != nil {
		store.Close()
		return nil, err
	}
	return wireClient(store, obs), nil
}

func connect(ctx context.Context, store db.Store, cfg *clientConfig) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultReadinessTimeout)
		defer cancel()
	}

	if err := store.Ping(ctx); err != nil {
		return &ConnectionError{Stage: "health", Err: err}
	}
	if cfg.skipTemplate {
		return nil
	}
	if err := store.PutTemplate(ctx, TemplateName, templateBody()); err != nil {
		return &ConnectionError{Stage: "template", Err: err}
	}
	return nil
}

func wireClient(store db.Store, obs *observer) *Client {
	return &Client{
		store:     store,
		rewriter:  rewrite.New(store, index.NewNamer(), obs.zapLogger()),
		healthSvc: healthuc.New(store),
		obs:       obs,
	}
}

// Close releases pooled connections.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks cluster health.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Dataset returns an empty dataset: every index, every type, no filter.
func (c *Client) Dataset() *Dataset {
	return &Dataset{client: c}
}

// Index returns a dataset targeting the named indices or aliases.
func (c *Client) Index(names ...string) *Dataset {
	return c.Dataset().Indices(names...)
}

// Aliases returns, for every index matched by name, the aliases it carries.
func (c *Client) Aliases(ctx context.Context, name string) (_ map[string][]string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("aliases", start, err) }()

	aliases, err := c.store.Aliases(ctx, c.Index(name).indexPath())
	if err != nil {
		return nil, fmt.Errorf("aliases %s: %w", name, err)
	}
	return aliases, nil
}

// Indices lists the indices matching pattern (e.g. "posts-*").
func (c *Client) Indices(ctx context.Context, pattern string) (_ []IndexInfo, err error) {
	start := time.Now()
	defer func() { c.obs.observe("indices", start, err) }()

	infos, err := c.store.CatIndices(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("list indices %s: %w", pattern, err)
	}
	return infos, nil
}
