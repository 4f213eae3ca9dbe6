package pariah

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	defaultURL      = "http://localhost:9200"
	defaultPoolSize = 10
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	url         string
	poolSize    int
	httpClient  *http.Client
	dialTimeout time.Duration
	rateLimit   float64
	rateBurst   int

	skipTemplate bool

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{url: defaultURL, poolSize: defaultPoolSize}
}

// WithURL sets the engine base URL. Defaults to http://localhost:9200.
func WithURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.url = url
	})
}

// WithPoolSize caps the number of concurrent engine connections.
// Callers beyond the cap block until a connection is released. Default: 10.
func WithPoolSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.poolSize = n
	})
}

// WithHTTPClient shares one *http.Client across all pooled connections.
// By default each connection owns a keep-alive transport.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithDialTimeout bounds establishing a TCP connection. Default: 5s.
// Requests themselves carry no timeout; use the context for that.
func WithDialTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.dialTimeout = d
	})
}

// WithRateLimit throttles requests to rps per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return optionFunc(func(c *clientConfig) {
		c.rateLimit = rps
		c.rateBurst = burst
	})
}

// WithoutTemplate skips installing the catch-all index template on connect.
func WithoutTemplate() Option {
	return optionFunc(func(c *clientConfig) {
		c.skipTemplate = true
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
