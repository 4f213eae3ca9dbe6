package elastic

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/pariah/internal/metrics"
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("elastic: pool closed")

// Pool is a bounded set of persistent connections. Acquire blocks until a
// connection is free; connections are created lazily up to the pool size.
type Pool struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter // nil = unthrottled
	newConn func() *Conn

	mu     sync.Mutex
	idle   []*Conn
	closed bool
}

// NewPool creates a pool of at most size connections built by newConn.
func NewPool(size int, newConn func() *Conn, limiter *rate.Limiter) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{
		sem:     semaphore.NewWeighted(int64(size)),
		limiter: limiter,
		newConn: newConn,
	}
}

// Acquire checks a connection out of the pool. The caller must Release it.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	start := time.Now()
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	metrics.PoolWaitSeconds.Observe(time.Since(start).Seconds())

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			p.sem.Release(1)
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.sem.Release(1)
		return nil, ErrPoolClosed
	}
	var c *Conn
	if n := len(p.idle); n > 0 {
		c = p.idle[n-1]
		p.idle = p.idle[:n-1]
	}
	p.mu.Unlock()

	if c == nil {
		c = p.newConn()
	}
	metrics.PoolInUse.Inc()
	return c, nil
}

// Release returns c to the pool.
func (p *Pool) Release(c *Conn) {
	p.mu.Lock()
	if p.closed {
		c.close()
	} else {
		p.idle = append(p.idle, c)
	}
	p.mu.Unlock()

	metrics.PoolInUse.Dec()
	p.sem.Release(1)
}

// With runs fn on a checked-out connection. The connection is released on
// every exit path, including a panic in fn.
func (p *Pool) With(ctx context.Context, fn func(c *Conn) error) error {
	c, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(c)
	return fn(c)
}

// Idle returns the number of idle connections.
func (p *Pool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

// Close drops idle connections. Checked-out connections are closed on release.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for _, c := range p.idle {
		c.close()
	}
	p.idle = nil
}
