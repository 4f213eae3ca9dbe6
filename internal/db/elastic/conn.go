package elastic

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/pariah/internal/db"
	"github.com/kailas-cloud/pariah/internal/metrics"
)

const (
	contentTypeJSON   = "application/json"
	contentTypeNDJSON = "application/x-ndjson"
)

// Request is a single engine call. Path is relative to the engine URL and
// already escaped.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        []byte
	ContentType string
}

// Response is a successful engine reply.
type Response struct {
	Status int
	Body   []byte
}

// Conn is a persistent connection to the engine.
type Conn struct {
	base      string
	client    *http.Client
	ownsTrans bool
}

// newConn builds a connection with its own keep-alive transport so each
// pooled slot reuses a single TCP connection.
func newConn(base *url.URL, dialTimeout time.Duration) *Conn {
	dialer := &net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		MaxIdleConns:        1,
		MaxIdleConnsPerHost: 1,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Conn{
		base:      strings.TrimRight(base.String(), "/"),
		client:    &http.Client{Transport: transport},
		ownsTrans: true,
	}
}

// sharedConn builds a connection on a caller-supplied client.
func sharedConn(base *url.URL, client *http.Client) *Conn {
	return &Conn{base: strings.TrimRight(base.String(), "/"), client: client}
}

// Do sends req. Any non-2xx status is returned as *db.ResponseError.
func (c *Conn) Do(ctx context.Context, req Request) (*Response, error) {
	target := c.base + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if req.Body != nil {
		ct := req.ContentType
		if ct == "" {
			ct = contentTypeJSON
		}
		httpReq.Header.Set("Content-Type", ct)
	}
	httpReq.Header.Set("Accept", contentTypeJSON)

	endpoint := metrics.Endpoint(req.Path)
	start := time.Now()

	resp, err := c.client.Do(httpReq)
	if err != nil {
		metrics.EngineRequestsTotal.WithLabelValues(req.Method, endpoint, "error").Inc()
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	metrics.EngineRequestDuration.WithLabelValues(req.Method, endpoint).Observe(time.Since(start).Seconds())
	metrics.EngineRequestsTotal.WithLabelValues(req.Method, endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", req.Method, req.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &db.ResponseError{
			Method: req.Method,
			Path:   req.Path,
			Status: resp.StatusCode,
			Body:   data,
		}
	}
	return &Response{Status: resp.StatusCode, Body: data}, nil
}

func (c *Conn) close() {
	if c.ownsTrans {
		c.client.CloseIdleConnections()
	}
}
