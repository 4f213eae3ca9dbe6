package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pariah"
	logpkg "github.com/kailas-cloud/pariah/internal/logger"
)

// Engine is the part of the SDK client the gateway reads through.
type Engine interface {
	Index(names ...string) *pariah.Dataset
	Health(ctx context.Context) pariah.HealthStatus
}

// Paging bounds the size parameter of search requests.
type Paging struct {
	DefaultSize int
	MaxSize     int
}

type errorCode string

const (
	codeBadRequest   errorCode = "bad_request"
	codeUnauthorized errorCode = "unauthorized"
	codeNotFound     errorCode = "not_found"
	codeUnavailable  errorCode = "unavailable"
	codeTimeout      errorCode = "timeout"
	codeEngineError  errorCode = "engine_error"
	codeInternal     errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type countResponse struct {
	Index string `json:"index"`
	Count int    `json:"count"`
}

type searchResponse struct {
	Index     string            `json:"index"`
	Documents []pariah.Document `json:"documents"`
	Size      int               `json:"size"`
	From      int               `json:"from"`
}

// errorHandler writes a response for err and reports whether it did.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the read-only search gateway.
type Server struct {
	engine        Engine
	paging        Paging
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates a Server.
func NewServer(engine Engine, paging Paging, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if paging.MaxSize <= 0 {
		paging.MaxSize = 100
	}
	if paging.DefaultSize <= 0 || paging.DefaultSize > paging.MaxSize {
		paging.DefaultSize = min(20, paging.MaxSize)
	}
	return &Server{
		engine: engine,
		paging: paging,
		logger: logger,
		errorHandlers: []errorHandler{
			sentinelHandler(errInvalidParam, http.StatusBadRequest, codeBadRequest),
			sentinelHandler(pariah.ErrIndexNotFound, http.StatusNotFound, codeNotFound),
			sentinelHandler(pariah.ErrConnection, http.StatusServiceUnavailable, codeUnavailable),
			sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, codeTimeout),
			responseErrorHandler,
		},
	}
}

// Mount registers the gateway routes on r.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1/indices/{index}", func(r chi.Router) {
		r.Get("/count", s.Count)
		r.Get("/search", s.Search)
	})
}

// HealthCheck handles GET /health. A degraded engine still serves reads.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := s.engine.Health(r.Context())

	code := http.StatusOK
	if status.Status != "ok" && status.Status != "degraded" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, healthResponse{Status: status.Status, Checks: status.Checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// Count handles GET /v1/indices/{index}/count.
func (s *Server) Count(w http.ResponseWriter, r *http.Request) {
	index := chi.URLParam(r, "index")
	params, err := parseSearchParams(r.URL.Query(), s.paging)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	n, err := params.apply(s.engine.Index(splitIndices(index)...)).Count(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Index: index, Count: n})
}

// Search handles GET /v1/indices/{index}/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	index := chi.URLParam(r, "index")
	params, err := parseSearchParams(r.URL.Query(), s.paging)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	ds := params.apply(s.engine.Index(splitIndices(index)...)).
		Size(params.size).
		From(params.from)
	if len(params.sort) > 0 {
		ds = ds.Sort(params.sort...)
	}

	docs, err := ds.All(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if docs == nil {
		docs = []pariah.Document{}
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Index:     index,
		Documents: docs,
		Size:      params.size,
		From:      params.from,
	})
}

func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("request failed", zap.String("path", r.URL.Path), zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.String("path", r.URL.Path), zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

// splitIndices turns "a,b" into ["a", "b"]; "_all" is passed through.
func splitIndices(expr string) []string {
	parts := strings.Split(expr, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// The sentinel's text is the client-visible message; wrapped detail is not exposed.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		msg := sentinel.Error()
		var pe *paramError
		if errors.As(err, &pe) {
			msg = pe.Error()
		}
		writeError(w, status, code, msg)
		return true
	}
}

// responseErrorHandler passes an engine error status through to the client.
func responseErrorHandler(w http.ResponseWriter, err error) bool {
	var re *pariah.ResponseError
	if !errors.As(err, &re) || re.Status < 400 {
		return false
	}
	msg := re.Type()
	if msg == "" {
		msg = http.StatusText(re.Status)
	}
	writeError(w, re.Status, codeEngineError, msg)
	return true
}
