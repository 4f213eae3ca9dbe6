package db

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors for engine operations.
var (
	ErrIndexNotFound = errors.New("db: index not found")
	ErrIndexExists   = errors.New("db: index already exists")
	ErrAliasNotFound = errors.New("db: alias not found")
	ErrUnhealthy     = errors.New("db: cluster unhealthy")
)

// Op constants name engine endpoints for error context.
const (
	OpHealth        = "GET _cluster/health"
	OpPutTemplate   = "PUT _template"
	OpCreateIndex   = "PUT index"
	OpDropIndex     = "DELETE index"
	OpIndexExists   = "HEAD index"
	OpRefresh       = "POST _refresh"
	OpCatIndices    = "GET _cat/indices"
	OpAliases       = "GET _aliases"
	OpAliasHolders  = "GET _alias"
	OpUpdateAliases = "POST _aliases"
	OpBulk          = "POST _bulk"
	OpSearch        = "POST _search"
	OpCount         = "POST _count"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// ResponseError is any non-success engine response, carried verbatim.
type ResponseError struct {
	Method string
	Path   string
	Status int
	Body   []byte
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Type returns the engine's error type (e.g. "index_not_found_exception"), or "".
func (e *ResponseError) Type() string {
	var parsed struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	if json.Unmarshal(e.Body, &parsed) != nil {
		return ""
	}
	return parsed.Error.Type
}

// Is maps engine error types onto the package sentinels.
func (e *ResponseError) Is(target error) bool {
	switch target {
	case ErrIndexNotFound:
		return e.Status == 404 && e.Type() == "index_not_found_exception"
	case ErrAliasNotFound:
		return e.Status == 404 && e.Type() == "aliases_not_found_exception"
	case ErrIndexExists:
		t := e.Type()
		return t == "resource_already_exists_exception" || t == "index_already_exists_exception"
	}
	return false
}
