package pariah

import (
	"errors"

	"github.com/kailas-cloud/pariah/internal/db"
	"github.com/kailas-cloud/pariah/internal/domain/index"
)

// Sentinel errors. Use errors.Is() to check.
var (
	// ErrConnection matches every *ConnectionError.
	ErrConnection = errors.New("pariah: bad engine connection")
	// ErrNotSingleIndex is returned by operations that need exactly one target index.
	ErrNotSingleIndex = errors.New("pariah: dataset must target exactly one index")
	// ErrNotSingleType is returned by writes when more than one type is selected.
	ErrNotSingleType = errors.New("pariah: dataset must target at most one type")
	// ErrUnboundDataset is returned by actions on a Dataset that did not come
	// from Client.Dataset or Client.Index, such as the zero value.
	ErrUnboundDataset = errors.New("pariah: dataset is not bound to a client")

	ErrIndexNotFound = db.ErrIndexNotFound
	ErrIndexExists   = db.ErrIndexExists
	ErrAliasNotFound = db.ErrAliasNotFound
	ErrInvalidName   = index.ErrInvalidName
)

// ResponseError is any non-success engine response. Status and Body are the
// engine's own; use Type() for the engine error type.
type ResponseError = db.ResponseError

// ConnectionError reports a failed health check or template install while
// connecting. The client is unusable.
type ConnectionError struct {
	Stage string
	Err   error
}

func (e *ConnectionError) Error() string {
	return "pariah: bad engine connection: " + e.Stage + ": " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrConnection) hold.
func (e *ConnectionError) Is(target error) bool { return target == ErrConnection }
