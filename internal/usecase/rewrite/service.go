// Package rewrite rebuilds an index behind an alias: a fresh physical index is
// created and populated, then the alias is moved to it in one atomic update.
//
// Rewrites of the same alias are not coordinated. Two concurrent calls race on
// the final alias update and the last one to complete wins.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pariah/internal/db"
	"github.com/kailas-cloud/pariah/internal/domain/index"
	"github.com/kailas-cloud/pariah/internal/metrics"
)

// State is a step of the rewrite state machine.
type State string

// Rewrite states. Success runs Init → IndexEnsured → Populated → AliasSwapped;
// a populate failure ends in Dropped or Preserved.
const (
	StateInit         State = "init"
	StateIndexEnsured State = "index_ensured"
	StatePopulated    State = "populated"
	StateAliasSwapped State = "alias_swapped"
	StateFailed       State = "population_failed"
	StateDropped      State = "dropped"
	StatePreserved    State = "preserved"
)

// ErrSameName is returned when the physical index would shadow its alias.
var ErrSameName = errors.New("physical index name equals alias")

// Params configure a single rewrite.
type Params struct {
	Alias  string
	Schema index.Schema
	// IndexName resumes population of an existing physical index; empty
	// generates a new one.
	IndexName string
	// KeepProgressOnError leaves a partially populated index in place when
	// populate fails, so a later call with IndexName can resume it.
	KeepProgressOnError bool
}

// Result describes a completed rewrite.
type Result struct {
	Index   string
	Created bool
	// Replaced lists the indices the alias was moved away from.
	Replaced []string
}

// Service runs rewrites.
type Service struct {
	store  Store
	namer  *index.Namer
	logger *zap.Logger
}

// New creates a Service. logger may be nil.
func New(store Store, namer *index.Namer, logger *zap.Logger) *Service {
	if namer == nil {
		namer = index.NewNamer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, namer: namer, logger: logger}
}

// Run rebuilds p.Alias with populate. A populate error is returned as is,
// after the partial index has been dropped or preserved; the alias is never
// touched on that path. A panic in populate gets the same treatment and is
// then re-raised.
func (s *Service) Run(ctx context.Context, p Params, populate PopulateFunc) (Result, error) {
	if err := index.ValidateName(p.Alias); err != nil {
		return Result{}, fmt.Errorf("alias: %w", err)
	}
	physical := p.IndexName
	if physical == "" {
		physical = s.namer.Next(p.Alias)
	} else if err := index.ValidateName(physical); err != nil {
		return Result{}, fmt.Errorf("index name: %w", err)
	}
	if physical == p.Alias {
		return Result{}, ErrSameName
	}

	log := s.logger.With(zap.String("alias", p.Alias), zap.String("index", physical))
	start := time.Now()
	s.transition(log, p.Alias, StateInit)

	created, err := s.ensure(ctx, physical, p.Schema)
	if err != nil {
		return Result{}, err
	}
	s.transition(log, p.Alias, StateIndexEnsured, zap.Bool("created", created))

	if err := s.populate(ctx, log, p, physical, created, populate); err != nil {
		return Result{}, err
	}
	s.transition(log, p.Alias, StatePopulated)

	replaced, err := s.swap(ctx, p.Alias, physical)
	if err != nil {
		log.Error("alias swap failed, populated index kept", zap.Error(err))
		return Result{}, err
	}
	s.transition(log, p.Alias, StateAliasSwapped,
		zap.Strings("replaced", replaced),
		zap.Duration("duration", time.Since(start)))

	return Result{Index: physical, Created: created, Replaced: replaced}, nil
}

// ensure creates the physical index unless it already exists (resume).
func (s *Service) ensure(ctx context.Context, physical string, schema index.Schema) (bool, error) {
	exists, err := s.store.IndexExists(ctx, physical)
	if err != nil {
		return false, fmt.Errorf("check index exists: %w", err)
	}
	if exists {
		return false, nil
	}
	if err := s.store.CreateIndex(ctx, physical, schema); err != nil {
		return false, fmt.Errorf("create index %s: %w", physical, err)
	}
	return true, nil
}

func (s *Service) populate(
	ctx context.Context, log *zap.Logger, p Params, physical string, created bool, fn PopulateFunc,
) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.abandon(ctx, log, p, physical, created, fmt.Errorf("panic: %v", r))
			panic(r)
		}
	}()

	if err := fn(ctx, physical); err != nil {
		s.abandon(ctx, log, p, physical, created, err)
		return err
	}
	return nil
}

// abandon applies the drop-or-preserve decision after a failed populate.
// Only an index created by this run is dropped: a resumed index may already
// serve the alias. Cleanup errors are logged so the caller still sees the
// populate error.
func (s *Service) abandon(ctx context.Context, log *zap.Logger, p Params, physical string, created bool, cause error) {
	s.transition(log, p.Alias, StateFailed, zap.Error(cause))

	if p.KeepProgressOnError || !created {
		s.transition(log, p.Alias, StatePreserved)
		return
	}

	// The caller's context may be what failed; cleanup must still run.
	cleanupCtx := context.WithoutCancel(ctx)
	if err := s.store.DropIndex(cleanupCtx, physical); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		log.Error("drop partial index failed", zap.Error(err))
		return
	}
	s.transition(log, p.Alias, StateDropped)
}

// swap moves alias to physical in a single alias update. A concrete index
// squatting on the alias name is removed in the same update.
func (s *Service) swap(ctx context.Context, alias, physical string) ([]string, error) {
	holders, err := s.store.AliasHolders(ctx, alias)
	if err != nil {
		return nil, fmt.Errorf("resolve alias %s: %w", alias, err)
	}

	var actions []db.AliasAction
	var replaced []string
	for _, h := range holders {
		if h == physical {
			continue
		}
		actions = append(actions, db.AliasAction{Type: db.AliasRemove, Index: h, Alias: alias})
		replaced = append(replaced, h)
	}

	if len(holders) == 0 {
		concrete, err := s.store.IndexExists(ctx, alias)
		if err != nil {
			return nil, fmt.Errorf("check index exists: %w", err)
		}
		if concrete {
			actions = append(actions, db.AliasAction{Type: db.AliasRemoveIndex, Index: alias})
			replaced = append(replaced, alias)
		}
	}

	actions = append(actions, db.AliasAction{Type: db.AliasAdd, Index: physical, Alias: alias})
	if err := s.store.UpdateAliases(ctx, actions); err != nil {
		return nil, fmt.Errorf("swap alias %s: %w", alias, err)
	}
	return replaced, nil
}

func (s *Service) transition(log *zap.Logger, alias string, state State, fields ...zap.Field) {
	metrics.RewritesTotal.WithLabelValues(alias, string(state)).Inc()
	log.Info("rewrite state", append([]zap.Field{zap.String("state", string(state))}, fields...)...)
}
