// Package poller keeps one server resource mirrored into a state.Cell.
//
// A Poller fetches on demand in one of three modes. Initial and Forced loads
// always publish and drive the loading flag. Silent loads publish only when
// the result differs from the last published value, and they never disturb
// the UI on failure.
package poller

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/five82/docwatch/internal/state"
)

// Mode selects how a load treats its result.
type Mode int

const (
	// Initial populates an empty resource. Skipped once data is present.
	Initial Mode = iota
	// Silent is a background refresh that publishes only on change.
	Silent
	// Forced is a user-requested reload that always publishes.
	Forced
)

func (m Mode) String() string {
	switch m {
	case Initial:
		return "initial"
	case Silent:
		return "silent"
	case Forced:
		return "forced"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Outcome classifies how a load ended.
type Outcome string

const (
	OutcomePublished Outcome = "published"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeStale     Outcome = "stale"
	OutcomeFailed    Outcome = "failed"
)

// ErrSuperseded is returned by a Forced load whose successful result was
// discarded because a newer load had already been applied.
var ErrSuperseded = errors.New("superseded by a newer load")

// OnlySuperseded reports whether err is non-nil and every error joined into
// it wraps ErrSuperseded.
func OnlySuperseded(err error) bool {
	if err == nil {
		return false
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if !OnlySuperseded(e) {
				return false
			}
		}
		return true
	}
	return errors.Is(err, ErrSuperseded)
}

// Observer receives one call per load. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveLoad(resource string, mode Mode, outcome Outcome, elapsed time.Duration)
}

// Config describes one resource.
type Config[T any] struct {
	Name  string
	Fetch func(ctx context.Context) (T, error)

	Changed func(prev, next T) bool // nil compares by deep equality
	IsEmpty func(T) bool            // applied to published values; nil treats zero values and empty collections as empty
	Clone   func(T) T
	Empty   func() T

	Clock     clockwork.Clock
	Logger    *zap.Logger
	Observer  Observer
	OnPublish func()
}

// Poller owns a resource cell. It is the only writer of that cell.
type Poller[T any] struct {
	cfg    Config[T]
	cell   *state.Cell[T]
	clock  clockwork.Clock
	logger *zap.Logger

	mu         sync.Mutex
	issued     uint64 // last sequence number handed out
	applied    uint64 // newest sequence number whose result was applied
	generation uint64 // bumped by Reset
	inFlight   int    // explicit loads holding the loading flag

	silentBusy atomic.Bool
}

// New builds a poller from cfg.
func New[T any](cfg Config[T]) *Poller[T] {
	if cfg.Fetch == nil {
		panic("poller: Fetch is required")
	}
	if cfg.Changed == nil {
		cfg.Changed = func(prev, next T) bool { return !reflect.DeepEqual(prev, next) }
	}
	if cfg.IsEmpty == nil {
		cfg.IsEmpty = isEmpty[T]
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller[T]{
		cfg:    cfg,
		cell:   state.NewCell(cfg.Clone, cfg.Empty),
		clock:  clock,
		logger: logger.With(zap.String("component", "poller"), zap.String("resource", cfg.Name)),
	}
}

// Name returns the resource name.
func (p *Poller[T]) Name() string { return p.cfg.Name }

// View returns the current published resource.
func (p *Poller[T]) View() state.Resource[T] { return p.cell.Snapshot() }

// Refresh is Load with Forced mode.
func (p *Poller[T]) Refresh(ctx context.Context) error { return p.Load(ctx, Forced) }

// Reset discards the published value and invalidates every load in flight.
func (p *Poller[T]) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++
	p.applied = p.issued
	p.inFlight = 0
	p.cell.Reset()
}

// Load fetches the resource and applies the result according to mode.
// Initial and Forced failures clear the resource and return the error.
// Silent failures keep the previous value and return nil. A Forced load
// overtaken by a newer applied load returns its own fetch error, or
// ErrSuperseded when the fetch succeeded.
func (p *Poller[T]) Load(ctx context.Context, mode Mode) error {
	switch mode {
	case Initial:
		if p.cell.HasReference() && !p.cfg.IsEmpty(p.cell.Reference()) {
			p.observe(mode, OutcomeSkipped, 0)
			return nil
		}
	case Silent:
		if !p.silentBusy.CompareAndSwap(false, true) {
			p.logger.Debug("previous refresh still running, skipping tick")
			p.observe(mode, OutcomeSkipped, 0)
			return nil
		}
		defer p.silentBusy.Store(false)
	}
	explicit := mode != Silent

	p.mu.Lock()
	p.issued++
	seq, gen := p.issued, p.generation
	if explicit {
		p.inFlight++
		p.cell.SetLoading(true)
	}
	p.mu.Unlock()

	started := p.clock.Now()
	data, err := p.cfg.Fetch(ctx)
	elapsed := p.clock.Since(started)

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation {
		p.observe(mode, OutcomeStale, elapsed)
		return nil
	}
	if explicit {
		p.inFlight--
		if p.inFlight == 0 {
			p.cell.SetLoading(false)
		}
	}
	if seq < p.applied {
		p.logger.Debug("discarding result older than the published one", zap.Stringer("mode", mode))
		p.observe(mode, OutcomeStale, elapsed)
		if mode != Forced {
			return nil
		}
		if err == nil {
			err = ErrSuperseded
		}
		return fmt.Errorf("load %s: %w", p.cfg.Name, err)
	}

	if err != nil {
		p.observe(mode, OutcomeFailed, elapsed)
		if explicit {
			p.applied = seq
			p.cell.Clear(err, p.clock.Now())
			p.notify()
			p.logger.Warn("load failed", zap.Stringer("mode", mode), zap.Error(err))
			return fmt.Errorf("load %s: %w", p.cfg.Name, err)
		}
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return nil
		}
		p.cell.RecordFailure()
		p.logger.Warn("background refresh failed, keeping previous data", zap.Error(err))
		return nil
	}

	if !explicit && p.cell.HasReference() {
		if ref := p.cell.Reference(); !p.cfg.IsEmpty(ref) && !p.cfg.Changed(ref, data) {
			p.applied = seq
			p.observe(mode, OutcomeUnchanged, elapsed)
			return nil
		}
	}

	p.applied = seq
	p.cell.Publish(data, p.clock.Now())
	p.observe(mode, OutcomePublished, elapsed)
	p.notify()
	return nil
}

func (p *Poller[T]) notify() {
	if p.cfg.OnPublish != nil {
		p.cfg.OnPublish()
	}
}

func (p *Poller[T]) observe(mode Mode, outcome Outcome, elapsed time.Duration) {
	if p.cfg.Observer != nil {
		p.cfg.Observer.ObserveLoad(p.cfg.Name, mode, outcome, elapsed)
	}
}

func isEmpty[T any](v T) bool {
	rv := reflect.ValueOf(&v).Elem()
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
		return rv.Len() == 0
	default:
		return rv.IsZero()
	}
}
