// Package search runs the dashboard's debounced document search.
//
// Every keystroke supersedes the previous one: the pending delay restarts and
// any request already in flight is cancelled. Results from a superseded query
// are dropped.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/five82/docwatch/internal/docsops"
)

// DefaultDebounce is the quiet period before a query is sent.
const DefaultDebounce = 300 * time.Millisecond

// State is the pipeline phase.
type State int

const (
	Idle State = iota
	Debouncing
	Searching
	Results
	Empty
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Debouncing:
		return "debouncing"
	case Searching:
		return "searching"
	case Results:
		return "results"
	case Empty:
		return "empty"
	default:
		return "unknown"
	}
}

// Searcher issues the remote query. docsops.Client implements it.
type Searcher interface {
	SearchDocuments(ctx context.Context, query string) ([]docsops.Document, error)
}

// Observer counts query outcomes.
type Observer interface {
	ObserveQuery(outcome string)
}

// Options configure a Pipeline.
type Options struct {
	Searcher  Searcher
	Debounce  time.Duration
	CacheSize int           // zero disables the cache
	CacheTTL  time.Duration // zero keeps entries until evicted
	Clock     clockwork.Clock
	Logger    *zap.Logger
	Observer  Observer
	OnChange  func()
}

// Snapshot is the presentation view of the pipeline.
type Snapshot struct {
	Query   string
	Results []docsops.Document
	State   State
	Err     error
	Visible bool
}

// IsSearching reports whether a request is in flight.
func (s Snapshot) IsSearching() bool { return s.State == Searching }

// ShowResults reports whether the results popover should render.
func (s Snapshot) ShowResults() bool { return s.Visible && len(s.Results) > 0 }

// Pipeline debounces queries and tracks the newest result.
type Pipeline struct {
	ctx      context.Context
	debounce time.Duration
	clock    clockwork.Clock
	logger   *zap.Logger
	observer Observer
	onChange func()
	cache    *expirable.LRU[string, []docsops.Document]

	mu       sync.Mutex
	searcher Searcher
	query    string
	results  []docsops.Document
	state    State
	err      error
	visible  bool
	seq      uint64
	timer    clockwork.Timer
	cancel   context.CancelFunc
	closed   bool
}

// New returns an idle pipeline. ctx bounds every request it issues.
func New(ctx context.Context, opts Options) *Pipeline {
	p := &Pipeline{
		ctx:      ctx,
		debounce: opts.Debounce,
		clock:    opts.Clock,
		logger:   opts.Logger,
		observer: opts.Observer,
		onChange: opts.OnChange,
		searcher: opts.Searcher,
		results:  []docsops.Document{},
	}
	if p.debounce <= 0 {
		p.debounce = DefaultDebounce
	}
	if p.clock == nil {
		p.clock = clockwork.NewRealClock()
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	p.logger = p.logger.With(zap.String("component", "search"))
	if opts.CacheSize > 0 {
		p.cache = expirable.NewLRU[string, []docsops.Document](opts.CacheSize, nil, opts.CacheTTL)
	}
	return p
}

// SetOnChange replaces the change callback.
func (p *Pipeline) SetOnChange(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

// SetSearcher swaps the backend, typically on a session change. The cache
// and current results are discarded.
func (p *Pipeline) SetSearcher(s Searcher) {
	p.mu.Lock()
	p.searcher = s
	if p.cache != nil {
		p.cache.Purge()
	}
	p.mu.Unlock()
	p.Change("")
}

// Change records a new query. A blank query clears results immediately;
// anything else restarts the debounce delay.
func (p *Pipeline) Change(query string) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.query = query
	p.seq++
	p.stopPendingLocked()

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		p.results = []docsops.Document{}
		p.state = Idle
		p.err = nil
		p.visible = false
	} else {
		seq := p.seq
		p.state = Debouncing
		p.timer = p.clock.AfterFunc(p.debounce, func() { p.run(seq, trimmed) })
	}
	notify := p.onChange
	p.mu.Unlock()
	call(notify)
}

// Clear is Change("").
func (p *Pipeline) Clear() { p.Change("") }

// Dismiss hides the results popover and keeps the results.
func (p *Pipeline) Dismiss() {
	p.setVisible(false)
}

// Focus shows the popover again when results exist.
func (p *Pipeline) Focus() {
	p.setVisible(true)
}

// Select returns the i-th result and clears the search.
func (p *Pipeline) Select(i int) (docsops.Document, bool) {
	p.mu.Lock()
	if i < 0 || i >= len(p.results) {
		p.mu.Unlock()
		return docsops.Document{}, false
	}
	doc := p.results[i]
	p.mu.Unlock()
	p.Change("")
	return doc, true
}

// Snapshot returns a copy of the pipeline state.
func (p *Pipeline) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		Query:   p.query,
		Results: append([]docsops.Document{}, p.results...),
		State:   p.state,
		Err:     p.err,
		Visible: p.visible,
	}
}

// Close stops the pending timer and cancels any in-flight request.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.seq++
	p.stopPendingLocked()
}

func (p *Pipeline) run(seq uint64, query string) {
	p.mu.Lock()
	if seq != p.seq || p.closed {
		p.mu.Unlock()
		return
	}
	if p.cache != nil {
		if docs, ok := p.cache.Get(query); ok {
			p.applyLocked(docs, nil)
			notify := p.onChange
			p.mu.Unlock()
			p.observe("cached")
			call(notify)
			return
		}
	}
	searcher := p.searcher
	ctx, cancel := context.WithCancel(p.ctx)
	p.cancel = cancel
	p.state = Searching
	notify := p.onChange
	p.mu.Unlock()
	call(notify)

	var docs []docsops.Document
	err := docsops.ErrUnauthenticated
	if searcher != nil {
		docs, err = searcher.SearchDocuments(ctx, query)
	}
	cancel()

	p.mu.Lock()
	if seq != p.seq {
		p.mu.Unlock()
		p.observe("stale")
		return
	}
	p.cancel = nil
	outcome := "results"
	if err != nil {
		p.logger.Warn("search failed", zap.String("query", query), zap.Error(err))
		outcome = "failed"
		p.applyLocked(nil, err)
	} else {
		docs = activeOnly(docs)
		if p.cache != nil {
			p.cache.Add(query, docs)
		}
		p.applyLocked(docs, nil)
		if len(docs) == 0 {
			outcome = "empty"
		}
	}
	notify = p.onChange
	p.mu.Unlock()
	p.observe(outcome)
	call(notify)
}

func (p *Pipeline) applyLocked(docs []docsops.Document, err error) {
	p.results = append([]docsops.Document{}, docs...)
	p.err = err
	p.visible = len(p.results) > 0
	if len(p.results) > 0 {
		p.state = Results
	} else {
		p.state = Empty
	}
}

func (p *Pipeline) setVisible(v bool) {
	p.mu.Lock()
	changed := p.visible != (v && len(p.results) > 0)
	p.visible = v && len(p.results) > 0
	notify := p.onChange
	p.mu.Unlock()
	if changed {
		call(notify)
	}
}

func (p *Pipeline) stopPendingLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Pipeline) observe(outcome string) {
	if p.observer != nil {
		p.observer.ObserveQuery(outcome)
	}
}

func activeOnly(docs []docsops.Document) []docsops.Document {
	out := make([]docsops.Document, 0, len(docs))
	for _, d := range docs {
		if !d.IsDeleted() {
			out = append(out, d)
		}
	}
	return out
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
