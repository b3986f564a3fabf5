package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/docwatch/internal/docsops"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	respond func(ctx context.Context, q string) ([]docsops.Document, error)
}

func (f *fakeSearcher) SearchDocuments(ctx context.Context, q string) ([]docsops.Document, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	respond := f.respond
	f.mu.Unlock()
	if respond == nil {
		return []docsops.Document{{ID: docsops.ID("r-" + q), Title: q}}, nil
	}
	return respond(ctx, q)
}

func (f *fakeSearcher) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

type countingObserver struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (c *countingObserver) ObserveQuery(outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.outcomes == nil {
		c.outcomes = map[string]int{}
	}
	c.outcomes[outcome]++
}

func (c *countingObserver) get(outcome string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcomes[outcome]
}

func newPipeline(t *testing.T, searcher Searcher, opts Options) (*Pipeline, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	opts.Searcher = searcher
	opts.Clock = clock
	p := New(context.Background(), opts)
	t.Cleanup(p.Close)
	return p, clock
}

func TestChange_RapidKeystrokesIssueOneQuery(t *testing.T) {
	searcher := &fakeSearcher{}
	p, clock := newPipeline(t, searcher, Options{})

	p.Change("a")
	clock.Advance(100 * time.Millisecond)
	p.Change("ab")
	clock.Advance(100 * time.Millisecond)
	p.Change("abc")
	assert.Equal(t, Debouncing, p.Snapshot().State)

	clock.Advance(299 * time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, searcher.seen(), "nothing before the quiet period ends")

	clock.Advance(time.Millisecond)
	require.Eventually(t, func() bool { return p.Snapshot().State == Results }, waitFor, tick)
	assert.Equal(t, []string{"abc"}, searcher.seen())

	snap := p.Snapshot()
	assert.Equal(t, "abc", snap.Query)
	assert.True(t, snap.ShowResults())
	assert.False(t, snap.IsSearching())
}

func TestChange_EmptyQueryClearsSynchronously(t *testing.T) {
	searcher := &fakeSearcher{}
	p, clock := newPipeline(t, searcher, Options{})

	p.Change("report")
	clock.Advance(DefaultDebounce)
	require.Eventually(t, func() bool { return p.Snapshot().ShowResults() }, waitFor, tick)

	p.Change("x")
	p.Change("   ")
	snap := p.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Empty(t, snap.Results)
	assert.False(t, snap.ShowResults())

	clock.Advance(time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []string{"report"}, searcher.seen(), "pending query was cancelled")
}

func TestRun_FiltersDeletedDocuments(t *testing.T) {
	searcher := &fakeSearcher{respond: func(context.Context, string) ([]docsops.Document, error) {
		return []docsops.Document{
			{ID: "d1", Title: "Live"},
			{ID: "d2", Title: "Gone", Status: "deleted"},
		}, nil
	}}
	p, clock := newPipeline(t, searcher, Options{})

	p.Change("doc")
	clock.Advance(DefaultDebounce)
	require.Eventually(t, func() bool { return p.Snapshot().State == Results }, waitFor, tick)

	results := p.Snapshot().Results
	require.Len(t, results, 1)
	assert.Equal(t, docsops.ID("d1"), results[0].ID)
}

func TestRun_OnlyDeletedResultsIsEmpty(t *testing.T) {
	searcher := &fakeSearcher{respond: func(context.Context, string) ([]docsops.Document, error) {
		return []docsops.Document{{ID: "d2", Status: "deleted"}}, nil
	}}
	p, clock := newPipeline(t, searcher, Options{})

	p.Change("doc")
	clock.Advance(DefaultDebounce)
	require.Eventually(t, func() bool { return p.Snapshot().State == Empty }, waitFor, tick)
	assert.False(t, p.Snapshot().ShowResults())
}

func TestRun_StaleResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	searcher := &fakeSearcher{respond: func(ctx context.Context, q string) ([]docsops.Document, error) {
		if q == "a" {
			started <- struct{}{}
			<-release
			return []docsops.Document{{ID: "old"}}, nil
		}
		return []docsops.Document{{ID: "new"}}, nil
	}}
	p, clock := newPipeline(t, searcher, Options{})

	p.Change("a")
	clock.Advance(DefaultDebounce)
	<-started
	require.Eventually(t, func() bool { return p.Snapshot().IsSearching() }, waitFor, tick)

	p.Change("ab")
	clock.Advance(DefaultDebounce)
	require.Eventually(t, func() bool { return p.Snapshot().State == Results }, waitFor, tick)

	close(release)
	time.Sleep(20 * time.Millisecond)
	results := p.Snapshot().Results
	require.Len(t, results, 1)
	assert.Equal(t, docsops.ID("new"), results[0].ID)
}

func TestRun_SupersededRequestIsCancelled(t *testing.T) {
	cancelled := make(chan struct{})
	started := make(chan struct{})
	searcher := &fakeSearcher{respond: func(ctx context.Context, q string) ([]docsops.Document, error) {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return nil, ctx.Err()
	}}
	p, clock := newPipeline(t, searcher, Options{})

	p.Change("slow")
	clock.Advance(DefaultDebounce)
	<-started
	p.Change("")

	select {
	case <-cancelled:
	case <-time.After(waitFor):
		t.Fatal("in-flight request was not cancelled")
	}
	assert.Equal(t, Idle, p.Snapshot().State)
}

func TestRun_ErrorClearsResults(t *testing.T) {
	obs := &countingObserver{}
	searcher := &fakeSearcher{respond: func(context.Context, string) ([]docsops.Document, error) {
		return nil, docsops.ErrNetwork
	}}
	p, clock := newPipeline(t, searcher, Options{Observer: obs})

	p.Change("doc")
	clock.Advance(DefaultDebounce)
	require.Eventually(t, func() bool { return p.Snapshot().State == Empty }, waitFor, tick)

	snap := p.Snapshot()
	assert.True(t, errors.Is(snap.Err, docsops.ErrNetwork))
	assert.Empty(t, snap.Results)
	assert.False(t, snap.ShowResults())
	assert.Equal(t, 1, obs.get("failed"))
}

func TestRun_CacheHitStillDebounces(t *testing.T) {
	obs := &countingObserver{}
	searcher := &fakeSearcher{}
	p, clock := newPipeline(t, searcher, Options{CacheSize: 8, CacheTTL: time.Minute, Observer: obs})

	p.Change("inv")
	clock.Advance(DefaultDebounce)
	require.Eventually(t, func() bool { return p.Snapshot().State == Results }, waitFor, tick)

	p.Change("")
	p.Change("inv")
	assert.Equal(t, Debouncing, p.Snapshot().State)
	clock.Advance(DefaultDebounce)
	require.Eventually(t, func() bool { return p.Snapshot().State == Results }, waitFor, tick)

	assert.Equal(t, []string{"inv"}, searcher.seen())
	assert.Equal(t, 1, obs.get("cached"))
}

func TestDismissFocusSelect(t *testing.T) {
	var changes int
	var mu sync.Mutex
	searcher := &fakeSearcher{}
	p, clock := newPipeline(t, searcher, Options{OnChange: func() {
		mu.Lock()
		changes++
		mu.Unlock()
	}})

	p.Focus()
	assert.False(t, p.Snapshot().Visible, "nothing to show yet")

	p.Change("memo")
	clock.Advance(DefaultDebounce)
	require.Eventually(t, func() bool { return p.Snapshot().ShowResults() }, waitFor, tick)

	p.Dismiss()
	snap := p.Snapshot()
	assert.False(t, snap.ShowResults())
	assert.Len(t, snap.Results, 1, "dismiss keeps results")

	p.Focus()
	assert.True(t, p.Snapshot().ShowResults())

	doc, ok := p.Select(0)
	require.True(t, ok)
	assert.Equal(t, docsops.ID("r-memo"), doc.ID)
	snap = p.Snapshot()
	assert.Empty(t, snap.Query)
	assert.Empty(t, snap.Results)

	_, ok = p.Select(3)
	assert.False(t, ok)

	mu.Lock()
	defer mu.Unlock()
	assert.Greater(t, changes, 3)
}

func TestNilSearcherReportsUnauthenticated(t *testing.T) {
	p, clock := newPipeline(t, nil, Options{})
	p.Change("doc")
	clock.Advance(DefaultDebounce)
	require.Eventually(t, func() bool { return p.Snapshot().State == Empty }, waitFor, tick)
	assert.ErrorIs(t, p.Snapshot().Err, docsops.ErrUnauthenticated)
}

func TestClose_StopsPendingQuery(t *testing.T) {
	searcher := &fakeSearcher{}
	p, clock := newPipeline(t, searcher, Options{})
	p.Change("doc")
	p.Close()
	clock.Advance(time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, searcher.seen())

	p.Change("again")
	assert.Equal(t, "doc", p.Snapshot().Query, "closed pipeline ignores input")
}
