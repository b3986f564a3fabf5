package state

import (
	"fmt"
	"sync"
	"time"
)

// Resource is the presentation view of one polled server resource.
type Resource[T any] struct {
	Data                T
	Loading             bool
	Loaded              bool // a load has completed since the last reset
	LastError           error
	LastUpdated         time.Time
	ConsecutiveFailures int    // failed loads since the last success
	Version             uint64 // increments on every publish
}

// IsOffline returns true when the resource has failed repeatedly.
func (r Resource[T]) IsOffline() bool {
	return r.ConsecutiveFailures >= 2
}

// Cell holds the published value of a resource together with the reference
// copy used for change detection. Both are replaced under one lock so a
// reader never observes them out of step.
type Cell[T any] struct {
	mu        sync.RWMutex
	clone     func(T) T
	empty     func() T
	published Resource[T]
	reference T
	hasRef    bool // reference holds a published value
}

// NewCell returns a cell starting at empty(). clone copies values crossing
// the lock boundary; nil clone copies by assignment.
func NewCell[T any](clone func(T) T, empty func() T) *Cell[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	if empty == nil {
		empty = func() T {
			var zero T
			return zero
		}
	}
	c := &Cell[T]{clone: clone, empty: empty}
	c.published.Data = empty()
	c.reference = empty()
	return c
}

// Snapshot returns a copy of the published resource.
func (c *Cell[T]) Snapshot() Resource[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := c.published
	snap.Data = c.clone(c.published.Data)
	if c.published.LastError != nil {
		snap.LastError = fmt.Errorf("%w", c.published.LastError)
	}
	return snap
}

// Reference returns a copy of the last published value.
func (c *Cell[T]) Reference() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clone(c.reference)
}

// HasReference reports whether a value has been published since the last
// Clear or Reset. A published zero value counts.
func (c *Cell[T]) HasReference() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hasRef
}

// SetLoading toggles the loading flag.
func (c *Cell[T]) SetLoading(loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published.Loading = loading
}

// Publish replaces both the published value and the reference copy.
func (c *Cell[T]) Publish(data T, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.published.Data = c.clone(data)
	c.reference = c.clone(data)
	c.hasRef = true
	c.published.Loaded = true
	c.published.LastError = nil
	c.published.LastUpdated = now
	c.published.ConsecutiveFailures = 0
	c.published.Version++
}

// Clear resets the value to empty and records err. Used when an explicit
// load fails.
func (c *Cell[T]) Clear(err error, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.published.Data = c.empty()
	c.reference = c.empty()
	c.hasRef = false
	c.published.Loaded = true
	c.published.LastError = err
	c.published.LastUpdated = now
	c.published.ConsecutiveFailures++
	c.published.Version++
}

// RecordFailure counts a failed background load. The previous data, the
// last error and the version are kept, so observers see no publish.
func (c *Cell[T]) RecordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published.ConsecutiveFailures++
}

// Reset returns the cell to its never-loaded state.
func (c *Cell[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.published = Resource[T]{Data: c.empty()}
	c.reference = c.empty()
	c.hasRef = false
}
