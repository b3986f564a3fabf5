// Package engine keeps the dashboard resources synchronized with the server
// for the lifetime of one signed-in session.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/docwatch/internal/diff"
	"github.com/five82/docwatch/internal/docsops"
	"github.com/five82/docwatch/internal/poller"
	"github.com/five82/docwatch/internal/state"
)

const (
	DefaultPollInterval         = 3 * time.Second
	DefaultNotificationInterval = 15 * time.Second
)

// Resource names used in logs and metrics.
const (
	ResourceDocuments     = "documents"
	ResourceStats         = "stats"
	ResourceFolderStats   = "folder_stats"
	ResourceNotifications = "notifications"
)

// ErrStopped is returned by Start on an engine that was already stopped.
var ErrStopped = errors.New("engine stopped")

// Options configure an Engine.
type Options struct {
	Backend              docsops.Backend
	PollInterval         time.Duration // documents, stats, folder stats
	NotificationInterval time.Duration
	Clock                clockwork.Clock
	Logger               *zap.Logger
	Observer             poller.Observer
}

// Engine polls four resources on two cadences and publishes changes.
type Engine struct {
	backend       docsops.Backend
	clock         clockwork.Clock
	logger        *zap.Logger
	pollEvery     time.Duration
	notifyEvery   time.Duration
	changes       chan struct{}
	acknowledging atomic.Bool

	documents     *poller.Poller[[]docsops.Document]
	stats         *poller.Poller[docsops.DashboardStats]
	folders       *poller.Poller[docsops.FolderStats]
	notifications *poller.Poller[[]docsops.Notification]

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	stopped bool
	wg      sync.WaitGroup
}

// New builds an idle engine. Call Start to begin polling.
func New(opts Options) (*Engine, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	e := &Engine{
		backend:     opts.Backend,
		clock:       opts.Clock,
		logger:      opts.Logger,
		pollEvery:   opts.PollInterval,
		notifyEvery: opts.NotificationInterval,
		changes:     make(chan struct{}, 1),
	}
	if e.clock == nil {
		e.clock = clockwork.NewRealClock()
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.pollEvery <= 0 {
		e.pollEvery = DefaultPollInterval
	}
	if e.notifyEvery <= 0 {
		e.notifyEvery = DefaultNotificationInterval
	}
	e.logger = e.logger.With(zap.String("component", "engine"))

	e.documents = poller.New(poller.Config[[]docsops.Document]{
		Name:      ResourceDocuments,
		Fetch:     opts.Backend.FetchDocuments,
		Changed:   diff.Documents.Changed,
		Clone:     state.CloneSlice[docsops.Document],
		Empty:     state.EmptySlice[docsops.Document],
		Clock:     e.clock,
		Logger:    opts.Logger,
		Observer:  opts.Observer,
		OnPublish: e.signal,
	})
	e.stats = poller.New(poller.Config[docsops.DashboardStats]{
		Name:      ResourceStats,
		Fetch:     opts.Backend.FetchDashboardStats,
		Changed:   diff.StatsChanged,
		IsEmpty:   func(docsops.DashboardStats) bool { return false }, // all-zero counters are a real answer
		Clock:     e.clock,
		Logger:    opts.Logger,
		Observer:  opts.Observer,
		OnPublish: e.signal,
	})
	e.folders = poller.New(poller.Config[docsops.FolderStats]{
		Name:      ResourceFolderStats,
		Fetch:     opts.Backend.FetchFolderStats,
		Changed:   diff.FolderStatsChanged,
		IsEmpty:   func(f docsops.FolderStats) bool { return len(f) == 0 },
		Clone:     state.CloneFolderStats,
		Empty:     state.EmptyFolderStats,
		Clock:     e.clock,
		Logger:    opts.Logger,
		Observer:  opts.Observer,
		OnPublish: e.signal,
	})
	e.notifications = poller.New(poller.Config[[]docsops.Notification]{
		Name:      ResourceNotifications,
		Fetch:     opts.Backend.FetchNotifications,
		Changed:   diff.Notifications.Changed,
		Clone:     state.CloneSlice[docsops.Notification],
		Empty:     state.EmptySlice[docsops.Notification],
		Clock:     e.clock,
		Logger:    opts.Logger,
		Observer:  opts.Observer,
		OnPublish: e.signal,
	})
	return e, nil
}

// Changes delivers a coalesced signal whenever any resource publishes.
func (e *Engine) Changes() <-chan struct{} { return e.changes }

// Snapshot returns the composite dashboard view.
func (e *Engine) Snapshot() state.Dashboard {
	return state.Dashboard{
		Documents:     e.documents.View(),
		Stats:         e.stats.View(),
		Folders:       e.folders.View(),
		Notifications: e.notifications.View(),
	}
}

// Running reports whether the tick loops are active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Start loads every resource once, concurrently, then begins the background
// cadences. Initial failures are joined and returned, but polling starts
// regardless so the next tick can recover. ctx bounds the engine lifetime.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return ErrStopped
	}
	if e.running {
		e.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.running = true
	e.mu.Unlock()

	loaders := []func(context.Context, poller.Mode) error{
		e.documents.Load,
		e.stats.Load,
		e.folders.Load,
		e.notifications.Load,
	}
	errs := make([]error, len(loaders))
	var g errgroup.Group
	for i, load := range loaders {
		g.Go(func() error {
			errs[i] = load(runCtx, poller.Initial)
			return nil
		})
	}
	_ = g.Wait()
	err := errors.Join(errs...)
	if err != nil {
		e.logger.Warn("initial load incomplete", zap.Error(err))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || runCtx.Err() != nil {
		return err
	}
	e.wg.Add(2)
	go e.tickLoop(runCtx, e.pollEvery, e.documents.Load, e.stats.Load, e.folders.Load)
	go e.tickLoop(runCtx, e.notifyEvery, e.notifications.Load)
	e.logger.Info("polling started",
		zap.Duration("poll_interval", e.pollEvery),
		zap.Duration("notification_interval", e.notifyEvery),
	)
	return err
}

func (e *Engine) tickLoop(ctx context.Context, interval time.Duration, loaders ...func(context.Context, poller.Mode) error) {
	defer e.wg.Done()
	ticker := e.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			for _, load := range loaders {
				e.wg.Add(1)
				go func() {
					defer e.wg.Done()
					_ = load(ctx, poller.Silent)
				}()
			}
		}
	}
}

// Stop cancels the cadences and in-flight requests, waits for every poll
// goroutine to exit and clears all resources. No publish happens after Stop
// returns. Stop is idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	wasRunning := e.running
	e.running = false
	e.stopped = true
	if e.cancel != nil {
		e.cancel()
	}
	e.mu.Unlock()

	e.wg.Wait()
	e.documents.Reset()
	e.stats.Reset()
	e.folders.Reset()
	e.notifications.Reset()
	if wasRunning {
		e.logger.Info("polling stopped")
	}
	e.signal()
}

// RefreshDocuments force-reloads the document list.
func (e *Engine) RefreshDocuments(ctx context.Context) error { return e.documents.Refresh(ctx) }

// RefreshStats force-reloads the dashboard counters.
func (e *Engine) RefreshStats(ctx context.Context) error { return e.stats.Refresh(ctx) }

// RefreshFolderStats force-reloads the folder counters.
func (e *Engine) RefreshFolderStats(ctx context.Context) error { return e.folders.Refresh(ctx) }

// RefreshNotifications force-reloads notifications.
func (e *Engine) RefreshNotifications(ctx context.Context) error {
	return e.notifications.Refresh(ctx)
}

// RefreshAll force-reloads every resource concurrently.
func (e *Engine) RefreshAll(ctx context.Context) error {
	return e.parallel(ctx, e.RefreshDocuments, e.RefreshStats, e.RefreshFolderStats, e.RefreshNotifications)
}

// AcknowledgeNotifications marks every notification read when at least one
// is unread, then force-reloads notifications. It reports whether the
// mark-all-read request was issued. Overlapping calls issue one request.
func (e *Engine) AcknowledgeNotifications(ctx context.Context) (bool, error) {
	if docsops.CountUnread(e.notifications.View().Data) == 0 {
		return false, nil
	}
	if !e.acknowledging.CompareAndSwap(false, true) {
		return false, nil
	}
	defer e.acknowledging.Store(false)

	if err := e.backend.MarkAllNotificationsRead(ctx); err != nil {
		e.logger.Warn("mark notifications read failed", zap.Error(err))
		return true, fmt.Errorf("mark notifications read: %w", err)
	}
	if err := e.notifications.Refresh(ctx); err != nil && !poller.OnlySuperseded(err) {
		return true, err
	}
	return true, nil
}

// SearchDocuments queries the session's backend.
func (e *Engine) SearchDocuments(ctx context.Context, query string) ([]docsops.Document, error) {
	return e.backend.SearchDocuments(ctx, query)
}

// DeleteDocument soft-deletes a document and reloads the resources that
// count it.
func (e *Engine) DeleteDocument(ctx context.Context, id docsops.ID) error {
	if err := e.backend.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	e.logger.Info("document deleted", zap.String("document_id", string(id)))
	if err := e.parallel(ctx, e.RefreshDocuments, e.RefreshStats, e.RefreshFolderStats); err != nil && !poller.OnlySuperseded(err) {
		return err
	}
	return nil
}

func (e *Engine) parallel(ctx context.Context, fns ...func(context.Context) error) error {
	errs := make([]error, len(fns))
	var g errgroup.Group
	for i, fn := range fns {
		g.Go(func() error {
			errs[i] = fn(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (e *Engine) signal() {
	select {
	case e.changes <- struct{}{}:
	default:
	}
}
