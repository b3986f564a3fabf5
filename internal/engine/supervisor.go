package engine

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/five82/docwatch/internal/docsops"
	"github.com/five82/docwatch/internal/session"
	"github.com/five82/docwatch/internal/state"
)

// Factory builds an engine bound to one user's credentials.
type Factory func(user *session.User) (*Engine, error)

// Supervisor owns the single active poll session. A session exists exactly
// while a user is present; switching users tears the old one down first.
type Supervisor struct {
	ctx     context.Context
	factory Factory
	logger  *zap.Logger
	changes chan struct{}

	switchMu sync.Mutex // serializes SetUser

	mu      sync.Mutex
	user    *session.User
	engine  *Engine
	forward context.CancelFunc
	fwdWG   sync.WaitGroup
}

// NewSupervisor returns a supervisor with no session. ctx bounds every engine
// it starts.
func NewSupervisor(ctx context.Context, factory Factory, logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{
		ctx:     ctx,
		factory: factory,
		logger:  logger.With(zap.String("component", "supervisor")),
		changes: make(chan struct{}, 1),
	}
}

// Changes signals engine publishes and session transitions.
func (s *Supervisor) Changes() <-chan struct{} { return s.changes }

// User returns the signed-in user, or nil.
func (s *Supervisor) User() *session.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Current returns the active engine, or nil when signed out.
func (s *Supervisor) Current() *Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

// Snapshot returns the active engine's view, or an empty dashboard.
func (s *Supervisor) Snapshot() state.Dashboard {
	if eng := s.Current(); eng != nil {
		return eng.Snapshot()
	}
	return state.Dashboard{}
}

// SetUser reconciles the poll session with user presence. The same user is a
// no-op. A different or absent user stops the current engine; a present user
// then gets a fresh engine whose initial load error, if any, is returned.
// SetUser blocks for the initial load.
func (s *Supervisor) SetUser(user *session.User) error {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	s.mu.Lock()
	if s.user.Same(user) && (user == nil || s.engine != nil) {
		s.mu.Unlock()
		return nil
	}
	old, stopForward := s.engine, s.forward
	s.engine, s.forward, s.user = nil, nil, user
	s.mu.Unlock()

	if old != nil {
		if stopForward != nil {
			stopForward()
		}
		old.Stop()
		s.fwdWG.Wait()
		s.logger.Info("session ended")
	}
	if user == nil {
		s.signal()
		return nil
	}

	eng, err := s.factory(user)
	if err != nil {
		s.mu.Lock()
		s.user = nil
		s.mu.Unlock()
		s.signal()
		return fmt.Errorf("create engine: %w", err)
	}
	fwdCtx, cancel := context.WithCancel(s.ctx)
	s.mu.Lock()
	s.engine, s.forward = eng, cancel
	s.mu.Unlock()

	s.fwdWG.Add(1)
	go s.relay(fwdCtx, eng.Changes())
	s.logger.Info("session started", zap.String("user_id", user.ID))
	s.signal()
	return eng.Start(s.ctx)
}

// SearchDocuments runs query against the current session. Without one it
// fails with docsops.ErrUnauthenticated, so a Supervisor can serve as a
// session-aware search backend.
func (s *Supervisor) SearchDocuments(ctx context.Context, query string) ([]docsops.Document, error) {
	eng, err := s.active()
	if err != nil {
		return nil, err
	}
	return eng.SearchDocuments(ctx, query)
}

// RefreshAll force-reloads every resource of the current session.
func (s *Supervisor) RefreshAll(ctx context.Context) error {
	eng, err := s.active()
	if err != nil {
		return err
	}
	return eng.RefreshAll(ctx)
}

// AcknowledgeNotifications delegates to the current engine.
func (s *Supervisor) AcknowledgeNotifications(ctx context.Context) (bool, error) {
	eng, err := s.active()
	if err != nil {
		return false, err
	}
	return eng.AcknowledgeNotifications(ctx)
}

// DeleteDocument delegates to the current engine.
func (s *Supervisor) DeleteDocument(ctx context.Context, id docsops.ID) error {
	eng, err := s.active()
	if err != nil {
		return err
	}
	return eng.DeleteDocument(ctx, id)
}

func (s *Supervisor) active() (*Engine, error) {
	if eng := s.Current(); eng != nil {
		return eng, nil
	}
	return nil, fmt.Errorf("no active session: %w", docsops.ErrUnauthenticated)
}

// Close ends the current session.
func (s *Supervisor) Close() {
	_ = s.SetUser(nil)
}

func (s *Supervisor) relay(ctx context.Context, src <-chan struct{}) {
	defer s.fwdWG.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-src:
			s.signal()
		}
	}
}

func (s *Supervisor) signal() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}
