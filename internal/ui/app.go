package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/docwatch/internal/docsops"
	"github.com/five82/docwatch/internal/logtail"
	"github.com/five82/docwatch/internal/overlay"
	"github.com/five82/docwatch/internal/poller"
	"github.com/five82/docwatch/internal/prefs"
	"github.com/five82/docwatch/internal/search"
	"github.com/five82/docwatch/internal/session"
	"github.com/five82/docwatch/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewDocuments View = iota
	ViewLogs
)

// Sessions is the poll session surface the UI drives. *engine.Supervisor
// implements it.
type Sessions interface {
	Changes() <-chan struct{}
	Snapshot() state.Dashboard
	User() *session.User
	SetUser(user *session.User) error
	RefreshAll(ctx context.Context) error
	AcknowledgeNotifications(ctx context.Context) (bool, error)
	DeleteDocument(ctx context.Context, id docsops.ID) error
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Sessions  Sessions
	Search    *search.Pipeline
	SignIn    func() (*session.User, error) // resolves credentials for "s"
	PublicURL func(storagePath string) string
	LogPath   string
	ThemeName string
	Filter    prefs.Filter
	PrefsPath string
	Logger    *zap.Logger
	Now       func() time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	sessions  Sessions
	pipeline  *search.Pipeline
	signIn    func() (*session.User, error)
	publicURL func(string) string
	logPath   string
	prefsPath string
	logger    *zap.Logger
	now       func() time.Time
	keys      keyMap
	bridge    *bridge

	// Popovers
	overlays      *overlay.Controller
	notifications *overlay.Handle
	profile       *overlay.Handle
	results       *overlay.Handle

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool

	// Data state
	dash   state.Dashboard
	user   *session.User
	query  search.Snapshot
	status statusLine

	// Documents state
	selectedRow   int
	filter        prefs.Filter
	confirmDelete docsops.ID
	busy          bool // a session switch is in flight

	// Search state
	searchInput  textinput.Model
	searchCursor int

	// Log state
	logViewport viewport.Model
	logState    logState
}

// statusLine is a transient message shown under the documents table.
type statusLine struct {
	text  string
	isErr bool
	at    time.Time
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = themeOrder[0]
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	filter := opts.Filter
	if !filter.Valid() {
		filter = prefs.FilterAll
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	publicURL := opts.PublicURL
	if publicURL == nil {
		publicURL = func(p string) string { return p }
	}

	ti := textinput.New()
	ti.Placeholder = "Search documents..."
	ti.Prompt = "/ "
	ti.CharLimit = 120

	b := newBridge()
	m := Model{
		ctx:         ctx,
		sessions:    opts.Sessions,
		pipeline:    opts.Search,
		signIn:      opts.SignIn,
		publicURL:   publicURL,
		logPath:     opts.LogPath,
		prefsPath:   prefsPath,
		logger:      logger.With(zap.String("component", "ui")),
		now:         now,
		keys:        DefaultKeyMap(),
		bridge:      b,
		theme:       GetTheme(themeName),
		currentView: ViewDocuments,
		filter:      filter,
		searchInput: ti,
		logState:    newLogState(),
	}

	m.overlays = overlay.New(b.mouse)
	m.notifications = m.overlays.Register(overlay.NotificationsPanel, overlay.Options{
		OnOpen: func() { b.queue(acknowledgeCmd(ctx, opts.Sessions)) },
	})
	m.profile = m.overlays.Register(overlay.ProfileMenu, overlay.Options{})
	m.results = m.overlays.Register(overlay.SearchResults, overlay.Options{
		OnClose: func() {
			if opts.Search != nil {
				opts.Search.Dismiss()
			}
		},
	})
	if opts.Search != nil {
		opts.Search.SetOnChange(b.searchChanged)
	}
	if opts.Sessions != nil {
		m.dash = opts.Sessions.Snapshot()
		m.user = opts.Sessions.User()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(DefaultUIInterval),
		waitForSearch(m.bridge.search),
	}
	if m.sessions != nil {
		cmds = append(cmds, waitForDashboard(m.sessions.Changes()))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model. Commands queued by popover hooks during the
// update are batched with the returned command.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	pending := m.bridge.drain()
	if len(pending) == 0 {
		return next, cmd
	}
	return next, tea.Batch(append(pending, cmd)...)
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layoutOverlays()
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case dashboardMsg:
		m.refreshDashboard()
		return m, waitForDashboard(m.sessions.Changes())

	case searchMsg:
		m.syncSearch()
		return m, waitForSearch(m.bridge.search)

	case sessionMsg:
		m.busy = false
		m.refreshDashboard()
		if m.pipeline != nil {
			m.pipeline.SetSearcher(searcherFor(m.sessions))
		}
		m.searchInput.SetValue("")
		m.searchCursor = 0
		switch {
		case msg.err != nil && m.user == nil:
			m.setStatus(fmt.Sprintf("Sign in failed: %v", msg.err), true)
		case msg.err != nil:
			m.setStatus(fmt.Sprintf("Initial load incomplete: %v", msg.err), true)
		case m.user != nil:
			m.setStatus("Signed in as "+m.user.DisplayName(), false)
		default:
			m.setStatus("Signed out", false)
		}
		return m, nil

	case ackMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Could not mark notifications read: %v", msg.err), true)
		}
		return m, nil

	case refreshMsg:
		switch {
		case msg.err == nil:
			m.setStatus("Refreshed", false)
		case poller.OnlySuperseded(msg.err):
			m.setStatus("Refreshed, newer data already shown", false)
		default:
			m.setStatus(fmt.Sprintf("Refresh failed: %v", msg.err), true)
		}
		return m, nil

	case deleteMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Delete failed: %v", msg.err), true)
		} else {
			m.setStatus(fmt.Sprintf("Deleted %q", msg.title), false)
		}
		return m, nil

	case logBatchMsg:
		m.handleLogBatch(msg)
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.searchInput.Focused() {
		return m.handleSearchKey(msg)
	}

	if m.confirmDelete != "" {
		return m.handleConfirmKey(msg)
	}

	if m.profile.IsOpen() {
		if nm, cmd, ok := m.handleProfileKey(msg); ok {
			return nm, cmd
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.overlays.CloseAll()
		m.currentView = ViewDocuments
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.currentView = ViewDocuments
		m.searchCursor = 0
		if m.pipeline != nil {
			m.pipeline.Focus()
		}
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.ToggleNotices):
		if m.notifications.Toggle() {
			m.profile.Close()
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleProfile):
		if m.profile.Toggle() {
			m.notifications.Close()
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleSignedIn):
		return m.toggleSignedIn()

	case key.Matches(msg, m.keys.ViewLogs):
		m.currentView = ViewLogs
		return m, m.refreshLogs()

	case key.Matches(msg, m.keys.ViewDocuments):
		m.currentView = ViewDocuments
		return m, nil
	}

	switch m.currentView {
	case ViewLogs:
		return m.handleLogsKey(msg)
	default:
		return m.handleDocumentsKey(msg)
	}
}

// handleMouse forwards presses to the dismissal controller. Mouse reporting
// is only enabled while a popover is open.
func (m Model) handleMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress {
		return m, nil
	}
	closed := m.overlays.PointerDown(overlay.Point{X: msg.X, Y: msg.Y})
	for _, a := range closed {
		if a == overlay.SearchResults {
			m.searchInput.Blur()
		}
	}
	return m, nil
}

// handleTick refreshes relative timestamps and the followed log.
func (m Model) handleTick() (Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(DefaultUIInterval)}
	if m.currentView == ViewLogs && m.logState.follow {
		if cmd := m.refreshLogs(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) refreshDashboard() {
	if m.sessions == nil {
		return
	}
	m.dash = m.sessions.Snapshot()
	m.user = m.sessions.User()
	if rows := len(m.visibleDocuments()); m.selectedRow >= rows {
		m.selectedRow = max(rows-1, 0)
	}
}

// syncSearch mirrors the pipeline into the model and keeps the results
// popover open exactly while the pipeline shows results.
func (m *Model) syncSearch() {
	if m.pipeline == nil {
		return
	}
	m.query = m.pipeline.Snapshot()
	if m.searchCursor >= len(m.query.Results) {
		m.searchCursor = max(len(m.query.Results)-1, 0)
	}
	if m.query.ShowResults() {
		m.results.Open()
	} else {
		m.results.Close()
	}
	m.layoutOverlays()
}

func (m *Model) toggleSignedIn() (Model, tea.Cmd) {
	if m.sessions == nil || m.busy {
		return *m, nil
	}
	m.profile.Close()
	m.notifications.Close()
	if m.user != nil {
		m.busy = true
		m.setStatus("Signing out...", false)
		return *m, setUserCmd(m.sessions, nil)
	}
	if m.signIn == nil {
		m.setStatus("No credentials configured", true)
		return *m, nil
	}
	user, err := m.signIn()
	if err != nil {
		m.setStatus(fmt.Sprintf("Sign in failed: %v", err), true)
		return *m, nil
	}
	m.busy = true
	m.setStatus("Signing in...", false)
	return *m, setUserCmd(m.sessions, user)
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = statusLine{text: text, isErr: isErr, at: m.now()}
	if isErr {
		m.logger.Warn(text)
	}
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, Filter: m.filter}); err != nil {
		m.logger.Warn("save prefs failed", zap.Error(err))
	}
}

// bridge carries work from callbacks that run outside Update back into the
// program. Model copies share one bridge.
type bridge struct {
	mu      sync.Mutex
	pending []tea.Cmd
	search  chan struct{}
}

func newBridge() *bridge {
	return &bridge{search: make(chan struct{}, 1)}
}

func (b *bridge) queue(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	b.mu.Lock()
	b.pending = append(b.pending, cmd)
	b.mu.Unlock()
}

func (b *bridge) drain() []tea.Cmd {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pending
	b.pending = nil
	return out
}

// mouse toggles terminal mouse reporting with the popover listening state.
func (b *bridge) mouse(listening bool) {
	if listening {
		b.queue(tea.EnableMouseCellMotion)
	} else {
		b.queue(tea.DisableMouse)
	}
}

// searchChanged coalesces pipeline change signals.
func (b *bridge) searchChanged() {
	select {
	case b.search <- struct{}{}:
	default:
	}
}

// Messages

type tickMsg time.Time

type dashboardMsg struct{}

type searchMsg struct{}

type sessionMsg struct{ err error }

type ackMsg struct {
	issued bool
	err    error
}

type refreshMsg struct{ err error }

type deleteMsg struct {
	title string
	err   error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForDashboard(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return dashboardMsg{}
	}
}

func waitForSearch(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return searchMsg{}
	}
}

func setUserCmd(s Sessions, user *session.User) tea.Cmd {
	return func() tea.Msg {
		return sessionMsg{err: s.SetUser(user)}
	}
}

func acknowledgeCmd(ctx context.Context, s Sessions) tea.Cmd {
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		issued, err := s.AcknowledgeNotifications(ctx)
		if errors.Is(err, docsops.ErrUnauthenticated) {
			err = nil
		}
		return ackMsg{issued: issued, err: err}
	}
}

func refreshCmd(ctx context.Context, s Sessions) tea.Cmd {
	return func() tea.Msg {
		return refreshMsg{err: s.RefreshAll(ctx)}
	}
}

func deleteCmd(ctx context.Context, s Sessions, doc docsops.Document) tea.Cmd {
	return func() tea.Msg {
		return deleteMsg{title: doc.Title, err: s.DeleteDocument(ctx, doc.ID)}
	}
}

func readLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Read(path, LogFetchLimit)
		return logBatchMsg{entries: logtail.ParseLines(lines), err: err}
	}
}

// searcherFor returns the session as a search backend when it can serve one.
func searcherFor(s Sessions) search.Searcher {
	if sr, ok := s.(search.Searcher); ok {
		return sr
	}
	return nil
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
