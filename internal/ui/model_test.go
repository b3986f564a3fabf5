package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/docwatch/internal/docsops"
	"github.com/five82/docwatch/internal/logtail"
	"github.com/five82/docwatch/internal/overlay"
	"github.com/five82/docwatch/internal/poller"
	"github.com/five82/docwatch/internal/prefs"
	"github.com/five82/docwatch/internal/session"
	"github.com/five82/docwatch/internal/state"
)

type fakeSessions struct {
	mu      sync.Mutex
	changes chan struct{}
	dash    state.Dashboard
	user    *session.User
	acked   int
	deleted []docsops.ID
}

func newFakeSessions(docs ...docsops.Document) *fakeSessions {
	f := &fakeSessions{
		changes: make(chan struct{}, 1),
		user:    &session.User{ID: "u1", Email: "ana@example.com"},
	}
	f.dash.Documents = state.Resource[[]docsops.Document]{Data: docs, Loaded: true}
	return f
}

func (f *fakeSessions) Changes() <-chan struct{} { return f.changes }

func (f *fakeSessions) Snapshot() state.Dashboard {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dash
}

func (f *fakeSessions) User() *session.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user
}

func (f *fakeSessions) SetUser(user *session.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = user
	return nil
}

func (f *fakeSessions) RefreshAll(context.Context) error { return nil }

func (f *fakeSessions) AcknowledgeNotifications(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked++
	return true, nil
}

func (f *fakeSessions) DeleteDocument(_ context.Context, id docsops.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func newTestModel(t *testing.T, s *fakeSessions) Model {
	t.Helper()
	m := New(Options{
		Sessions:  s,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
		PublicURL: func(p string) string { return "https://cdn.example.com/" + p },
		Now:       func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) },
	})
	return send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// collect runs cmd and every command nested in batches, returning the
// resulting messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestMatchesFilter(t *testing.T) {
	processing := docsops.Document{Status: "uploaded", Processing: "pending"}
	signed := docsops.Document{Status: "signed"}
	risky := docsops.Document{Status: "signed", SensitivityLevel: "confidential"}
	unsigned := docsops.Document{Status: "draft"}

	cases := []struct {
		name   string
		doc    docsops.Document
		filter prefs.Filter
		want   bool
	}{
		{"all", signed, prefs.FilterAll, true},
		{"processing match", processing, prefs.FilterProcessing, true},
		{"processing miss", signed, prefs.FilterProcessing, false},
		{"risk match", risky, prefs.FilterRisk, true},
		{"risk miss", signed, prefs.FilterRisk, false},
		{"pending unsigned", unsigned, prefs.FilterPending, true},
		{"pending processing", processing, prefs.FilterPending, true},
		{"pending signed", signed, prefs.FilterPending, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := matchesFilter(tc.doc, tc.filter); got != tc.want {
				t.Fatalf("matchesFilter = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDocCategory(t *testing.T) {
	cases := map[string]string{
		"":                     "",
		"contracts/2025/a.pdf": "contracts",
		"hr-onboarding.pdf":    "hr",
		"plain.pdf":            "plain.pdf",
		"  finance/q1.xlsx ":   "finance",
	}
	for path, want := range cases {
		if got := docCategory(docsops.Document{StoragePath: path}); got != want {
			t.Errorf("docCategory(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestVisibleDocumentsSkipsDeleted(t *testing.T) {
	s := newFakeSessions(
		docsops.Document{ID: "1", Title: "Kept", Status: "signed"},
		docsops.Document{ID: "2", Title: "Gone", Status: "deleted"},
	)
	m := newTestModel(t, s)
	docs := m.visibleDocuments()
	if len(docs) != 1 || docs[0].ID != "1" {
		t.Fatalf("visibleDocuments = %+v", docs)
	}
}

func TestCycleFilterSavesPrefs(t *testing.T) {
	m := newTestModel(t, newFakeSessions())
	m = send(t, m, runes("f"))
	if m.filter != prefs.FilterProcessing {
		t.Fatalf("filter = %q, want processing", m.filter)
	}
	p, err := prefs.Load(m.prefsPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Filter != prefs.FilterProcessing {
		t.Fatalf("saved filter = %q", p.Filter)
	}
}

func TestOpeningNotificationsAcknowledges(t *testing.T) {
	s := newFakeSessions()
	m := newTestModel(t, s)

	next, cmd := m.Update(runes("n"))
	m = next.(Model)
	if !m.notifications.IsOpen() {
		t.Fatal("notifications not open")
	}

	var acked, mouseOn bool
	for _, msg := range collect(cmd) {
		switch msg.(type) {
		case ackMsg:
			acked = true
		default:
			if msg == tea.EnableMouseCellMotion() {
				mouseOn = true
			}
		}
	}
	if !acked || s.acked != 1 {
		t.Fatalf("acknowledge not issued (acked=%v calls=%d)", acked, s.acked)
	}
	if !mouseOn {
		t.Fatal("mouse reporting not enabled while popover open")
	}

	// Switching to the profile menu must not acknowledge again.
	m = send(t, m, runes("u"))
	if m.notifications.IsOpen() || !m.profile.IsOpen() {
		t.Fatal("profile should replace notifications")
	}
	if s.acked != 1 {
		t.Fatalf("acked = %d after profile toggle", s.acked)
	}
}

func TestPointerOutsideClosesPopover(t *testing.T) {
	m := newTestModel(t, newFakeSessions())
	m = send(t, m, runes("n"))

	inside := tea.MouseMsg{X: 119, Y: 10, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
	m = send(t, m, inside)
	if !m.notifications.IsOpen() {
		t.Fatal("press inside side column closed notifications")
	}

	outside := tea.MouseMsg{X: 5, Y: 10, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
	next, cmd := m.Update(outside)
	m = next.(Model)
	if m.notifications.IsOpen() {
		t.Fatal("press outside did not close notifications")
	}
	if m.overlays.Listening() {
		t.Fatal("controller still listening")
	}
	var mouseOff bool
	for _, msg := range collect(cmd) {
		if msg == tea.DisableMouse() {
			mouseOff = true
		}
	}
	if !mouseOff {
		t.Fatal("mouse reporting not disabled")
	}
}

func TestMouseReleaseIgnored(t *testing.T) {
	m := newTestModel(t, newFakeSessions())
	m = send(t, m, runes("u"))
	m = send(t, m, tea.MouseMsg{X: 0, Y: 0, Action: tea.MouseActionRelease})
	if !m.profile.IsOpen() {
		t.Fatal("release closed profile menu")
	}
	if got := m.overlays.Open(); len(got) != 1 || got[0] != overlay.ProfileMenu {
		t.Fatalf("open = %v", got)
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	s := newFakeSessions(docsops.Document{ID: "42", Title: "Lease", Status: "signed"})
	m := newTestModel(t, s)

	m = send(t, m, runes("d"))
	if m.confirmDelete != "42" {
		t.Fatalf("confirmDelete = %q", m.confirmDelete)
	}

	m = send(t, m, runes("x"))
	if m.confirmDelete != "" || len(s.deleted) != 0 {
		t.Fatal("cancel still deleted")
	}

	m = send(t, m, runes("d"))
	next, cmd := m.Update(runes("y"))
	m = next.(Model)
	var got deleteMsg
	for _, msg := range collect(cmd) {
		if d, ok := msg.(deleteMsg); ok {
			got = d
		}
	}
	if len(s.deleted) != 1 || s.deleted[0] != "42" {
		t.Fatalf("deleted = %v", s.deleted)
	}
	m = send(t, m, got)
	if !strings.Contains(m.status.text, "Lease") {
		t.Fatalf("status = %q", m.status.text)
	}
}

func TestOpenDocumentShowsPublicURL(t *testing.T) {
	s := newFakeSessions(docsops.Document{ID: "1", Title: "Lease", Status: "signed", StoragePath: "legal/lease.pdf"})
	m := newTestModel(t, s)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if want := "Open: https://cdn.example.com/legal/lease.pdf"; m.status.text != want {
		t.Fatalf("status = %q, want %q", m.status.text, want)
	}
}

func TestSignOutClearsPopovers(t *testing.T) {
	s := newFakeSessions()
	m := newTestModel(t, s)
	m = send(t, m, runes("u"))

	next, cmd := m.Update(runes("s"))
	m = next.(Model)
	if m.profile.IsOpen() {
		t.Fatal("profile still open after sign out")
	}
	if !m.busy {
		t.Fatal("model not busy during session switch")
	}
	for _, msg := range collect(cmd) {
		if sm, ok := msg.(sessionMsg); ok {
			m = send(t, m, sm)
		}
	}
	if m.user != nil || m.busy {
		t.Fatalf("user = %v busy = %v", m.user, m.busy)
	}
	if m.status.text != "Signed out" {
		t.Fatalf("status = %q", m.status.text)
	}
}

func TestSessionChangeClearsSearchInput(t *testing.T) {
	m := newTestModel(t, newFakeSessions())
	m = send(t, m, runes("/"))
	m = send(t, m, runes("lease"))
	if got := m.searchInput.Value(); got != "lease" {
		t.Fatalf("search input = %q", got)
	}
	m.searchCursor = 2

	m = send(t, m, sessionMsg{})
	if got := m.searchInput.Value(); got != "" {
		t.Fatalf("search input after session change = %q, want empty", got)
	}
	if m.searchCursor != 0 {
		t.Fatalf("searchCursor = %d", m.searchCursor)
	}
}

func TestRefreshStatus(t *testing.T) {
	superseded := fmt.Errorf("load documents: %w", poller.ErrSuperseded)
	cases := []struct {
		err   error
		want  string
		isErr bool
	}{
		{nil, "Refreshed", false},
		{errors.Join(superseded, nil), "Refreshed, newer data already shown", false},
		{errors.Join(superseded, errors.New("offline")), "Refresh failed:", true},
	}
	for _, tc := range cases {
		m := send(t, newTestModel(t, newFakeSessions()), refreshMsg{err: tc.err})
		if !strings.HasPrefix(m.status.text, tc.want) || m.status.isErr != tc.isErr {
			t.Errorf("err %v: status = %q isErr = %v", tc.err, m.status.text, m.status.isErr)
		}
	}
}

func TestViewRenders(t *testing.T) {
	s := newFakeSessions(docsops.Document{ID: "1", Title: "Quarterly", Status: "uploaded", Processing: "done"})
	m := newTestModel(t, s)
	out := m.View()
	for _, want := range []string{"docwatch", "Quarterly", "Processed"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = send(t, m, runes("?"))
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("help view missing title")
	}
}

func TestLogBatchRendersEntries(t *testing.T) {
	m := newTestModel(t, newFakeSessions())
	m = send(t, m, runes("l"))
	if m.currentView != ViewLogs {
		t.Fatalf("view = %v", m.currentView)
	}
	m = send(t, m, logBatchMsg{entries: []logtail.Entry{
		{Level: "INFO", Message: "heartbeat"},
		{Level: "ERROR", Message: "exploded"},
	}})
	if out := m.View(); !strings.Contains(out, "exploded") {
		t.Fatal("log view missing entry")
	}

	m = send(t, m, runes("v")) // INFO
	m = send(t, m, runes("v")) // WARN
	if m.logState.minLevel != "WARN" {
		t.Fatalf("minLevel = %q", m.logState.minLevel)
	}
	if out := m.View(); strings.Contains(out, "heartbeat") {
		t.Fatal("level floor did not hide INFO entry")
	}
}
