package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/docwatch/internal/docsops"
	"github.com/five82/docwatch/internal/prefs"
)

// visibleDocuments applies the active filter to the non-deleted documents.
func (m Model) visibleDocuments() []docsops.Document {
	docs := m.dash.ActiveDocuments()
	if m.filter == prefs.FilterAll {
		return docs
	}
	out := docs[:0]
	for _, doc := range docs {
		if matchesFilter(doc, m.filter) {
			out = append(out, doc)
		}
	}
	return out
}

// matchesFilter reports whether doc belongs under filter. Pending covers
// every document that still awaits a signature.
func matchesFilter(doc docsops.Document, filter prefs.Filter) bool {
	switch filter {
	case prefs.FilterProcessing:
		return doc.DisplayStatus() == "Processing"
	case prefs.FilterRisk:
		return doc.IsRisk()
	case prefs.FilterPending:
		return doc.DisplayStatus() != "Signed"
	default:
		return true
	}
}

// selectedDocument returns the highlighted row, if any.
func (m Model) selectedDocument() (docsops.Document, bool) {
	docs := m.visibleDocuments()
	if m.selectedRow < 0 || m.selectedRow >= len(docs) {
		return docsops.Document{}, false
	}
	return docs[m.selectedRow], true
}

// docCategory is the auto-tag derived from the first storage path segment.
func docCategory(doc docsops.Document) string {
	path := strings.TrimSpace(doc.StoragePath)
	if path == "" {
		return ""
	}
	if i := strings.IndexAny(path, "-/"); i >= 0 {
		path = path[:i]
	}
	return path
}

// handleDocumentsKey processes keyboard input for the documents view.
func (m Model) handleDocumentsKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.CycleFilter):
		m.filter = m.filter.Next()
		m.selectedRow = 0
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.sessions == nil || m.user == nil {
			return m, nil
		}
		m.setStatus("Refreshing...", false)
		return m, refreshCmd(m.ctx, m.sessions)

	case key.Matches(msg, m.keys.Delete):
		if doc, ok := m.selectedDocument(); ok && m.user != nil {
			m.confirmDelete = doc.ID
			m.setStatus(fmt.Sprintf("Delete %q? enter/y to confirm, any other key to cancel", doc.Title), false)
		}
		return m, nil

	case msg.String() == "enter":
		if doc, ok := m.selectedDocument(); ok {
			m.openDocument(doc)
		}
		return m, nil
	}

	count := len(m.visibleDocuments())
	if count == 0 {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selectedRow < count-1 {
			m.selectedRow++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selectedRow = count - 1
	}
	return m, nil
}

// handleConfirmKey resolves a pending delete.
func (m Model) handleConfirmKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	id := m.confirmDelete
	m.confirmDelete = ""
	if !key.Matches(msg, m.keys.Confirm) {
		m.setStatus("Delete cancelled", false)
		return m, nil
	}
	for _, doc := range m.dash.ActiveDocuments() {
		if doc.ID == id {
			m.setStatus(fmt.Sprintf("Deleting %q...", doc.Title), false)
			return m, deleteCmd(m.ctx, m.sessions, doc)
		}
	}
	m.setStatus("Document no longer listed", true)
	return m, nil
}

// openDocument shows the public storage URL of doc.
func (m *Model) openDocument(doc docsops.Document) {
	if strings.TrimSpace(doc.StoragePath) == "" {
		m.setStatus(fmt.Sprintf("%q has no stored file", doc.Title), true)
		return
	}
	m.setStatus("Open: "+m.publicURL(doc.StoragePath), false)
}

// renderDocumentsView renders the documents table beside the side column.
func (m Model) renderDocumentsView() string {
	height := m.contentHeight()
	sw := m.sideWidth()
	mainWidth := m.width - sw

	title := fmt.Sprintf("Documents · %s", m.filter.Label())
	if m.dash.Documents.Loaded {
		title = fmt.Sprintf("Documents · %s (%d)", m.filter.Label(), len(m.visibleDocuments()))
	}
	focused := !m.searchInput.Focused() && len(m.overlays.Open()) == 0
	table := m.renderTitledBox(title, m.renderDocumentRows(mainWidth-2, focused), mainWidth, height, focused)

	var side string
	switch {
	case m.profile.IsOpen():
		side = m.renderTitledBox("Profile", m.renderProfileMenu(sw-2), sw, height, true)
	case m.notifications.IsOpen():
		side = m.renderTitledBox("Notifications", m.renderNotifications(sw-2), sw, height, true)
	default:
		side = m.renderTitledBox("Folders", m.renderFolders(sw-2), sw, height, false)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, table, side)
}

// renderDocumentRows renders one line per visible document.
func (m Model) renderDocumentRows(width int, focused bool) string {
	paneBg := ternary(focused, m.theme.FocusBg, m.theme.SurfaceAlt)
	styles := m.theme.Styles()

	if m.user == nil {
		return styles.MutedText.Background(lipgloss.Color(paneBg)).Render("Sign in with s to load documents")
	}
	if !m.dash.Documents.Loaded {
		if err := m.dash.Documents.LastError; err != nil {
			return styles.DangerText.Background(lipgloss.Color(paneBg)).Render("Could not load documents")
		}
		return styles.MutedText.Background(lipgloss.Color(paneBg)).Render("Loading...")
	}

	docs := m.visibleDocuments()
	if len(docs) == 0 {
		return styles.MutedText.Background(lipgloss.Color(paneBg)).Render("No documents")
	}

	showCategory := m.width >= LayoutWideWidth
	lines := make([]string, 0, len(docs))
	for i, doc := range docs {
		selected := i == m.selectedRow
		rowBg := ternary(selected, m.theme.SelectionBg, paneBg)
		lines = append(lines, m.formatDocumentRow(doc, width, rowBg, selected, showCategory))
	}
	return strings.Join(lines, "\n")
}

// formatDocumentRow formats "Title · Category  Status  Sensitivity  when".
// Selected rows use SelectionText everywhere for contrast.
func (m Model) formatDocumentRow(doc docsops.Document, width int, bgColor string, selected, showCategory bool) string {
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()

	status := doc.DisplayStatus()
	level := doc.Sensitivity()
	when := relativeTime(doc.ParsedUpdatedAt(), m.now())

	titleStyle, mutedStyle := styles.Text, styles.MutedText
	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColor(status)))
	levelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColor(level)))
	if selected {
		sel := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		titleStyle, mutedStyle, statusStyle, levelStyle = sel, sel, sel, sel
	}

	right := bg.Render(padRight(status, 10), statusStyle) + bg.Space() +
		bg.Render(padRight(level, 12), levelStyle) + bg.Space() +
		bg.Render(padRight(when, 11), mutedStyle)
	rightWidth := 10 + 1 + 12 + 1 + 11

	category := ""
	if showCategory {
		category = docCategory(doc)
		if category == "" {
			category = "untagged"
		}
	}
	catWidth := 0
	if category != "" {
		catWidth = 14
	}

	title := doc.Title
	if strings.TrimSpace(title) == "" {
		title = "(untitled)"
	}
	titleWidth := max(width-rightWidth-catWidth-2, 8)

	line := bg.Render(padRight(truncate(title, titleWidth), titleWidth), titleStyle) + bg.Space()
	if catWidth > 0 {
		line += bg.Render(padRight(truncate(category, catWidth-1), catWidth), mutedStyle)
	}
	line += bg.Space() + right
	return bg.FillLine(line, width)
}

// renderFolders renders the per-category counters.
func (m Model) renderFolders(width int) string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	if !m.dash.Folders.Loaded {
		return styles.MutedText.Render(ternary(m.user == nil, "", "Loading..."))
	}
	counts := m.dash.Folders.Data.Counts()
	if len(counts) == 0 {
		return styles.MutedText.Render("No folders")
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	bg := NewBgStyle(m.theme.SurfaceAlt)
	lines := make([]string, 0, len(names))
	for _, name := range names {
		value := fmt.Sprintf("%.0f", counts[name])
		nameWidth := max(width-len(value)-1, 1)
		lines = append(lines,
			bg.Render(padRight(truncate(name, nameWidth), nameWidth), styles.Text)+bg.Space()+bg.Render(value, styles.AccentText))
	}
	return strings.Join(lines, "\n")
}
