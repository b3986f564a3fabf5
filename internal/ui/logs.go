package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/docwatch/internal/logtail"
)

// logLevels is the cycle order of the level floor.
var logLevels = []string{"", "INFO", "WARN", "ERROR"}

// logState holds all log-related state.
type logState struct {
	entries  []logtail.Entry
	follow   bool
	minLevel string
	err      error

	// Content caching - skip re-render when unchanged
	contentVersion uint64
	lastRendered   uint64
}

func newLogState() logState {
	return logState{follow: true, contentVersion: 1}
}

type logBatchMsg struct {
	entries []logtail.Entry
	err     error
}

// refreshLogs reads the tail of the log file.
func (m *Model) refreshLogs() tea.Cmd {
	if m.logPath == "" {
		return nil
	}
	return readLogsCmd(m.logPath)
}

func (m *Model) handleLogBatch(msg logBatchMsg) {
	m.logState.err = msg.err
	if msg.err == nil {
		m.logState.entries = msg.entries
	}
	m.logState.contentVersion++
	m.updateLogViewport()
}

// updateLogViewport sizes the viewport and re-renders changed content.
func (m *Model) updateLogViewport() {
	width := max(m.width-4, 1)
	height := max(m.contentHeight()-3, 1)
	if m.logViewport.Width == 0 {
		m.logViewport = viewport.New(width, height)
	}
	m.logViewport.Width = width
	m.logViewport.Height = height
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))

	if m.logState.contentVersion != m.logState.lastRendered {
		m.logViewport.SetContent(m.renderLogContent())
		m.logState.lastRendered = m.logState.contentVersion
	}
	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logState.follow = !m.logState.follow
		if m.logState.follow {
			m.logViewport.GotoBottom()
		}
		return m, nil
	case msg.String() == "v":
		m.logState.minLevel = nextLogLevel(m.logState.minLevel)
		m.logState.contentVersion++
		m.updateLogViewport()
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.logState.follow = false
		m.logViewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	if !m.logViewport.AtBottom() {
		m.logState.follow = false
	}
	return m, cmd
}

func nextLogLevel(current string) string {
	for i, lvl := range logLevels {
		if lvl == current {
			return logLevels[(i+1)%len(logLevels)]
		}
	}
	return ""
}

// renderLogs renders the log view box and its status line.
func (m Model) renderLogs() string {
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	height := m.contentHeight()

	title := "Log"
	if m.logState.minLevel != "" {
		title = fmt.Sprintf("Log (≥ %s)", m.logState.minLevel)
	}
	box := m.renderTitledBox(title, m.logViewport.View(), m.width, max(height-1, 2), true)

	follow := ternary(m.logState.follow, "on", "off")
	status := fmt.Sprintf("%s  %d entries  auto-tail %s  v: level", truncateMiddle(m.logPath, 48), len(m.logState.entries), follow)
	if m.logState.err != nil {
		status = "read failed: " + m.logState.err.Error()
		return box + "\n" + styles.DangerText.Render(status)
	}
	return box + "\n" + styles.FaintText.Render(status)
}

// renderLogContent renders the decoded entries that pass the level floor.
func (m *Model) renderLogContent() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	width := m.logViewport.Width

	var lines []string
	for _, e := range m.logState.entries {
		if !e.Matches(m.logState.minLevel, "") {
			continue
		}
		lines = append(lines, bg.FillLine(m.formatLogEntry(e, styles, bg), width))
	}
	if len(lines) == 0 {
		return bg.FillLine(bg.Render("No log entries", styles.MutedText), width)
	}
	return strings.Join(lines, "\n")
}

// formatLogEntry renders "15:04:05 LEVEL [component] message key=value".
func (m *Model) formatLogEntry(e logtail.Entry, styles Styles, bg BgStyle) string {
	var parts []string
	if !e.Time.IsZero() {
		parts = append(parts, bg.Render(e.Time.Local().Format("15:04:05"), styles.FaintText))
	}
	if e.Level != "" {
		parts = append(parts, bg.Render(padRight(e.Level, 5), m.levelStyle(e.Level, styles)))
	}
	if e.Component != "" {
		parts = append(parts, bg.Render("["+e.Component+"]", styles.AccentText))
	}
	parts = append(parts, bg.Render(e.Message, styles.Text))
	for _, k := range e.FieldKeys() {
		parts = append(parts, bg.Render(k+"="+e.Fields[k], styles.MutedText))
	}
	return strings.Join(parts, bg.Space())
}

func (m *Model) levelStyle(level string, styles Styles) lipgloss.Style {
	switch level {
	case "ERROR", "DPANIC", "PANIC", "FATAL":
		return styles.DangerText
	case "WARN":
		return styles.WarningText.Bold(true)
	case "DEBUG":
		return styles.InfoText
	default:
		return styles.SuccessText
	}
}
