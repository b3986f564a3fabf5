package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// handleSearchKey routes input while the search field has focus.
func (m Model) handleSearchKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.searchInput.Blur()
		m.results.Close()
		return m, nil
	case "up", "ctrl+p":
		if m.searchCursor > 0 {
			m.searchCursor--
		}
		return m, nil
	case "down", "ctrl+n":
		if m.searchCursor < len(m.query.Results)-1 {
			m.searchCursor++
		}
		return m, nil
	case "enter":
		if m.pipeline == nil || !m.results.IsOpen() {
			return m, nil
		}
		doc, ok := m.pipeline.Select(m.searchCursor)
		if !ok {
			return m, nil
		}
		m.searchInput.SetValue("")
		m.searchInput.Blur()
		m.searchCursor = 0
		m.openDocument(doc)
		return m, nil
	}

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if after := m.searchInput.Value(); after != before && m.pipeline != nil {
		m.searchCursor = 0
		m.pipeline.Change(after)
	}
	return m, cmd
}

// renderSearchResults renders the results popover below the search bar.
func (m Model) renderSearchResults() string {
	height := m.resultsHeight()
	width := m.width
	inner := width - 2

	results := m.query.Results
	start := 0
	if m.searchCursor >= maxResultRows {
		start = m.searchCursor - maxResultRows + 1
	}
	end := min(start+maxResultRows, len(results))

	styles := m.theme.Styles()
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		doc := results[i]
		selected := i == m.searchCursor
		rowBg := ternary(selected, m.theme.SelectionBg, m.theme.FocusBg)
		bg := NewBgStyle(rowBg)
		titleStyle, metaStyle := styles.Text, styles.MutedText
		if selected {
			sel := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
			titleStyle, metaStyle = sel, sel
		}
		meta := doc.DisplayStatus()
		if desc := strings.TrimSpace(doc.Description); desc != "" {
			meta += " · " + desc
		}
		titleWidth := min(max(inner/2, 10), inner)
		line := bg.Render(padRight(truncate(doc.Title, titleWidth), titleWidth), titleStyle) +
			bg.Space() + bg.Render(truncate(meta, inner-titleWidth-1), metaStyle)
		lines = append(lines, bg.FillLine(line, inner))
	}
	return m.renderTitledBox("Results", strings.Join(lines, "\n"), width, height, true)
}
