package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/docwatch/internal/search"
)

// renderMain renders the full screen: three header rows, the active view
// and a footer status line.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderSearchBar())
	b.WriteString("\n")

	if m.results.IsOpen() {
		b.WriteString(m.renderSearchResults())
		b.WriteString("\n")
	}

	switch m.currentView {
	case ViewLogs:
		b.WriteString(m.renderLogs())
	default:
		b.WriteString(m.renderDocumentsView())
	}
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader renders the logo, dashboard counters, sync state, unread
// badge and signed-in user.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	parts := []string{bg.Render("docwatch", styles.Logo)}

	if m.user == nil {
		parts = append(parts, bg.Render("Signed out", styles.WarningText.Bold(true)))
		return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
	}

	switch {
	case m.dash.IsOffline():
		parts = append(parts, bg.Render("● OFFLINE", styles.DangerText))
	case m.dash.Loading():
		parts = append(parts, bg.Render("● Loading", styles.WarningText))
	default:
		parts = append(parts, bg.Render("● Live", styles.SuccessText))
	}

	stats := m.dash.Stats.Data
	counter := func(label string, value int, style lipgloss.Style) string {
		text := fmt.Sprintf("%d", value)
		if !m.dash.Stats.Loaded {
			text = "..."
		}
		return bg.Render(label, styles.MutedText) + bg.Space() + bg.Render(text, style)
	}
	parts = append(parts,
		counter("New:", stats.NewDocumentsThisWeek, styles.AccentText),
		counter("Pending:", stats.PendingApproval, styles.WarningText),
		counter("Risk:", stats.RiskDocuments, styles.DangerText),
	)
	if m.width >= LayoutCompactWidth {
		parts = append(parts, counter("Unprocessed:", stats.UnprocessedDocuments, styles.InfoText))
	}

	if updated := m.dash.LastUpdated(); !updated.IsZero() {
		parts = append(parts, bg.Render(updated.Local().Format("15:04:05"), styles.FaintText))
	}

	bell := bg.Render("Inbox", styles.MutedText)
	if unread := m.dash.UnreadCount(); unread > 0 {
		bell += bg.Space() + styles.Badge.Render(badgeCount(unread))
	}
	parts = append(parts, bell, bg.Render(truncate(m.user.DisplayName(), 24), styles.Text))

	return styles.Header.Width(m.width).MaxWidth(m.width).Render(strings.Join(parts, sep))
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewLogs:
		followLabel := "Pause"
		if !m.logState.follow {
			followLabel = "Follow"
		}
		commands = []cmd{
			{"Space", followLabel},
			{"j/k", "Scroll"},
			{"D", "Documents"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"f", m.filter.Label()},
			{"/", "Search"},
			{"n", "Inbox"},
			{"u", "Profile"},
			{"r", "Refresh"},
			{"d", "Delete"},
			{"l", "Logs"},
			{"?", "More"},
		}
	}

	colon := bg.Render(":", styles.FaintText)
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).MaxWidth(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}

// renderSearchBar renders the query input and the pipeline state.
func (m Model) renderSearchBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	bg := NewBgStyle(m.theme.Background)

	input := m.searchInput.View()
	var state string
	switch {
	case m.query.IsSearching():
		state = bg.Render("Searching...", styles.WarningText)
	case m.query.Err != nil:
		state = bg.Render("Search failed", styles.DangerText)
	case m.query.State == search.Empty:
		state = bg.Render("No results", styles.MutedText)
	case len(m.query.Results) > 0 && !m.query.Visible:
		state = bg.Render(fmt.Sprintf("%d results hidden, / to show", len(m.query.Results)), styles.FaintText)
	}
	line := input
	if state != "" {
		line += bg.Spaces(2) + state
	}
	return bg.FillLine(line, m.width)
}

// renderFooter renders the latest status message.
func (m Model) renderFooter() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	if m.status.text == "" {
		if err := m.dash.LastError(); err != nil && m.user != nil {
			return styles.Footer.Width(m.width).MaxWidth(m.width).Render(bg.Render(err.Error(), styles.DangerText))
		}
		return styles.Footer.Width(m.width).Render("")
	}
	style := styles.MutedText
	if m.status.isErr {
		style = styles.DangerText
	}
	text := m.status.at.Local().Format("15:04:05") + " " + m.status.text
	return styles.Footer.Width(m.width).MaxWidth(m.width).Render(bg.Render(text, style))
}
