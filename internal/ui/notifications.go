package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderNotifications renders the notifications popover, newest first as
// returned by the server. Unread entries carry a dot.
func (m Model) renderNotifications(width int) string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)

	if m.user == nil {
		return styles.MutedText.Render("Sign in to see notifications")
	}
	items := m.dash.Notifications.Data
	if len(items) == 0 {
		if !m.dash.Notifications.Loaded {
			return styles.MutedText.Render("Loading...")
		}
		return styles.MutedText.Render("No notifications")
	}

	now := m.now()
	dot := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Danger))
	lines := make([]string, 0, len(items)*2)
	for _, n := range items {
		marker := bg.Spaces(2)
		textStyle := styles.MutedText
		if n.Unread() {
			marker = bg.Render("●", dot) + bg.Space()
			textStyle = styles.Text
		}
		lines = append(lines,
			marker+bg.Render(truncate(n.Notification, width-2), textStyle),
			bg.Spaces(2)+bg.Render(relativeTime(n.ParsedCreatedAt(), now), styles.FaintText),
		)
	}
	return strings.Join(lines, "\n")
}
