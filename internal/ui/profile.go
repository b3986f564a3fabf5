package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// renderProfileMenu renders the signed-in identity and session actions.
func (m Model) renderProfileMenu(width int) string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)

	var lines []string
	if m.user == nil {
		lines = append(lines,
			bg.Render("Not signed in", styles.MutedText),
			"",
			bg.Render("s", styles.AccentText)+bg.Space()+bg.Render("Sign in", styles.Text),
		)
		return strings.Join(lines, "\n")
	}

	lines = append(lines, bg.Render(truncate(m.user.DisplayName(), width), styles.Text.Bold(true)))
	if m.user.Email != "" && m.user.Email != m.user.DisplayName() {
		lines = append(lines, bg.Render(truncate(m.user.Email, width), styles.MutedText))
	}
	if !m.user.ExpiresAt.IsZero() {
		lines = append(lines, bg.Render("Session until "+m.user.ExpiresAt.Local().Format("Jan 2 15:04"), styles.FaintText))
	}
	lines = append(lines,
		"",
		bg.Render("s", styles.AccentText)+bg.Space()+bg.Render("Sign out", styles.Text),
		bg.Render("esc", styles.AccentText)+bg.Space()+bg.Render("Close", styles.Text),
	)
	return strings.Join(lines, "\n")
}

// handleProfileKey consumes the keys the open profile menu owns. The bool
// reports whether the key was handled.
func (m Model) handleProfileKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch msg.String() {
	case "enter":
		nm, cmd := m.toggleSignedIn()
		return nm, cmd, true
	}
	return m, nil, false
}
