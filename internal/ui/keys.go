package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Escape     key.Binding

	// Views and popovers
	ViewDocuments  key.Binding
	ViewLogs       key.Binding
	Search         key.Binding
	ToggleNotices  key.Binding
	ToggleProfile  key.Binding
	ToggleSignedIn key.Binding

	// Document actions
	Refresh     key.Binding
	Delete      key.Binding
	Confirm     key.Binding
	CycleFilter key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Logs actions
	ToggleFollow key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		// Global
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close popovers"),
		),

		// Views and popovers
		ViewDocuments: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "Documents view"),
		),
		ViewLogs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Log view"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search documents"),
		),
		ToggleNotices: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Notifications"),
		),
		ToggleProfile: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "Profile menu"),
		),
		ToggleSignedIn: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Sign in/out"),
		),

		// Document actions
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh now"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Delete document"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter", "y"),
			key.WithHelp("enter", "Confirm"),
		),
		CycleFilter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Cycle filter"),
		),

		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),

		// Logs actions
		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "Toggle follow mode"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ViewDocuments, k.ViewLogs, k.Search, k.ToggleNotices, k.ToggleProfile},
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.CycleFilter, k.Refresh, k.Delete, k.Confirm},
		{k.ToggleFollow},
		{k.ToggleSignedIn, k.CycleTheme, k.Help, k.Quit},
	}
}
