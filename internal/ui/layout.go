package ui

import (
	"time"

	"github.com/five82/docwatch/internal/overlay"
)

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which optional columns hide.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the minimum width to show the category column.
	LayoutWideWidth = 120
)

// Fixed rows and columns of the main screen.
const (
	headerRows    = 3 // header, command bar, search bar
	searchBarRow  = 2
	footerRows    = 1
	sideWidthMax  = 40
	maxResultRows = 6
)

// Log display limits.
const (
	// LogFetchLimit is the number of trailing log lines read per refresh.
	LogFetchLimit = 400
)

// DefaultUIInterval refreshes relative timestamps and followed logs.
const DefaultUIInterval = time.Second

// sideWidth is the width of the right-hand column that hosts the folder
// counters or an open popover.
func (m Model) sideWidth() int {
	return min(sideWidthMax, m.width/2)
}

// resultsHeight is the height of the search results box, zero when closed.
func (m Model) resultsHeight() int {
	if !m.results.IsOpen() {
		return 0
	}
	return min(len(m.query.Results), maxResultRows) + 2
}

// contentTop is the first row below the header and any search results.
func (m Model) contentTop() int {
	return headerRows + m.resultsHeight()
}

// contentHeight is the number of rows for the documents and side boxes.
func (m Model) contentHeight() int {
	return max(m.height-m.contentTop()-footerRows, 0)
}

// layoutOverlays reports popover bounds to the dismissal controller. Each
// rectangle includes the popover's trigger so clicks on it stay inside.
func (m Model) layoutOverlays() {
	if m.overlays == nil {
		return
	}
	sw := m.sideWidth()
	side := overlay.Rect{X: m.width - sw, Y: 0, W: sw, H: m.height}
	m.notifications.SetBounds(side)
	m.profile.SetBounds(side)
	m.results.SetBounds(overlay.Rect{X: 0, Y: searchBarRow, W: m.width, H: 1 + m.resultsHeight()})
}
