// Package ui is the docwatch terminal dashboard, built on Bubble Tea.
//
// The model never polls the backend itself. It renders state.Dashboard
// snapshots taken from the session supervisor whenever its change channel
// fires, and mirrors the search pipeline whenever the pipeline signals a
// change. Popovers (notifications, profile, search results) register with
// an overlay.Controller; terminal mouse reporting is on only while one of
// them is open, and a press outside every open popover closes it.
//
// Callbacks that fire outside Update, such as popover hooks and pipeline
// change signals, hand their work to a shared bridge that Update drains
// into the returned command batch.
//
// Views:
//
//   - Documents: filtered document table with a side column for folders,
//     notifications or the profile menu
//   - Logs: decoded tail of the application log with a level floor
package ui
