// Package app is the docwatch composition root.
//
// Run loads configuration, opens the rotating log, registers metrics and
// builds a session supervisor whose factory creates one polling engine per
// signed-in user. The supervisor also serves as the search backend, so
// search results always come from the current session. The terminal UI then
// runs until the user quits or the context is cancelled.
//
// With Options.Once set, Run performs a single initial load and prints a
// summary instead of starting the UI.
package app
