// Package logtail reads the tail of the docwatch log file and decodes its
// JSON lines for the in-app log view.
//
// Read keeps a ring buffer of maxLines while scanning the file once, so
// memory stays bounded by the requested line count rather than the file size.
// Lines come back oldest first.
//
//	lines, err := logtail.Read(cfg.LogFile, 400)
//	entries := logtail.ParseLines(lines)
//
// Parse lifts timestamp, level, message and component out of each zap JSON
// object and keeps every other key as a string field. Non-JSON lines (for
// example a partially written tail) are kept verbatim as the message.
package logtail
