// Package state provides thread-safe snapshot cells shared by the pollers and
// the UI.
//
// # Overview
//
// Each synchronized resource (documents, dashboard stats, folder stats,
// notifications) lives in its own Cell. A Cell holds two values:
//
//   - the published Resource the UI reads with Snapshot
//   - the reference copy the poller diffs new fetches against
//
// Both are replaced under one lock by Publish or Clear, so the reference is
// always either empty or equal to what was last published.
//
//	Producer (Poller):             Consumer (UI):
//	┌──────────────────┐          ┌──────────────────┐
//	│ fetch            │          │                  │
//	│ diff vs Reference│          │                  │
//	│ cell.Publish()   │─────────→│ cell.Snapshot()  │
//	└──────────────────┘ (mutex)  └──────────────────┘
//
// # Update Semantics
//
//	Publish(data)     data and reference replaced, error cleared, Version++
//	Clear(err)        data and reference emptied, error recorded, Version++
//	RecordFailure()   failure counted, data and Version untouched
//	Reset()           back to never loaded
//
// RecordFailure is what a background refresh uses: the UI keeps rendering the
// last good data, and IsOffline turns on after two consecutive failures.
//
// # Copying
//
// Values cross the lock boundary through the clone function given to
// NewCell, so callers may mutate what Snapshot returns. Errors are wrapped on
// the way out.
//
// Dashboard aggregates the four resources into one read-only view.
package state
