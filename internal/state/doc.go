// Package state provides thread-safe list state for the Stint application.
//
// # Overview
//
// Every entity type the dashboard lists (clients, projects, members,
// invitations, time entries, reports) gets one Collection. A Collection holds
// a collection.Cache per view of that entity ("active" and "archived" for
// clients and projects, "all" for the rest) and is the coordination point
// where fetch results, optimistic mutations and UI reads meet.
//
// # Architecture
//
//	Producers (workspace ops, fetches):     Consumer (UI):
//	┌──────────────────────┐               ┌──────────────────┐
//	│ Begin(view)          │               │                  │
//	│ api list request     │               │                  │
//	│ Update(view, token)  │──────────────→│ Snapshot(view)   │
//	│ Insert/Remove/Move   │   (mutex)     │      ↓           │
//	│                      │               │  render table    │
//	└──────────────────────┘               └──────────────────┘
//
// # Concurrency Model
//
// One sync.RWMutex guards all views of a Collection. Compound mutations such
// as Move run inside a single critical section, so a reader never sees a
// record in both the active and the archived view, or in neither. The lock is
// held only while copying or mutating, never during network I/O.
//
// # Update Semantics
//
//	// Success: replace the page if the token is the newest applied
//	coll.Update(view, token, items, meta, nil)
//	→ items, meta replaced; LastError cleared; failures reset
//
//	// Error: keep the last good page, record the error
//	coll.Update(view, token, nil, page.Meta{}, err)
//	→ items, meta unchanged; LastError = err; failures++
//
// Responses carrying a token older than the last applied one are dropped, so
// overlapping refetches cannot regress a view to an older page.
//
// # Defensive Copying
//
// Snapshot clones items and wraps the recorded error so the UI can never
// mutate state it does not own.
package state
