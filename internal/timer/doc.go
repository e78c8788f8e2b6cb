// Package timer owns the user's running timer for the current organization.
//
// # Overview
//
// A Reconciler holds at most one running time entry and drives the elapsed
// display shown in the dashboard header. It has two states:
//
//	Idle ──Start / started event──→ Running
//	Running ──Stop / stopped event──→ Idle
//	Running ──tick──→ Running (read only)
//
// While Running a ticker goroutine recomputes now - start once per interval
// and publishes the formatted value on Ticks. Leaving Running cancels the
// ticker, so nothing keeps updating a display that is no longer shown.
//
// # Push Events
//
// Events for another user or another organization are ignored. For a
// matching event the payload is not trusted: the Reconciler re-fetches the
// active time entry and replaces its state wholesale. Start and stop
// notifications can arrive out of order; reading the authoritative record
// makes the order irrelevant. Run consumes events from a channel, so
// handling is serialized through a single consumer.
//
// # Organization Switch
//
// SwitchOrganization drops to Idle and stops the ticker before the new
// organization's timer is fetched. Every local transition bumps a
// generation counter; a fetch that completes after a newer transition is
// discarded instead of resurrecting stale state.
package timer
