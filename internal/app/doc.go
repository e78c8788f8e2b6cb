// Package app provides the orchestration layer for the stint application.
//
// # Overview
//
// This package wires together configuration, the API client, the workspace
// of cached views, the event poller and the UI. It is the composition root
// where all dependencies are initialized and connected.
//
// # Architecture
//
//  1. Load ~/.config/stint/config.toml and environment overrides
//  2. Open the JSON log file (the terminal belongs to the TUI)
//  3. Initialize the HTTP client and fetch the user and memberships
//  4. Pick the organization: --org flag, then prefs, then config, then the
//     first membership
//  5. Build the workspace and start the event poller feeding the timer
//  6. Load the first page of every view, then run the TUI until exit
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()          Read config
//	       ├─────> api.NewClient()        Create HTTP client
//	       ├─────> workspace.New()        Cached views + timer reconciler
//	       ├─────> Poller.Start()         Long-poll the event feed
//	       ├─────> Reconciler.Run()       Consume events in order
//	       ├─────> Workspace.LoadAll()    First page of every view
//	       └─────> ui.Run()               Start TUI (blocks)
//
// # Event Polling
//
// The poller long-polls the organization's event feed and forwards events
// on a channel in the order received. The timer reconciler consumes that
// channel, so events are handled one at a time. After a failed poll the
// poller waits an exponentially growing delay, capped at 30 seconds, and
// resets to the base delay after the next success. When the organization
// changes the cursor restarts and batches fetched for the previous
// organization are dropped.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Configuration file invalid, or API URL/token missing
//   - Log file cannot be opened
//   - User or memberships cannot be fetched, or the user has no organization
//
// Recoverable errors (logged, the UI keeps running):
//   - Event poll failures
//   - Page load failures, recorded on the view and shown in the footer
//   - Refetches after a mutation that fail
package app
