// Package ui provides the terminal dashboard for stint.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model holds no records of its own: every
// frame reads copies of the cached views from the workspace, so page loads,
// mutations and timer events that land in the background show up on the
// next redraw without extra plumbing.
//
// # Package Structure
//
//   - app.go: Model, Update loop, key handling and commands
//   - tables.go: one table per tab, adapting a workspace set to rows
//   - render.go: header, tab bar, table body and pagination footer
//   - help.go: keyboard shortcut overlay
//   - modal.go: confirmation dialog used before deleting
//   - theme.go: color themes and Lipgloss styles
//
// # Tabs
//
// Time entries, projects, clients, members, invitations and reports each
// get a tab. Projects and clients can be flipped between their active and
// archived views with "a"; "A" archives or unarchives the selected record.
//
// # Timer
//
// The header shows the running timer. The display is fed by the timer
// reconciler's tick channel, one message per published value, so the header
// never computes elapsed time itself.
//
// # Actions
//
// Mutations run as commands off the update loop with a timeout. Their
// outcome, success or error, is shown in the footer and errors are logged.
package ui
