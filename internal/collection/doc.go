// Package collection implements the locally held page of a server-side
// paginated list and the optimistic mutations applied to it.
//
// A Cache holds the records of the page currently displayed for one view
// (for example "active clients") together with its page.Meta. The mutation
// methods keep the two in step: every insert pairs with a +1 delta and every
// remove with a -1 delta, and Move does both across two caches in one call
// so the combined total is conserved.
//
// None of the mutations perform I/O. Callers apply them after the matching
// server request succeeded and re-fetch on failure rather than rolling back.
//
// NeedsRefetch is the single decision point for whether the optimistic page
// has drifted from what the server would return. Fetches are sequenced with
// tokens from Begin; Seed drops any response older than the last one applied
// so a slow response cannot regress a newer page.
//
// A Cache is not safe for concurrent use. The state package wraps caches in a
// lock for that.
package collection
