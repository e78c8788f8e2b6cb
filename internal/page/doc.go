// Package page holds the pagination bookkeeping for a single list view.
//
// # Overview
//
// A Meta mirrors the pagination block the API returns with every list
// response: the total number of records, the page currently displayed, the
// page size and the number of pages. Two things produce a Meta:
//
//   - FromServer builds one from an authoritative response and replaces
//     whatever the view held before.
//   - ApplyDelta adjusts one incrementally after a local create or delete
//     so the footer stays correct without a round trip.
//
// # Invariants
//
// After every ApplyDelta (and every FromServer) the following hold:
//
//   - Total >= 0
//   - TotalPages == max(1, ceil(Total / PageSize))
//   - 1 <= Page <= TotalPages
//
// A zero TotalPages only appears on a zero Meta, which stands for "not yet
// loaded".
//
// # Errors
//
// A non-positive PageSize reaching ApplyDelta is a programming error and
// panics. Values coming off the wire are checked by FromServer instead, which
// returns an error so a bad payload cannot take the process down.
package page
