// Package workspace ties the API resources to the cached views the dashboard
// renders.
//
// # Overview
//
// A Set pairs one server resource with a state.Collection. Mutations go to
// the server first. Only after the server accepted one does the Set apply it
// to the cached page, and then it asks the cache whether the page can still
// be trusted. When it cannot, the page is fetched again.
//
// Customers and projects are archivable. They carry an active and an
// archived view, and archiving moves a record from one to the other in a
// single step so readers never see it in both or neither.
//
// A Workspace owns every Set of one organization together with the timer
// reconciler. Switching organization drops all cached pages and the timer
// before anything for the new organization is fetched.
package workspace
