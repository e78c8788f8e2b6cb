// Package api provides an HTTP client for the time-tracking API.
//
// # Overview
//
// The client covers the endpoints the dashboard needs: paginated listing and
// create/update/delete of the organization-scoped resources (clients,
// projects, members, invitations, time entries, reports), the authenticated
// user and memberships, the running time entry, and the long-poll event feed
// that carries timer start/stop notifications.
//
// # Client Usage
//
//	client, err := api.NewClient("https://time.example.com", token)
//	if err != nil {
//		return err
//	}
//
//	page, err := client.Projects().List(ctx, orgID, api.ListQuery{Page: 1})
//	meta, err := page.PageMeta()
//
//	active, err := client.ActiveTimeEntry(ctx) // nil when no timer runs
//
// # Resources
//
// Resource[T] wraps one endpoint under /api/v1/organizations/{org}/. Every
// list response carries a {data, meta} envelope; PageMeta converts the meta
// block into a validated page.Meta. Single-record responses use {data}.
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation; a 10 second timeout applies when the
//     context has no deadline
//   - Send Accept: application/json and User-Agent: stint/0.1
//   - Carry the bearer token and a fresh X-Request-Id
//
// # Error Handling
//
//   - Network errors: "execute request: ..."
//   - HTTP errors: *StatusError with method, path, status and server message;
//     errors.Is(err, ErrNotFound) matches 404
//   - Deserialization errors: "decode response: ..."
//
// A 404 from the active time entry endpoint is not an error: it means no
// timer is running.
//
// # Design Rationale
//
// The client owns no state. It performs no retries and no caching; the
// workspace package decides when to fetch and what to do on failure.
package api
