// Package services defines the [TaskService] interface over one account's
// remote task store and implements it for the Google Tasks API.
//
// # TaskService Interface
//
// Each configured account gets its own TaskService instance. The reconciliation
// engine only sees this abstraction, so tests substitute in-memory fakes.
//
// # Google Tasks Implementation
//
// [GoogleTasks] wraps google.golang.org/api/tasks/v1. Every remote call first
// passes through a [CredentialGuard] (tokens can expire between calls in a
// long-lived process) and a rate limiter, then through a TTL cache owned by
// the instance:
//   - list:{name} caches the list-name → list-id lookup
//   - tasks:{listId} caches a full task collection snapshot
//
// Mutating calls (create/update/delete/complete) invalidate the tasks snapshot
// for the affected list but never the list-id entry.
//
// # Credential Guard
//
// [CredentialGuard.EnsureFresh] refreshes an expired token using its refresh
// token and persists the rotated token JSON. A failed refresh surfaces
// [shared.ErrRefreshFailed]; the caller must re-run the login flow, the guard
// never retries internally.
//
// # Error Handling
//
// Remote failures are classified into typed errors from the shared package:
//   - [shared.ErrQuotaExceeded] : rate/quota responses (429 or 403 quota reasons)
//   - [shared.ErrTokenExpired] : 401/403 credential responses
//   - [shared.ErrAPIRequest] : any other HTTP or transport failure
//   - [shared.ErrTaskNotFound] : 404 on a task operation
package services
