// Package tasks orchestrates cross-account task reconciliation with real-time progress reporting.
//
// # Core Operations
//
// The [SyncEngine] interface defines two operations:
//
//  1. [SyncEngine.Reconcile] : One-shot merge of a list between two accounts
//     - Resolves the list on both sides, creating it where missing
//     - Groups tasks by normalized title key
//     - Propagates completion, collapses duplicates, copies missing tasks
//     - Deletes open target tasks whose key is absent from the source
//
//  2. [SyncEngine.ExportLists] : Bulk export of an account's lists to files
//     - Fetches lists sequentially under a rate limiter
//     - Writes files concurrently via a worker pool
//     - Produces a JSON manifest summarizing the export
//
// # Scheduling
//
// [Scheduler] runs the engine over every configured pair in a loop. The
// polling interval doubles after a failed cycle and decays after a clean one,
// bounded by the configured min and max. A failing pair never stops the loop;
// its error is recorded and the remaining pairs still run.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
