// Package models defines the data model for the task sync daemon.
//
// Two kinds of types live here:
//
//   - Export DTOs ([List], [TaskExport], [ListExport]) used by the formatter
//     package to serialize task lists to files.
//   - Persisted models ([SyncRun]) stored in SQLite through the repositories
//     package. Persisted models implement the [Model] interface and keep
//     their fields private so validation cannot be bypassed.
package models
