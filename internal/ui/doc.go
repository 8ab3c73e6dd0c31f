// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for task reconciliation:
//  1. [PairListView] : Browse the configured account pairs
//  2. [ConfirmView] : Confirm a one-off sync of the selected pair
//  3. [SyncView] : Monitor real-time progress updates during reconciliation
//  4. [WatchView] : Follow continuous sync cycles driven by the scheduler
//  5. [ResultView] : Display change counts for a finished sync
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the Engine, and watch-mode cycle results arrive through the
// Scheduler's OnCycle hook, providing non-blocking status reporting in both modes.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, w, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
