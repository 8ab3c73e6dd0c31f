package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tasksync/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgSyncComplete
	MsgCycleFinished
	MsgWatchStopped
)

// syncOutcome carries the terminal state of a one-off sync.
type syncOutcome struct {
	result *tasks.ReconcileResult
	err    error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// syncCompleteMsg is the constructor for [MsgSyncComplete]
func syncCompleteMsg(result *tasks.ReconcileResult, err error) Msg {
	return Msg{kind: MsgSyncComplete, data: syncOutcome{result, err}}
}

// cycleFinishedMsg is the constructor for [MsgCycleFinished]
func cycleFinishedMsg(cycle tasks.CycleResult) Msg {
	return Msg{kind: MsgCycleFinished, data: cycle}
}

// watchStoppedMsg is the constructor for [MsgWatchStopped]
func watchStoppedMsg(err error) Msg {
	return Msg{kind: MsgWatchStopped, data: err}
}
