package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spoteemix/internal/tasks"
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
	MsgJobComplete
)

// jobResult is the payload of [MsgJobComplete]
type jobResult struct {
	summary Summary
	err     error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// jobCompleteMsg is the constructor for [MsgJobComplete]
func jobCompleteMsg(summary Summary, err error) Msg {
	return Msg{kind: MsgJobComplete, data: jobResult{summary, err}}
}
