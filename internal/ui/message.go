package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/beatify/internal/models"
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
	MsgWidgetsFetched MsgKind = iota
	MsgConfigSaved
)

// widgetsFetchedMsg is the constructor for [MsgWidgetsFetched]
func widgetsFetchedMsg(widgets []*models.Widget, err error) Msg {
	return Msg{
		kind: MsgWidgetsFetched,
		data: struct {
			widgets []*models.Widget
			err     error
		}{widgets, err},
	}
}

// configSavedMsg is the constructor for [MsgConfigSaved]
func configSavedMsg(err error) Msg {
	return Msg{kind: MsgConfigSaved, data: err}
}
